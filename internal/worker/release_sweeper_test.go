package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/dto/response"
	"talent-escrow/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEscrow struct {
	mu       sync.Mutex
	due      []response.PaymentResponse
	fail     map[string]error
	released []string
	actors   []utils.Actor
	limit    int
}

func (f *fakeEscrow) ListDueForRelease(_ context.Context, _ time.Time, limit int) ([]response.PaymentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
	if len(f.due) > limit {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeEscrow) Release(_ context.Context, actor utils.Actor, id string, trigger entity.ReleaseTrigger) (*response.PaymentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if trigger != entity.ReleaseTriggerDeadlineElapsed {
		return nil, errors.New("unexpected trigger")
	}
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	f.released = append(f.released, id)
	f.actors = append(f.actors, actor)
	return &response.PaymentResponse{ID: id, Status: entity.PaymentStatusReleased}, nil
}

type fakeLocker struct {
	held  bool
	calls int
}

func (l *fakeLocker) WithLock(ctx context.Context, _ string, _ time.Duration, fn func(context.Context) error) (bool, error) {
	l.calls++
	if l.held {
		return false, nil
	}
	return true, fn(ctx)
}

func dueList(ids ...string) []response.PaymentResponse {
	out := make([]response.PaymentResponse, len(ids))
	for i, id := range ids {
		out[i] = response.PaymentResponse{ID: id, Status: entity.PaymentStatusVerified}
	}
	return out
}

func TestSweepOnce_ReleasesDuePayments(t *testing.T) {
	escrow := &fakeEscrow{due: dueList("p1", "p2", "p3")}
	w := NewReleaseSweeper(escrow, nil, utils.EscrowConfig{SweepBatch: 10}, zap.NewNop())

	result, err := w.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SweepResult{Due: 3, Released: 3}, result)
	assert.Equal(t, []string{"p1", "p2", "p3"}, escrow.released)
	for _, a := range escrow.actors {
		assert.Equal(t, SweeperActor, a)
	}
}

func TestSweepOnce_OneFailureDoesNotStopBatch(t *testing.T) {
	escrow := &fakeEscrow{
		due:  dueList("p1", "p2", "p3"),
		fail: map[string]error{"p2": errors.New("connection reset")},
	}
	w := NewReleaseSweeper(escrow, nil, utils.EscrowConfig{}, zap.NewNop())

	result, err := w.SweepOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SweepResult{Due: 3, Released: 2, Failed: 1}, result)
	assert.Equal(t, []string{"p1", "p3"}, escrow.released)
}

func TestSweepOnce_RespectsBatch(t *testing.T) {
	escrow := &fakeEscrow{due: dueList("p1", "p2", "p3")}
	w := NewReleaseSweeper(escrow, nil, utils.EscrowConfig{SweepBatch: 2}, zap.NewNop())

	result, err := w.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, escrow.limit)
	assert.Equal(t, 2, result.Released)
}

func TestSweepOnce_SkipsWhenLockHeld(t *testing.T) {
	escrow := &fakeEscrow{due: dueList("p1")}
	locker := &fakeLocker{held: true}
	w := NewReleaseSweeper(escrow, locker, utils.EscrowConfig{}, zap.NewNop())

	result, err := w.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, escrow.released)

	locker.held = false
	result, err = w.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, []string{"p1"}, escrow.released)
	assert.Equal(t, 2, locker.calls)
}

func TestStartStop(t *testing.T) {
	escrow := &fakeEscrow{due: dueList("p1")}
	w := NewReleaseSweeper(escrow, nil, utils.EscrowConfig{SweepInterval: 5 * time.Millisecond}, zap.NewNop())

	w.Start(context.Background())
	w.Start(context.Background())
	assert.Eventually(t, func() bool {
		escrow.mu.Lock()
		defer escrow.mu.Unlock()
		return len(escrow.released) > 0
	}, time.Second, 5*time.Millisecond)
	w.Stop()
	w.Stop()
}
