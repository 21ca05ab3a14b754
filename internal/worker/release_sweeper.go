package worker

import (
	"context"
	"sync"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/dto/response"
	"talent-escrow/pkg/utils"

	"go.uber.org/zap"
)

const sweepLockKey = "escrow:release-sweeper"

// SweeperActor is the identity recorded as released_by for deadline releases.
var SweeperActor = utils.Actor{ID: "sweeper", Role: utils.RoleService}

// Releaser is the slice of the escrow engine the sweeper drives.
type Releaser interface {
	ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]response.PaymentResponse, error)
	Release(ctx context.Context, actor utils.Actor, paymentID string, trigger entity.ReleaseTrigger) (*response.PaymentResponse, error)
}

// Locker guards a sweep so only one replica runs it at a time.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) (bool, error)
}

// SweepResult counts what one pass did.
type SweepResult struct {
	Due      int  `json:"due"`
	Released int  `json:"released"`
	Failed   int  `json:"failed"`
	Skipped  bool `json:"skipped"`
}

type ReleaseSweeper struct {
	escrow   Releaser
	locker   Locker
	interval time.Duration
	batch    int
	now      func() time.Time
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewReleaseSweeper builds a sweeper. locker may be nil, in which case every
// replica sweeps and the conditional release keeps payouts single.
func NewReleaseSweeper(escrow Releaser, locker Locker, config utils.EscrowConfig, log *zap.Logger) *ReleaseSweeper {
	interval := config.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	batch := config.SweepBatch
	if batch <= 0 {
		batch = 100
	}
	return &ReleaseSweeper{
		escrow:   escrow,
		locker:   locker,
		interval: interval,
		batch:    batch,
		now:      time.Now,
		log:      log.With(zap.String("worker", "release_sweeper")),
	}
}

func (w *ReleaseSweeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})

	w.wg.Add(1)
	go w.loop(ctx, w.stopCh)
	w.log.Info("release sweeper started", zap.Duration("interval", w.interval), zap.Int("batch", w.batch))
}

func (w *ReleaseSweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	w.log.Info("release sweeper stopped")
}

func (w *ReleaseSweeper) loop(ctx context.Context, stop <-chan struct{}) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil {
				w.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce releases every payment whose hold has elapsed, up to one batch.
func (w *ReleaseSweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	if w.locker == nil {
		return w.sweep(ctx)
	}

	var result SweepResult
	acquired, err := w.locker.WithLock(ctx, sweepLockKey, 2*w.interval, func(ctx context.Context) error {
		var err error
		result, err = w.sweep(ctx)
		return err
	})
	if err != nil {
		return result, err
	}
	if !acquired {
		w.log.Debug("sweep skipped, another replica holds the lock")
		return SweepResult{Skipped: true}, nil
	}
	return result, nil
}

func (w *ReleaseSweeper) sweep(ctx context.Context) (SweepResult, error) {
	due, err := w.escrow.ListDueForRelease(ctx, w.now(), w.batch)
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Due: len(due)}
	for _, p := range due {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		released, err := w.escrow.Release(ctx, SweeperActor, p.ID, entity.ReleaseTriggerDeadlineElapsed)
		if err != nil {
			result.Failed++
			w.log.Warn("deadline release failed", zap.String("payment_id", p.ID), zap.Error(err))
			continue
		}
		if released.Status == entity.PaymentStatusReleased {
			result.Released++
		}
	}

	if result.Due > 0 {
		w.log.Info("sweep finished",
			zap.Int("due", result.Due),
			zap.Int("released", result.Released),
			zap.Int("failed", result.Failed),
		)
	}
	return result, nil
}
