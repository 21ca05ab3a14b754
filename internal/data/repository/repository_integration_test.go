package repository

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/fee"
	"talent-escrow/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRepository connects to TEST_DATABASE_URL (postgres://...) and applies migrations.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping Postgres integration test")
	}

	log := zap.NewNop()
	migrationURL := "pgx5://" + strings.TrimPrefix(strings.TrimPrefix(dsn, "postgres://"), "postgresql://")
	require.NoError(t, database.Migrate(migrationURL, log))

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewRepository(database.NewFromPool(pool), log)
}

func seedBooking(t *testing.T, repo *Repository, price string) *entity.Booking {
	t.Helper()
	ctx := context.Background()
	now := entity.Now()

	provider := &entity.Provider{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		DisplayName: "Integration Provider",
		IsActive:    true,
	}
	require.NoError(t, repo.Provider.Upsert(ctx, provider))

	booking := &entity.Booking{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ClientID:      uuid.New(),
		ProviderID:    provider.ID,
		QuotedPrice:   fee.MustParse(price),
		Hours:         2,
		ScheduledDate: now.AddDate(0, 0, 7),
		Status:        entity.BookingStatusRequested,
	}
	require.NoError(t, repo.Booking.Create(ctx, booking))
	return booking
}

func seedPayment(t *testing.T, repo *Repository, booking *entity.Booking) *entity.Payment {
	t.Helper()
	b, err := fee.Compute(booking.QuotedPrice, fee.CurrentVersion)
	require.NoError(t, err)
	p := entity.NewPayment(booking.ID, b, "card", entity.Now())
	require.NoError(t, repo.Payment.Create(context.Background(), p))
	return p
}

func TestPaymentRepository_OneOpenPaymentPerBooking(t *testing.T) {
	repo := newTestRepository(t)
	booking := seedBooking(t, repo, "300.00")
	first := seedPayment(t, repo, booking)

	b, err := fee.Compute(booking.QuotedPrice, fee.CurrentVersion)
	require.NoError(t, err)
	dup := entity.NewPayment(booking.ID, b, "card", entity.Now())
	assert.ErrorIs(t, repo.Payment.Create(context.Background(), dup), ErrOpenPaymentExists)

	// A failed payment frees the slot.
	failed, err := repo.Payment.MarkFailed(context.Background(), first.ID,
		[]entity.PaymentStatus{entity.PaymentStatusPendingVerification}, "test", entity.Now())
	require.NoError(t, err)
	require.NotNil(t, failed)
	assert.NoError(t, repo.Payment.Create(context.Background(), dup))
}

func TestPaymentRepository_ReleaseIsCompareAndSet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	booking := seedBooking(t, repo, "300.00")
	p := seedPayment(t, repo, booking)

	now := entity.Now()
	verified, err := repo.Payment.MarkVerified(ctx, p.ID, "admin:test", now, now)
	require.NoError(t, err)
	require.NotNil(t, verified)

	again, err := repo.Payment.MarkVerified(ctx, p.ID, "admin:test", now, now)
	require.NoError(t, err)
	assert.Nil(t, again)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			released, err := repo.Payment.MarkReleased(ctx, p.ID, entity.ReleaseTriggerDeadlineElapsed, "service:sweeper", entity.Now())
			assert.NoError(t, err)
			if released != nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	stored, err := repo.Payment.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusReleased, stored.Status)
	assert.True(t, stored.Balanced())
}

func TestEarningsRepository_SumReleased(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	booking := seedBooking(t, repo, "300.00")
	p := seedPayment(t, repo, booking)

	now := entity.Now()
	_, err := repo.Payment.MarkVerified(ctx, p.ID, "admin:test", now, now)
	require.NoError(t, err)
	_, err = repo.Payment.MarkReleased(ctx, p.ID, entity.ReleaseTriggerDeliveryConfirmed, "admin:test", now)
	require.NoError(t, err)

	agg, err := repo.Earnings.SumReleased(ctx, booking.ProviderID, now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, Aggregate{Amount: fee.MustParse("246.00"), Count: 1}, agg)

	empty, err := repo.Earnings.SumReleased(ctx, booking.ProviderID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, Aggregate{}, empty)
}
