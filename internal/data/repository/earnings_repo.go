package repository

import (
	"context"
	"fmt"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/fee"
	"talent-escrow/pkg/database"
	"talent-escrow/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Aggregate is a payout total and the number of payments behind it.
type Aggregate struct {
	Amount fee.Money
	Count  int64
}

// EarningsRepository reads a provider's payments. Every window filter is on the
// timestamp of the status being counted, never on created_at.
type EarningsRepository interface {
	SumReleased(ctx context.Context, providerID uuid.UUID, from, to time.Time) (Aggregate, error)
	SumVerified(ctx context.Context, providerID uuid.UUID, from, to time.Time) (Aggregate, error)
	ListHistory(ctx context.Context, providerID uuid.UUID, after *utils.Cursor, limit int) ([]*entity.Payment, error)
}

type earningsRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewEarningsRepository(db database.Querier, log *zap.Logger) EarningsRepository {
	return &earningsRepository{
		db:  db,
		log: log.With(zap.String("repository", "earnings")),
	}
}

func (r *earningsRepository) SumReleased(ctx context.Context, providerID uuid.UUID, from, to time.Time) (Aggregate, error) {
	query := `
		SELECT COALESCE(SUM(p.payout_amount_cents), 0)::BIGINT, COUNT(*)
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.provider_id = $1
		  AND p.status = 'released'
		  AND p.released_at BETWEEN $2 AND $3
	`

	return r.aggregate(ctx, "released", query, providerID, from, to)
}

func (r *earningsRepository) SumVerified(ctx context.Context, providerID uuid.UUID, from, to time.Time) (Aggregate, error) {
	query := `
		SELECT COALESCE(SUM(p.payout_amount_cents), 0)::BIGINT, COUNT(*)
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.provider_id = $1
		  AND p.status = 'verified'
		  AND p.verified_at BETWEEN $2 AND $3
	`

	return r.aggregate(ctx, "verified", query, providerID, from, to)
}

func (r *earningsRepository) aggregate(ctx context.Context, status, query string, providerID uuid.UUID, from, to time.Time) (Aggregate, error) {
	var agg Aggregate
	if err := r.db.QueryRow(ctx, query, providerID, from, to).Scan(&agg.Amount, &agg.Count); err != nil {
		r.log.Error("Failed to sum payments",
			zap.Error(err),
			zap.String("provider_id", providerID.String()),
			zap.String("status", status),
		)
		return Aggregate{}, fmt.Errorf("sum %s payments for provider %s: %w", status, providerID.String(), err)
	}
	return agg, nil
}

// ListHistory pages newest first on (created_at, id). after is the last row of the
// previous page, nil for the first page.
func (r *earningsRepository) ListHistory(ctx context.Context, providerID uuid.UUID, after *utils.Cursor, limit int) ([]*entity.Payment, error) {
	query := `
		SELECT ` + prefixedPaymentColumns + `
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.provider_id = $1
		  AND ($2::TIMESTAMPTZ IS NULL OR (p.created_at, p.id) < ($2, $3))
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $4
	`

	var (
		afterAt *time.Time
		afterID uuid.UUID
	)
	if after != nil {
		afterAt = &after.CreatedAt
		afterID = after.ID
	}

	rows, err := r.db.Query(ctx, query, providerID, afterAt, afterID, limit)
	if err != nil {
		r.log.Error("Failed to list payment history",
			zap.Error(err),
			zap.String("provider_id", providerID.String()),
		)
		return nil, fmt.Errorf("list payment history for provider %s: %w", providerID.String(), err)
	}

	return collectPayments(rows)
}

const prefixedPaymentColumns = `p.id, p.booking_id, p.gross_amount_cents, p.platform_fee_cents, p.processor_fee_cents,
		p.payout_amount_cents, p.status, p.payment_method, p.schedule_version, p.created_at, p.verified_at,
		p.verified_by, p.escrow_release_at, p.released_at, p.release_trigger, p.released_by, p.failed_at, p.failure_reason`
