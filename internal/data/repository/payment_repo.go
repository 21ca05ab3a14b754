package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const openPaymentIndex = "payments_one_open_per_booking"

// PaymentRepository exposes every payment transition as a single conditional update.
// Mark* methods return nil when the row was not in an expected status.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindOpenByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	FindLatestByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)

	MarkVerified(ctx context.Context, id uuid.UUID, verifiedBy string, at, releaseAt time.Time) (*entity.Payment, error)
	MarkReleased(ctx context.Context, id uuid.UUID, trigger entity.ReleaseTrigger, releasedBy string, at time.Time) (*entity.Payment, error)
	MarkFailed(ctx context.Context, id uuid.UUID, from []entity.PaymentStatus, reason string, at time.Time) (*entity.Payment, error)
	FailPendingByBookingID(ctx context.Context, bookingID uuid.UUID, reason string, at time.Time) ([]*entity.Payment, error)

	ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]*entity.Payment, error)
}

const paymentColumns = `id, booking_id, gross_amount_cents, platform_fee_cents, processor_fee_cents,
		payout_amount_cents, status, payment_method, schedule_version, created_at, verified_at,
		verified_by, escrow_release_at, released_at, release_trigger, released_by, failed_at, failure_reason`

type paymentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPaymentRepository(db database.Querier, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var payment entity.Payment
	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.GrossAmount,
		&payment.PlatformFee,
		&payment.ProcessorFee,
		&payment.PayoutAmount,
		&payment.Status,
		&payment.PaymentMethod,
		&payment.ScheduleVersion,
		&payment.CreatedAt,
		&payment.VerifiedAt,
		&payment.VerifiedBy,
		&payment.EscrowReleaseAt,
		&payment.ReleasedAt,
		&payment.ReleaseTrigger,
		&payment.ReleasedBy,
		&payment.FailedAt,
		&payment.FailureReason,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func collectPayments(rows pgx.Rows) ([]*entity.Payment, error) {
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

// Create inserts a pending payment. A second open payment for the same booking
// violates the partial unique index and yields ErrOpenPaymentExists.
func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, gross_amount_cents, platform_fee_cents, processor_fee_cents,
			payout_amount_cents, status, payment_method, schedule_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.GrossAmount,
		payment.PlatformFee,
		payment.ProcessorFee,
		payment.PayoutAmount,
		payment.Status,
		payment.PaymentMethod,
		payment.ScheduleVersion,
		payment.CreatedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == openPaymentIndex {
		return ErrOpenPaymentExists
	}
	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return fmt.Errorf("create payment for booking %s: %w", payment.BookingID.String(), err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindOpenByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1 AND status NOT IN ('released', 'failed')
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find open payment by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find open payment by booking ID %s: %w", bookingID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindLatestByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment by booking ID %s: %w", bookingID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) MarkVerified(ctx context.Context, id uuid.UUID, verifiedBy string, at, releaseAt time.Time) (*entity.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'verified', verified_at = $2, verified_by = $3, escrow_release_at = $4
		WHERE id = $1 AND status = 'pending_verification'
		RETURNING ` + paymentColumns

	return r.transition(ctx, "verify", id, query, id, at, verifiedBy, releaseAt)
}

func (r *paymentRepository) MarkReleased(ctx context.Context, id uuid.UUID, trigger entity.ReleaseTrigger, releasedBy string, at time.Time) (*entity.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'released', released_at = $2, release_trigger = $3, released_by = $4
		WHERE id = $1 AND status = 'verified'
		RETURNING ` + paymentColumns

	return r.transition(ctx, "release", id, query, id, at, string(trigger), releasedBy)
}

func (r *paymentRepository) MarkFailed(ctx context.Context, id uuid.UUID, from []entity.PaymentStatus, reason string, at time.Time) (*entity.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'failed', failed_at = $3, failure_reason = $4
		WHERE id = $1 AND status = ANY($2)
		RETURNING ` + paymentColumns

	return r.transition(ctx, "fail", id, query, id, paymentStatuses(from), at, reason)
}

func (r *paymentRepository) transition(ctx context.Context, op string, id uuid.UUID, query string, args ...any) (*entity.Payment, error) {
	payment, err := scanPayment(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to transition payment",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.String("op", op),
		)
		return nil, fmt.Errorf("%s payment %s: %w", op, id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FailPendingByBookingID(ctx context.Context, bookingID uuid.UUID, reason string, at time.Time) ([]*entity.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'failed', failed_at = $2, failure_reason = $3
		WHERE booking_id = $1 AND status = 'pending_verification'
		RETURNING ` + paymentColumns

	rows, err := r.db.Query(ctx, query, bookingID, at, reason)
	if err != nil {
		r.log.Error("Failed to fail pending payments",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("fail pending payments for booking %s: %w", bookingID.String(), err)
	}

	return collectPayments(rows)
}

func (r *paymentRepository) ListDueForRelease(ctx context.Context, now time.Time, limit int) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'verified' AND escrow_release_at <= $1
		ORDER BY escrow_release_at, id
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		r.log.Error("Failed to list payments due for release", zap.Error(err))
		return nil, fmt.Errorf("list payments due for release: %w", err)
	}

	return collectPayments(rows)
}

func paymentStatuses(statuses []entity.PaymentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
