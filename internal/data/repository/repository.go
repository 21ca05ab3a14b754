package repository

import (
	"context"
	"errors"

	"talent-escrow/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var (
	// ErrOpenPaymentExists is returned when the one-open-payment-per-booking index rejects an insert.
	ErrOpenPaymentExists = errors.New("booking already has an open payment")
	// ErrNoDatabase is returned by Ping when the repository is not backed by Postgres.
	ErrNoDatabase = errors.New("no database configured")
)

type Repository struct {
	Provider ProviderRepository
	Booking  BookingRepository
	Payment  PaymentRepository
	Earnings EarningsRepository

	db  database.PgxIface
	log *zap.Logger
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepository(db, log)
	repo.db = db
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Provider: NewProviderRepository(q, log),
		Booking:  NewBookingRepository(q, log),
		Payment:  NewPaymentRepository(q, log),
		Earnings: NewEarningsRepository(q, log),
		log:      log,
	}
}

// WithTx runs fn with every repository bound to a single transaction.
// A Repository assembled without a database (in tests) hands itself to fn.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return database.WithTx(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(newRepository(tx, r.log))
	})
}

// ReadOnly runs fn in a read-only, read-committed transaction. Reports are advisory,
// so they do not need a stronger snapshot.
func (r *Repository) ReadOnly(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly}
	return database.WithTx(ctx, r.db, opts, func(tx pgx.Tx) error {
		return fn(newRepository(tx, r.log))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return ErrNoDatabase
	}
	return r.db.Ping(ctx)
}
