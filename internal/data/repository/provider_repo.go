package repository

import (
	"context"
	"errors"
	"fmt"

	"talent-escrow/internal/data/entity"
	"talent-escrow/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ProviderRepository interface {
	Upsert(ctx context.Context, provider *entity.Provider) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Provider, error)
}

type providerRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewProviderRepository(db database.Querier, log *zap.Logger) ProviderRepository {
	return &providerRepository{
		db:  db,
		log: log.With(zap.String("repository", "provider")),
	}
}

// Upsert creates the provider terms or replaces them, keeping the original created_at.
func (r *providerRepository) Upsert(ctx context.Context, provider *entity.Provider) error {
	query := `
		INSERT INTO providers (id, display_name, min_booking_amount_cents, min_hours, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    min_booking_amount_cents = EXCLUDED.min_booking_amount_cents,
		    min_hours = EXCLUDED.min_hours,
		    is_active = EXCLUDED.is_active,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		provider.ID,
		provider.DisplayName,
		provider.MinBookingAmount,
		provider.MinHours,
		provider.IsActive,
		provider.CreatedAt,
		provider.UpdatedAt,
	).Scan(&provider.CreatedAt)

	if err != nil {
		r.log.Error("Failed to upsert provider",
			zap.Error(err),
			zap.String("provider_id", provider.ID.String()),
		)
		return fmt.Errorf("upsert provider %s: %w", provider.ID.String(), err)
	}

	return nil
}

func (r *providerRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Provider, error) {
	query := `
		SELECT id, display_name, min_booking_amount_cents, min_hours, is_active, created_at, updated_at
		FROM providers
		WHERE id = $1
	`

	var provider entity.Provider
	err := r.db.QueryRow(ctx, query, id).Scan(
		&provider.ID,
		&provider.DisplayName,
		&provider.MinBookingAmount,
		&provider.MinHours,
		&provider.IsActive,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find provider by ID",
			zap.Error(err),
			zap.String("provider_id", id.String()),
		)
		return nil, fmt.Errorf("find provider by ID %s: %w", id.String(), err)
	}

	return &provider, nil
}
