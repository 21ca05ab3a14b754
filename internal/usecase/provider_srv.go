package usecase

import (
	"context"
	"fmt"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/data/repository"
	"talent-escrow/internal/dto/request"
	"talent-escrow/internal/dto/response"
	"talent-escrow/pkg/utils"

	"go.uber.org/zap"
)

type ProviderService interface {
	UpsertTerms(ctx context.Context, actor utils.Actor, providerID string, req *request.UpsertProviderRequest) (*response.ProviderResponse, error)
	GetProvider(ctx context.Context, providerID string) (*response.ProviderResponse, error)
}

type providerService struct {
	repo *repository.Repository
	now  clock
	log  *zap.Logger
}

func NewProviderService(repo *repository.Repository, log *zap.Logger) ProviderService {
	return &providerService{
		repo: repo,
		now:  entity.Now,
		log:  log.With(zap.String("service", "provider")),
	}
}

func (s *providerService) UpsertTerms(ctx context.Context, actor utils.Actor, providerID string, req *request.UpsertProviderRequest) (*response.ProviderResponse, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins manage provider terms", ErrForbidden)
	}
	if err := validate(req); err != nil {
		s.log.Warn("Upsert provider validation failed", zap.Error(err))
		return nil, err
	}

	id, err := parseID("provider", providerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	provider := &entity.Provider{
		Base: entity.Base{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		DisplayName:      req.DisplayName,
		MinBookingAmount: req.MinBookingAmount,
		MinHours:         req.MinHours,
		IsActive:         *req.IsActive,
	}

	if err := s.repo.Provider.Upsert(ctx, provider); err != nil {
		return nil, fmt.Errorf("upsert provider terms: %w", err)
	}

	s.log.Info("Provider terms updated",
		zap.String("provider_id", providerID),
		zap.String("min_booking_amount", provider.MinBookingAmount.String()),
		zap.Float64("min_hours", provider.MinHours),
		zap.Bool("is_active", provider.IsActive),
		zap.String("actor", actor.String()),
	)

	resp := response.ProviderToResponse(provider)
	return &resp, nil
}

func (s *providerService) GetProvider(ctx context.Context, providerID string) (*response.ProviderResponse, error) {
	id, err := parseID("provider", providerID)
	if err != nil {
		return nil, err
	}

	provider, err := s.repo.Provider.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: provider %s", ErrNotFound, providerID)
	}

	resp := response.ProviderToResponse(provider)
	return &resp, nil
}
