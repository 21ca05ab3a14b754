package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"talent-escrow/internal/data/entity"
	"talent-escrow/internal/data/repository"
	"talent-escrow/internal/dto/request"
	"talent-escrow/internal/dto/response"
	"talent-escrow/internal/fee"
	"talent-escrow/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
	defaultWindow          = "30d"
)

// EarningsService is read-only. Every figure is filtered on the timestamp of the
// status it counts, so a payment never lands in two windows.
type EarningsService interface {
	Summarize(ctx context.Context, actor utils.Actor, req *request.EarningsSummaryRequest) (*response.EarningsSummaryResponse, error)
	History(ctx context.Context, actor utils.Actor, req *request.EarningsHistoryRequest) (*response.EarningsHistoryResponse, error)
}

type earningsService struct {
	repo *repository.Repository
	now  clock
	log  *zap.Logger
}

func NewEarningsService(repo *repository.Repository, log *zap.Logger) EarningsService {
	return &earningsService{
		repo: repo,
		now:  entity.Now,
		log:  log.With(zap.String("service", "earnings")),
	}
}

// providerFor resolves whose earnings the actor may read. Providers read their own;
// admins name a provider explicitly.
func providerFor(actor utils.Actor, requested string) (uuid.UUID, error) {
	switch {
	case actor.IsAdmin():
		if requested == "" {
			return uuid.Nil, fmt.Errorf("%w: provider_id is required", ErrValidation)
		}
		return parseID("provider", requested)
	case actor.Role == utils.RoleProvider:
		id, err := actorUUID(actor)
		if err != nil {
			return uuid.Nil, err
		}
		if requested != "" && requested != id.String() {
			return uuid.Nil, fmt.Errorf("%w: providers can only read their own earnings", ErrForbidden)
		}
		return id, nil
	default:
		return uuid.Nil, fmt.Errorf("%w: role %q has no earnings", ErrForbidden, actor.Role)
	}
}

// ResolveWindow turns a window selector or explicit bounds into [from, to].
// A date-only `to` covers that whole day.
func ResolveWindow(window, fromRaw, toRaw string, now time.Time) (time.Time, time.Time, error) {
	if fromRaw != "" || toRaw != "" {
		if fromRaw == "" || toRaw == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: from and to must be given together", ErrValidation)
		}
		from, err := utils.ParseTime(fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid from %q", ErrValidation, fromRaw)
		}
		to, err := utils.ParseTime(toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid to %q", ErrValidation, toRaw)
		}
		if len(toRaw) == len("2006-01-02") {
			to = to.Add(24*time.Hour - time.Microsecond)
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: to is before from", ErrValidation)
		}
		return from, to, nil
	}

	if window == "" {
		window = defaultWindow
	}
	switch window {
	case "7d":
		return now.AddDate(0, 0, -7), now, nil
	case "30d":
		return now.AddDate(0, 0, -30), now, nil
	case "90d":
		return now.AddDate(0, 0, -90), now, nil
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), now, nil
	case "all":
		return time.Unix(0, 0).UTC(), now, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: unknown window %q", ErrValidation, window)
	}
}

func (s *earningsService) Summarize(ctx context.Context, actor utils.Actor, req *request.EarningsSummaryRequest) (*response.EarningsSummaryResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	providerID, err := providerFor(actor, req.ProviderID)
	if err != nil {
		return nil, err
	}

	from, to, err := ResolveWindow(req.Window, req.From, req.To, s.now())
	if err != nil {
		return nil, err
	}

	var released, pending repository.Aggregate
	err = s.repo.ReadOnly(ctx, func(tx *repository.Repository) error {
		var err error
		if released, err = tx.Earnings.SumReleased(ctx, providerID, from, to); err != nil {
			return err
		}
		pending, err = tx.Earnings.SumVerified(ctx, providerID, from, to)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("summarize earnings: %w", err)
	}

	return &response.EarningsSummaryResponse{
		ProviderID:     providerID.String(),
		From:           from,
		To:             to,
		TotalEarnings:  released.Amount,
		CompletedCount: released.Count,
		PendingCount:   pending.Count,
		PendingAmount:  pending.Amount,
		AveragePayout:  averagePayout(released),
	}, nil
}

// averagePayout rounds half-up to the cent; zero when nothing was released.
func averagePayout(agg repository.Aggregate) fee.Money {
	if agg.Count == 0 {
		return 0
	}
	return fee.Money((int64(agg.Amount)*2 + agg.Count) / (2 * agg.Count))
}

func (s *earningsService) History(ctx context.Context, actor utils.Actor, req *request.EarningsHistoryRequest) (*response.EarningsHistoryResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	providerID, err := providerFor(actor, req.ProviderID)
	if err != nil {
		return nil, err
	}

	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = defaultHistoryPageSize
	}
	if pageSize < 1 || pageSize > maxHistoryPageSize {
		return nil, fmt.Errorf("%w: page_size must be between 1 and %d", ErrValidation, maxHistoryPageSize)
	}

	after, err := utils.DecodeCursor(req.Cursor)
	if errors.Is(err, utils.ErrInvalidCursor) {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err != nil {
		return nil, err
	}

	var payments []*entity.Payment
	err = s.repo.ReadOnly(ctx, func(tx *repository.Repository) error {
		var err error
		// One extra row tells us whether another page exists.
		payments, err = tx.Earnings.ListHistory(ctx, providerID, after, pageSize+1)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("earnings history: %w", err)
	}

	resp := &response.EarningsHistoryResponse{Items: make([]response.PaymentResponse, 0, pageSize)}
	if len(payments) > pageSize {
		payments = payments[:pageSize]
		last := payments[len(payments)-1]
		resp.NextCursor = utils.EncodeCursor(utils.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	for _, p := range payments {
		resp.Items = append(resp.Items, response.PaymentToResponse(p))
	}

	return resp, nil
}
