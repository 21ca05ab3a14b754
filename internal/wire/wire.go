package wire

import (
	"talent-escrow/internal/adaptor"
	"talent-escrow/internal/data/repository"
	"talent-escrow/internal/usecase"
	"talent-escrow/internal/worker"
	"talent-escrow/pkg/middleware"
	"talent-escrow/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds everything main needs to run the process.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
	Sweeper *worker.ReleaseSweeper
}

// Wiring builds services, the sweeper and the HTTP router. locker may be nil.
func Wiring(repo *repository.Repository, config *utils.Config, events usecase.EventPublisher, locker worker.Locker, logger *zap.Logger) *App {
	service := usecase.NewService(repo, config, events, logger)
	sweeper := worker.NewReleaseSweeper(service.Escrow, locker, config.Escrow, logger)
	handler := adaptor.NewHandler(service, sweeper, repo, logger)

	return &App{
		Router:  setupRouter(handler, config, logger),
		Service: service,
		Sweeper: sweeper,
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS)

	r.Get("/health", handler.Health.Health)

	wireBooking(r, handler.Booking, config, logger)
	wirePayment(r, handler.Payment, config, logger)
	wireProvider(r, handler.Provider, config, logger)
	wireEarnings(r, handler.Earnings, config, logger)
	wireInternal(r, handler.Internal, config, logger)

	return r
}
