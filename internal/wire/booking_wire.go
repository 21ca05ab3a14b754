package wire

import (
	"talent-escrow/internal/adaptor"
	"talent-escrow/pkg/middleware"
	"talent-escrow/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, config *utils.Config, log *zap.Logger) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(middleware.Auth(config.Auth.JWTSecret, log))

		r.With(middleware.RequireRole(log, utils.RoleClient)).Post("/", bookingHandler.CreateBooking)
		r.Get("/", bookingHandler.ListBookings)

		r.Route("/{id}", func(r chi.Router) {
			// Party checks happen in the services.
			r.Get("/", bookingHandler.GetBooking)
			r.Get("/payment", bookingHandler.GetOpenPayment)

			r.With(middleware.RequireRole(log, utils.RoleClient, utils.RoleAdmin)).Put("/cancel", bookingHandler.CancelBooking)
			r.With(middleware.RequireRole(log, utils.RoleProvider, utils.RoleAdmin)).Put("/quote", bookingHandler.RequoteBooking)
			r.With(middleware.RequireRole(log, utils.RoleClient, utils.RoleAdmin)).Post("/payments", bookingHandler.CreatePayment)
			r.With(middleware.RequireRole(log, utils.RoleClient, utils.RoleAdmin)).Post("/confirm-delivery", bookingHandler.ConfirmDelivery)
		})
	})
}
