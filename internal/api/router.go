package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/glamora/booking-core/internal/booking"
	"github.com/glamora/booking-core/internal/sweeper"
	"github.com/glamora/booking-core/internal/wallet"
)

type RouterConfig struct {
	Booking             *booking.Service
	Sweeper             *sweeper.Sweeper
	Wallet              *wallet.Service
	PgPool              *pgxpool.Pool
	Redis               *redis.Client
	Env                 string
	Version             string
	DefaultGraceMinutes int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", createBookingHandler(cfg.Booking))
		r.Get("/", listBookingsHandler(cfg.Booking))
		r.Get("/{id}", getBookingHandler(cfg.Booking))
		r.Post("/{id}/confirm", confirmBookingHandler(cfg.Booking))
		r.Post("/{id}/complete", completeBookingHandler(cfg.Booking))
		r.Post("/{id}/cancel", cancelBookingHandler(cfg.Booking))
	})

	r.Route("/admin/auto-cancellation", func(r chi.Router) {
		r.Get("/", autoCancellationStatsHandler(cfg.Sweeper, cfg.DefaultGraceMinutes))
		r.Post("/run", autoCancellationRunHandler(cfg.Sweeper, cfg.DefaultGraceMinutes))
	})

	r.Route("/wallet/{userID}", func(r chi.Router) {
		r.Get("/", walletBalanceHandler(cfg.Wallet))
		r.Post("/credit", walletCreditHandler(cfg.Wallet))
		r.Post("/debit", walletDebitHandler(cfg.Wallet))
	})

	return r
}
