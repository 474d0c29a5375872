package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/glamora/booking-core/internal/api"
	"github.com/glamora/booking-core/internal/booking"
	"github.com/glamora/booking-core/internal/config"
	"github.com/glamora/booking-core/internal/db"
	"github.com/glamora/booking-core/internal/redisclient"
	"github.com/glamora/booking-core/internal/slotlock"
	"github.com/glamora/booking-core/internal/sweeper"
	"github.com/glamora/booking-core/internal/wallet"
)

const version = "0.3.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s optimistic_locking=%t lock_ttl=%s",
		cfg.Env, cfg.HTTPPort, cfg.Flags.EnableOptimisticLocking, cfg.Flags.SlotLockTTL)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	var locker slotlock.Locker
	rdb, err := redisclient.New(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Printf("redis unavailable, falling back to in-process slot locks: %v", err)
		rdb = nil
		locker = slotlock.NewMemoryLocker(cfg.Flags.SlotLockTTL)
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		log.Println("connected to Redis")
		locker = slotlock.NewRedisLocker(rdb, cfg.Flags.SlotLockTTL)
	}

	bookingRepo := booking.NewPgRepository(pgPool)
	bookingSvc := booking.NewService(bookingRepo, locker, cfg.Flags)
	sw := sweeper.New(bookingRepo, bookingSvc, sweeper.LogNotifier{}, cfg.Flags.WeddingAcceptanceWindow)
	walletSvc := wallet.NewService(wallet.NewPgRepository(pgPool))

	handler := api.NewRouter(api.RouterConfig{
		Booking:             bookingSvc,
		Sweeper:             sw,
		Wallet:              walletSvc,
		PgPool:              pgPool,
		Redis:               rdb,
		Env:                 cfg.Env,
		Version:             version,
		DefaultGraceMinutes: int(cfg.GracePeriod.Minutes()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()
	log.Println("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
