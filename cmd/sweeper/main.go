package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/glamora/booking-core/internal/booking"
	"github.com/glamora/booking-core/internal/config"
	"github.com/glamora/booking-core/internal/db"
	"github.com/glamora/booking-core/internal/slotlock"
	"github.com/glamora/booking-core/internal/sweeper"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("sweeper starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running sweeper in env=%s interval=%s grace_period=%s wedding_window=%s",
		cfg.Env, cfg.SweepInterval, cfg.GracePeriod, cfg.Flags.WeddingAcceptanceWindow)

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

	// Cancellations never contend for slot locks; the locker here only
	// satisfies the service dependency.
	repo := booking.NewPgRepository(pgPool)
	svc := booking.NewService(repo, slotlock.NewMemoryLocker(cfg.Flags.SlotLockTTL), cfg.Flags)
	sw := sweeper.New(repo, svc, sweeper.LogNotifier{}, cfg.Flags.WeddingAcceptanceWindow)

	opts := sweeper.Options{
		GracePeriodMinutes: int(cfg.GracePeriod.Minutes()),
		NotifyClients:      true,
		NotifyVendors:      true,
	}

	// Run once at startup
	runOnce(rootCtx, sw, opts)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping sweeper")
			return
		case <-ticker.C:
			runOnce(rootCtx, sw, opts)
		}
	}
}

func runOnce(ctx context.Context, sw *sweeper.Sweeper, opts sweeper.Options) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	result, err := sw.Run(runCtx, opts)
	if err != nil {
		log.Printf("sweep run error: %v", err)
		return
	}
	log.Printf("sweep complete in %s: found=%d cancelled=%d failed=%d",
		time.Since(start), result.AppointmentsFound, len(result.Cancelled), len(result.Failed))
}
