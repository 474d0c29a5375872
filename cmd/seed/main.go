package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glamora/booking-core/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedVendors(context.Background(), pool, 200); err != nil {
		log.Fatalf("seed vendors: %v", err)
	}
	if err := seedClients(context.Background(), pool, 5000); err != nil {
		log.Fatalf("seed clients: %v", err)
	}

	log.Println("seed complete")
}

func seedVendors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d vendors", count)

	categories := []string{
		"Hair Salon",
		"Spa",
		"Nail Studio",
		"Bridal Makeup",
		"Dermatology Clinic",
		"Physiotherapy",
		"Barber Shop",
		"Ayurveda Centre",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		vendorID := uuid.New()
		name := gofakeit.Company()
		category := categories[gofakeit.Number(0, len(categories)-1)]
		weddingTeam := category == "Bridal Makeup" && gofakeit.Bool()

		_, err := tx.Exec(ctx, `
			INSERT INTO vendors (id, name, category, wedding_team, rating, lat, lng, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		`, vendorID, name, category, weddingTeam,
			gofakeit.Float64Range(2.5, 5.0),
			gofakeit.Float64Range(12.8, 13.2), // Bengaluru-ish
			gofakeit.Float64Range(77.4, 77.8))
		if err != nil {
			return err
		}

		// 2-6 staff members per vendor
		for s := 0; s < gofakeit.Number(2, 6); s++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO staff (id, vendor_id, name, created_at, updated_at)
				VALUES ($1, $2, $3, now(), now())
			`, uuid.New(), vendorID, gofakeit.Name())
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("vendors seeded")
	return nil
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d clients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			clientID := uuid.New()

			_, err := tx.Exec(ctx, `
				INSERT INTO clients (id, name, email, phone, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
			`, clientID, gofakeit.Name(), gofakeit.Email(), gofakeit.Phone())
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			// Every client starts with a wallet, some pre-funded
			_, err = tx.Exec(ctx, `
				INSERT INTO wallets (user_id, balance, created_at, updated_at)
				VALUES ($1, $2, now(), now())
			`, clientID, int64(gofakeit.Number(0, 500000)))
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("clients seeded: %d/%d", end, count)
	}

	log.Println("clients seeded")
	return nil
}
