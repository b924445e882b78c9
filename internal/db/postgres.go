package db

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is nil when DATABASE_URL is not configured; callers must check.
var Pool *pgxpool.Pool

var (
	newPool = func(ctx context.Context, connString string) (*pgxpool.Pool, error) {
		return pgxpool.New(ctx, connString)
	}
	pingPool = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
)

// InitPostgres connects the global pool. A missing DATABASE_URL disables the
// candle archive rather than failing startup; a bad URL is fatal.
func InitPostgres(ctx context.Context) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Println("DATABASE_URL not set, candle archive disabled")
		return
	}

	pool, err := newPool(ctx, url)
	if err != nil {
		log.Fatalf("failed to create Postgres pool: %v", err)
	}
	if err := pingPool(ctx, pool); err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}

	Pool = pool
	log.Println("Connected to Postgres")
}
