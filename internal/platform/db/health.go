package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthy reports whether the database answers a ping within the timeout.
func Healthy(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return pool.Ping(ctx) == nil
}
