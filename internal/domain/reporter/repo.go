package reporter

import (
	"context"
)

type ReporterRepository interface {
	Create(ctx context.Context, r *Reporter) error
	GetByConnection(ctx context.Context, connection string) (*Reporter, error)
	List(ctx context.Context, limit, offset int) ([]*Reporter, int, error)
}
