package reporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type Service struct {
	repo ReporterRepository
}

func NewService(repo ReporterRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateReporter(ctx context.Context, r *Reporter) error {
	if r.Connection == "" {
		return fmt.Errorf("connection is required")
	}
	return s.repo.Create(ctx, r)
}

// ResolveByConnection returns the registered, active reporter for a
// messaging connection, or nil when the sender is unknown. Unknown senders
// are not an error: reports may be filed anonymously.
func (s *Service) ResolveByConnection(ctx context.Context, connection string) (*Reporter, error) {
	r, err := s.repo.GetByConnection(ctx, connection)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !r.Active {
		return nil, nil
	}
	return r, nil
}

func (s *Service) ListReporters(ctx context.Context, limit, offset int) ([]*Reporter, int, error) {
	return s.repo.List(ctx, limit, offset)
}
