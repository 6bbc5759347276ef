package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound indicates no registered patient matches the lookup.
var ErrNotFound = errors.New("patient not found")

type Service struct {
	repo PatientRepository
	// source is the registry namespace this deployment reports against;
	// texted identifiers resolve only within it.
	source string
}

func NewService(repo PatientRepository, source string) *Service {
	return &Service{repo: repo, source: source}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.SourceID == "" {
		return fmt.Errorf("source_id is required")
	}
	if p.Sex != nil && *p.Sex != "M" && *p.Sex != "F" {
		return fmt.Errorf("sex must be M or F")
	}
	if p.Source == "" {
		p.Source = s.source
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// GetBySourceID resolves the identifier texted by a health worker to a
// registered, active patient in the configured source.
func (s *Service) GetBySourceID(ctx context.Context, sourceID string) (*Patient, error) {
	p, err := s.repo.GetBySourceID(ctx, s.source, sourceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Sex != nil && *p.Sex != "M" && *p.Sex != "F" {
		return fmt.Errorf("sex must be M or F")
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}
