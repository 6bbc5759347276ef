package report

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	PatientSourceID string
	ReporterID      *uuid.UUID
	Status          string
}

type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	// LatestByPatient returns the patient's most recently created report.
	LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Report, int, error)
}
