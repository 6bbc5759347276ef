package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/nutrisms/nutrisms/internal/platform/growth"
)

// ErrNoReportToCancel indicates the patient has no report to cancel.
var ErrNoReportToCancel = errors.New("no report to cancel")

type Service struct {
	repo ReportRepository
	calc growth.Calculator
	log  zerolog.Logger
}

func NewService(repo ReportRepository, calc growth.Calculator, log zerolog.Logger) *Service {
	return &Service{repo: repo, calc: calc, log: log}
}

// CreateFromDraft analyzes a validated draft and persists the resulting
// report. Nothing is written until analysis settles: a draft the calculator
// rejects as implausible leaves no row behind, so the store never holds
// half-populated reports. Drafts that cannot be analyzed because the
// patient's birth date or sex is unknown, or because reference tables are
// not loaded, are persisted as incomplete.
func (s *Service) CreateFromDraft(ctx context.Context, d *Draft) (*Report, error) {
	r := &Report{
		PatientID:       d.Patient.ID,
		PatientSourceID: d.Patient.SourceID,
		RawText:         d.RawText,
		Height:          d.Height,
		Weight:          d.Weight,
		MUAC:            d.MUAC,
		Oedema:          d.Oedema,
	}
	if d.Reporter != nil {
		r.ReporterID = &d.Reporter.ID
	}

	if err := s.analyze(r, d, time.Now()); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	return r, nil
}

// analyze derives z-scores onto r and sets its status.
func (s *Service) analyze(r *Report, d *Draft, now time.Time) error {
	age, ageKnown := d.Patient.AgeMonths(now)
	if !ageKnown || d.Patient.Sex == nil {
		r.Status = StatusIncomplete
		return nil
	}
	sex := growth.Sex(*d.Patient.Sex)

	var err error
	var w4a, h4a, w4h float64

	if d.Weight != nil {
		if w4a, err = s.calc.WeightForAge(*d.Weight, age, sex); err == nil {
			r.Weight4Age = &w4a
		}
	}
	if err == nil && d.Height != nil {
		if h4a, err = s.calc.LengthOrHeightForAge(*d.Height, age, sex); err == nil {
			r.Height4Age = &h4a
		}
	}
	if err == nil && d.Weight != nil && d.Height != nil {
		if age <= 24 {
			w4h, err = s.calc.WeightForLength(*d.Weight, *d.Height, age, sex)
		} else {
			w4h, err = s.calc.WeightForHeight(*d.Weight, *d.Height, age, sex)
		}
		if err == nil {
			r.Weight4Height = &w4h
		}
	}

	if errors.Is(err, growth.ErrNoReference) {
		// Reference tables not deployed, or the patient falls outside
		// them. The observation is still worth keeping.
		s.log.Warn().
			Str("patient", d.Patient.SourceID).
			Err(err).
			Msg("growth reference unavailable, storing report unanalyzed")
		r.Weight4Age, r.Height4Age, r.Weight4Height = nil, nil, nil
		r.Status = StatusIncomplete
		return nil
	}
	if err != nil {
		return err
	}

	r.Status = StatusGood
	return nil
}

// CancelLatest marks the patient's most recent report cancelled. Reports
// are not filtered by status first: cancelling an already-cancelled report
// is allowed, this is not a way to walk back through history.
func (s *Service) CancelLatest(ctx context.Context, patientID uuid.UUID) (*Report, error) {
	r, err := s.repo.LatestByPatient(ctx, patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoReportToCancel
	}
	if err != nil {
		return nil, fmt.Errorf("find latest report: %w", err)
	}
	if err := s.repo.UpdateStatus(ctx, r.ID, StatusCancelled); err != nil {
		return nil, fmt.Errorf("cancel report %s: %w", r.ID, err)
	}
	r.Status = StatusCancelled
	return r, nil
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, filter ListFilter, limit, offset int) ([]*Report, int, error) {
	return s.repo.List(ctx, filter, limit, offset)
}
