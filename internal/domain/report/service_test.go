package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/nutrisms/nutrisms/internal/platform/growth"
)

// fakeReportRepo stores reports in creation order.
type fakeReportRepo struct {
	reports []*Report
}

func (f *fakeReportRepo) Create(ctx context.Context, r *Report) error {
	r.ID = uuid.New()
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	for _, r := range f.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeReportRepo) LatestByPatient(ctx context.Context, patientID uuid.UUID) (*Report, error) {
	for i := len(f.reports) - 1; i >= 0; i-- {
		if f.reports[i].PatientID == patientID {
			return f.reports[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeReportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	for _, r := range f.reports {
		if r.ID == id {
			r.Status = status
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeReportRepo) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Report, int, error) {
	return f.reports, len(f.reports), nil
}

// stubCalc returns a fixed z-score, or a configured error for one indicator.
type stubCalc struct {
	z        float64
	failWith error
	failOn   string // growth indicator constant, "" fails everything
	calls    int
}

func (s *stubCalc) score(indicator string) (float64, error) {
	s.calls++
	if s.failWith != nil && (s.failOn == "" || s.failOn == indicator) {
		return 0, s.failWith
	}
	return s.z, nil
}

func (s *stubCalc) WeightForAge(weight float64, ageMonths int, sex growth.Sex) (float64, error) {
	return s.score(growth.IndicatorWeightForAge)
}

func (s *stubCalc) LengthOrHeightForAge(height float64, ageMonths int, sex growth.Sex) (float64, error) {
	return s.score(growth.IndicatorLengthForAge)
}

func (s *stubCalc) WeightForLength(weight, length float64, ageMonths int, sex growth.Sex) (float64, error) {
	return s.score(growth.IndicatorWeightForLength)
}

func (s *stubCalc) WeightForHeight(weight, height float64, ageMonths int, sex growth.Sex) (float64, error) {
	return s.score(growth.IndicatorWeightForHeight)
}

func floatPtr(v float64) *float64 { return &v }

func TestCreateFromDraftAnalyzesAndPersists(t *testing.T) {
	repo := &fakeReportRepo{}
	calc := &stubCalc{z: -1.25}
	svc := NewService(repo, calc, zerolog.Nop())

	d := &Draft{
		Patient:  testPatient(),
		Reporter: testReporter(),
		RawText:  "p123 h 85 w 11",
		Height:   floatPtr(85),
		Weight:   floatPtr(11),
	}
	r, err := svc.CreateFromDraft(context.Background(), d)
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	if r.Status != StatusGood {
		t.Errorf("status = %q, want G", r.Status)
	}
	if r.Weight4Age == nil || *r.Weight4Age != -1.25 {
		t.Errorf("weight4age = %v, want -1.25", r.Weight4Age)
	}
	if r.Height4Age == nil || r.Weight4Height == nil {
		t.Errorf("z-scores = %v/%v, want all derived", r.Height4Age, r.Weight4Height)
	}
	if len(repo.reports) != 1 {
		t.Fatalf("persisted %d reports, want 1", len(repo.reports))
	}
	if repo.reports[0].ReporterID == nil {
		t.Error("reporter id not persisted")
	}
}

func TestCreateFromDraftUsesWeightForLengthUnderTwo(t *testing.T) {
	// testPatient is ~12 months old, so the weight/height pairing must go
	// through the length table.
	repo := &fakeReportRepo{}
	calc := &stubCalc{z: 0.5, failWith: growth.ErrNoReference, failOn: growth.IndicatorWeightForHeight}
	svc := NewService(repo, calc, zerolog.Nop())

	r, err := svc.CreateFromDraft(context.Background(), &Draft{
		Patient: testPatient(),
		Height:  floatPtr(85),
		Weight:  floatPtr(11),
	})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	if r.Status != StatusGood {
		t.Errorf("status = %q, want G (weight-for-height table must not be consulted)", r.Status)
	}
}

func TestCreateFromDraftImplausibleMeasurementNotPersisted(t *testing.T) {
	repo := &fakeReportRepo{}
	rangeErr := &growth.InvalidMeasurementError{Indicator: growth.IndicatorWeightForAge, Message: "muac out of range"}
	svc := NewService(repo, &stubCalc{failWith: rangeErr}, zerolog.Nop())

	_, err := svc.CreateFromDraft(context.Background(), &Draft{
		Patient: testPatient(),
		Weight:  floatPtr(11),
	})
	var got *growth.InvalidMeasurementError
	if !errors.As(err, &got) {
		t.Fatalf("err = %v, want InvalidMeasurementError", err)
	}
	if len(repo.reports) != 0 {
		t.Errorf("persisted %d reports, want none on rejected measurement", len(repo.reports))
	}
}

func TestCreateFromDraftIncompleteWhenBirthDateUnknown(t *testing.T) {
	repo := &fakeReportRepo{}
	calc := &stubCalc{z: 1}
	svc := NewService(repo, calc, zerolog.Nop())

	p := testPatient()
	p.BirthDate = nil
	r, err := svc.CreateFromDraft(context.Background(), &Draft{Patient: p, Weight: floatPtr(11)})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	if r.Status != StatusIncomplete {
		t.Errorf("status = %q, want I", r.Status)
	}
	if calc.calls != 0 {
		t.Errorf("calculator called %d times, want 0 without a birth date", calc.calls)
	}
	if len(repo.reports) != 1 {
		t.Errorf("persisted %d reports, want 1", len(repo.reports))
	}
}

func TestCreateFromDraftOverageChildStoredIncomplete(t *testing.T) {
	// A six-year-old is past the reference span of the growth standards.
	// The observation is still persisted, unanalyzed, and not rejected as
	// an invalid measurement.
	repo := &fakeReportRepo{}
	svc := NewService(repo, growth.NewLMS(), zerolog.Nop())

	p := testPatient()
	p.BirthDate = timePtr(time.Now().AddDate(-6, 0, 0))
	r, err := svc.CreateFromDraft(context.Background(), &Draft{Patient: p, Weight: floatPtr(18)})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	if r.Status != StatusIncomplete {
		t.Errorf("status = %q, want I", r.Status)
	}
	if len(repo.reports) != 1 {
		t.Errorf("persisted %d reports, want 1", len(repo.reports))
	}
}

func TestCreateFromDraftIncompleteWhenNoReference(t *testing.T) {
	repo := &fakeReportRepo{}
	svc := NewService(repo, &stubCalc{failWith: growth.ErrNoReference}, zerolog.Nop())

	r, err := svc.CreateFromDraft(context.Background(), &Draft{
		Patient: testPatient(),
		Weight:  floatPtr(11),
	})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	if r.Status != StatusIncomplete {
		t.Errorf("status = %q, want I", r.Status)
	}
	if r.Weight4Age != nil {
		t.Errorf("weight4age = %v, want nil when reference is missing", r.Weight4Age)
	}
}

func TestCancelLatest(t *testing.T) {
	repo := &fakeReportRepo{}
	svc := NewService(repo, &stubCalc{z: 1}, zerolog.Nop())
	p := testPatient()

	if _, err := svc.CancelLatest(context.Background(), p.ID); !errors.Is(err, ErrNoReportToCancel) {
		t.Errorf("CancelLatest = %v, want ErrNoReportToCancel", err)
	}

	if _, err := svc.CreateFromDraft(context.Background(), &Draft{Patient: p, Weight: floatPtr(10)}); err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}
	second, err := svc.CreateFromDraft(context.Background(), &Draft{Patient: p, Weight: floatPtr(11)})
	if err != nil {
		t.Fatalf("CreateFromDraft: %v", err)
	}

	cancelled, err := svc.CancelLatest(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("CancelLatest: %v", err)
	}
	if cancelled.ID != second.ID {
		t.Errorf("cancelled %s, want most recent %s", cancelled.ID, second.ID)
	}
	if repo.reports[1].Status != StatusCancelled {
		t.Errorf("stored status = %q, want C", repo.reports[1].Status)
	}
	if repo.reports[0].Status != StatusGood {
		t.Errorf("earlier report status = %q, want untouched G", repo.reports[0].Status)
	}
}
