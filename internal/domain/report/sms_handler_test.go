package report

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nutrisms/nutrisms/internal/domain/patient"
	"github.com/nutrisms/nutrisms/internal/domain/reporter"
	"github.com/nutrisms/nutrisms/internal/platform/growth"
	"github.com/nutrisms/nutrisms/internal/platform/sms"
)

type pipeline struct {
	report *ReportHandler
	cancel *CancelHandler
	repo   *fakeReportRepo
	calc   *stubCalc
}

// newPipeline wires the full command pipeline over in-memory fakes, with
// one registered patient and one registered reporter.
func newPipeline(p *patient.Patient, rep *reporter.Reporter) *pipeline {
	patients := map[string]*patient.Patient{}
	if p != nil {
		patients[p.SourceID] = p
	}
	reporters := map[string]*reporter.Reporter{}
	if rep != nil {
		reporters[rep.Connection] = rep
	}

	patientSvc := patient.NewService(&fakePatientRepo{patients: patients}, "nutrition")
	reporterSvc := reporter.NewService(&fakeReporterRepo{reporters: reporters})
	repo := &fakeReportRepo{}
	calc := &stubCalc{z: -0.5}
	svc := NewService(repo, calc, zerolog.Nop())
	composer := NewComposer(zerolog.Nop())

	return &pipeline{
		report: NewReportHandler("nutrition",
			&CreateReportForm{Patients: patientSvc, Reporters: reporterSvc},
			svc, composer, zerolog.Nop()),
		cancel: NewCancelHandler("nutrition",
			&CancelReportForm{Patients: patientSvc},
			reporterSvc, svc, composer, zerolog.Nop()),
		repo: repo,
		calc: calc,
	}
}

func inbound(connection, text string) sms.Inbound {
	return sms.Inbound{MessageID: "m1", Connection: connection, Text: text}
}

func TestReportHandlerSuccess(t *testing.T) {
	pl := newPipeline(testPatient(), testReporter())

	reply := pl.report.Handle(context.Background(), inbound("+111", "p123 H 85 W 11 M 14 O N"))

	want := "Thanks Nurse A. Nutrition report for Baby X (p123):\n" +
		"weight: 11 kg\nheight: 85 cm\nmuac: 14 cm\noedema: No"
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
	if len(pl.repo.reports) != 1 {
		t.Fatalf("persisted %d reports, want 1", len(pl.repo.reports))
	}
	if pl.repo.reports[0].Status != StatusGood {
		t.Errorf("status = %q, want G", pl.repo.reports[0].Status)
	}
	if pl.repo.reports[0].RawText != "p123 H 85 W 11 M 14 O N" {
		t.Errorf("raw text = %q", pl.repo.reports[0].RawText)
	}
}

func TestReportHandlerAnonymousSender(t *testing.T) {
	pl := newPipeline(testPatient(), nil)

	reply := pl.report.Handle(context.Background(), inbound("+999", "p123 w 11"))
	if !strings.HasPrefix(reply, "Thanks anonymous. ") {
		t.Errorf("reply = %q, want anonymous thanks", reply)
	}
	if !strings.Contains(reply, "height: - cm") {
		t.Errorf("reply = %q, want '-' for unreported height", reply)
	}
}

func TestReportHandlerEmptyTextIsHelp(t *testing.T) {
	pl := newPipeline(testPatient(), nil)
	reply := pl.report.Handle(context.Background(), inbound("+111", "   "))
	if reply != pl.report.Help() {
		t.Errorf("reply = %q, want help text", reply)
	}
}

func TestReportHandlerFormatErrors(t *testing.T) {
	pl := newPipeline(testPatient(), nil)
	for _, text := range []string{"p123 h", "p123 z 5", "p123 h 85 h 86"} {
		reply := pl.report.Handle(context.Background(), inbound("+111", text))
		if !strings.HasPrefix(reply, "Sorry, the system could not understand your report.") {
			t.Errorf("reply for %q = %q, want format error", text, reply)
		}
		if !strings.Contains(reply, "nutrition report") {
			t.Errorf("reply for %q = %q, want usage with prefix and keyword", text, reply)
		}
	}
	if len(pl.repo.reports) != 0 {
		t.Errorf("persisted %d reports, want none", len(pl.repo.reports))
	}
}

func TestReportHandlerFormError(t *testing.T) {
	pl := newPipeline(testPatient(), nil)
	reply := pl.report.Handle(context.Background(), inbound("+111", "nobody w 11"))
	want := "Sorry, the system could not process your report: " + msgPatient
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestReportHandlerInvalidMeasurement(t *testing.T) {
	pl := newPipeline(testPatient(), testReporter())
	pl.calc.failWith = &growth.InvalidMeasurementError{
		Indicator: growth.IndicatorWeightForAge,
		Message:   "weight 90.0 kg is beyond reasonable limits",
	}

	msg := inbound("+111", "p123 w 90")
	reply := pl.report.Handle(context.Background(), msg)
	want := "Sorry, one of your measurements is invalid: weight 90.0 kg is beyond reasonable limits"
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
	if len(pl.repo.reports) != 0 {
		t.Errorf("persisted %d reports, want none on rejected measurement", len(pl.repo.reports))
	}

	// Resending the same command produces the same reply and still
	// persists nothing.
	if again := pl.report.Handle(context.Background(), msg); again != reply {
		t.Errorf("replay reply = %q, want %q", again, reply)
	}
	if len(pl.repo.reports) != 0 {
		t.Errorf("persisted %d reports after replay, want none", len(pl.repo.reports))
	}
}

func TestCancelHandlerSuccess(t *testing.T) {
	p := testPatient()
	pl := newPipeline(p, testReporter())

	pl.report.Handle(context.Background(), inbound("+111", "p123 w 11"))

	reply := pl.cancel.Handle(context.Background(), inbound("+111", "p123"))
	want := "Thanks Nurse A. The most recent nutrition report for Baby X (p123) has been cancelled."
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
	if pl.repo.reports[0].Status != StatusCancelled {
		t.Errorf("status = %q, want C", pl.repo.reports[0].Status)
	}
}

func TestCancelHandlerNothingToCancel(t *testing.T) {
	pl := newPipeline(testPatient(), nil)
	reply := pl.cancel.Handle(context.Background(), inbound("+111", "p123"))
	want := "Sorry, p123 does not have a nutrition report to cancel."
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestCancelHandlerUnknownPatient(t *testing.T) {
	pl := newPipeline(testPatient(), nil)
	reply := pl.cancel.Handle(context.Background(), inbound("+111", "nobody"))
	want := "Sorry, the system could not process your report: " + msgPatient
	if reply != want {
		t.Errorf("reply = %q, want %q", reply, want)
	}
}

func TestCancelHandlerEmptyTextIsHelp(t *testing.T) {
	pl := newPipeline(testPatient(), nil)
	reply := pl.cancel.Handle(context.Background(), inbound("+111", ""))
	if !strings.Contains(reply, "nutrition cancel <patient_id>") {
		t.Errorf("reply = %q, want cancel usage", reply)
	}
}
