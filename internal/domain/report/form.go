package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nutrisms/nutrisms/internal/domain/patient"
	"github.com/nutrisms/nutrisms/internal/domain/reporter"
)

// nullToken in place of any value means "not reported".
const nullToken = "x"

// maxMeasurementDigits caps measurement precision to what the reports table
// stores (NUMERIC(4,1)).
const maxMeasurementDigits = 4

// Field error messages, worded for the reporting health worker.
const (
	msgPatient = "Nutrition reports must be for a patient who is registered and active."
	msgWeight  = "Please send a positive value (in kg) for weight."
	msgHeight  = "Please send a positive value (in cm) for height."
	msgMUAC    = "Please send a positive value (in cm) for mid-upper arm circumference."
	msgOedema  = "Please send Y or N to indicate whether the patient has oedema."
	msgDigits  = "Nutrition report measurements should be no more than 4 digits in length."
)

// FormError is a validation failure whose message is shown verbatim to the
// sender.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string { return e.Message }

// Draft is a validated, not-yet-persisted report candidate.
type Draft struct {
	Patient  *patient.Patient
	Reporter *reporter.Reporter // nil when the sender is anonymous
	RawText  string
	Height   *float64
	Weight   *float64
	MUAC     *float64
	Oedema   *bool
}

// CreateReportForm validates a tokenized report command into a Draft. Any
// invalid field invalidates the whole command; fields are checked in
// declaration order so the first error reported is deterministic.
type CreateReportForm struct {
	Patients  *patient.Service
	Reporters *reporter.Service
}

func (f *CreateReportForm) Validate(ctx context.Context, cmd *ParsedCommand, connection, rawText string) (*Draft, error) {
	p, err := f.Patients.GetBySourceID(ctx, cmd.PatientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, &FormError{Field: "patient_id", Message: msgPatient}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve patient %q: %w", cmd.PatientID, err)
	}

	rep, err := f.Reporters.ResolveByConnection(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("resolve reporter %q: %w", connection, err)
	}

	d := &Draft{Patient: p, Reporter: rep, RawText: rawText}

	if d.Weight, err = parseMeasurement(cmd.Values[IndicatorWeight], "weight", msgWeight); err != nil {
		return nil, err
	}
	if d.Height, err = parseMeasurement(cmd.Values[IndicatorHeight], "height", msgHeight); err != nil {
		return nil, err
	}
	if d.MUAC, err = parseMeasurement(cmd.Values[IndicatorMUAC], "muac", msgMUAC); err != nil {
		return nil, err
	}
	if d.Oedema, err = parseOedema(cmd.Values[IndicatorOedema]); err != nil {
		return nil, err
	}

	return d, nil
}

// parseMeasurement normalizes one raw measurement token. Empty and the
// null token both mean "not reported". ParseFloat also accepts "nan" and
// "inf" spellings, which are not decimals and would sail through every
// range comparison downstream, so non-finite values are rejected here.
func parseMeasurement(raw, field, message string) (*float64, error) {
	if raw == "" || strings.EqualFold(raw, nullToken) {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, &FormError{Field: field, Message: message}
	}
	if digitCount(raw) > maxMeasurementDigits {
		return nil, &FormError{Field: field, Message: msgDigits}
	}
	return &v, nil
}

func parseOedema(raw string) (*bool, error) {
	switch strings.ToLower(raw) {
	case "", nullToken:
		return nil, nil
	case "y", "yes":
		v := true
		return &v, nil
	case "n", "no":
		v := false
		return &v, nil
	default:
		return nil, &FormError{Field: "oedema", Message: msgOedema}
	}
}

func digitCount(raw string) int {
	n := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// CancelReportForm validates a cancel command, which carries only a patient
// identifier.
type CancelReportForm struct {
	Patients *patient.Service
}

func (f *CancelReportForm) Validate(ctx context.Context, cmd *ParsedCommand) (*patient.Patient, error) {
	if len(cmd.Values) != 0 {
		return nil, &FormError{Field: "patient_id", Message: msgPatient}
	}
	p, err := f.Patients.GetBySourceID(ctx, cmd.PatientID)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, &FormError{Field: "patient_id", Message: msgPatient}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve patient %q: %w", cmd.PatientID, err)
	}
	return p, nil
}
