// Package report implements nutrition surveillance reports: the SMS command
// pipeline that creates them, the analysis that scores them, and the store
// and admin API that serve them.
package report

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Report statuses. The intake pipeline only writes G, I and C: reports
// with implausible measurements are rejected before persisting, so S is
// never assigned there, and nothing is stored before analysis, so U only
// appears as the column default. Both stay in the vocabulary so that
// rows flagged during retrospective data review (S) or imported from
// deployments that persisted first and analyzed later (U) remain
// representable in queries and exports.
const (
	StatusUnanalyzed = "U" // persisted before analysis ran
	StatusGood       = "G" // analysis ran completely
	StatusCancelled  = "C" // reporter cancelled the report
	StatusSuspect    = "S" // measurements beyond reasonable limits
	StatusIncomplete = "I" // patient birth date or sex not set
)

// Report maps to the reports table: one observation of one patient, as
// texted by a health worker, plus the z-scores derived from it.
type Report struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientSourceID string     `db:"patient_source_id" json:"patient_source_id"`
	ReporterID      *uuid.UUID `db:"reporter_id" json:"reporter_id,omitempty"`
	RawText         string     `db:"raw_text" json:"raw_text"`
	Status          string     `db:"status" json:"status"`

	// Indicators, gathered from the reporter.
	Height *float64 `db:"height" json:"height,omitempty"`
	Weight *float64 `db:"weight" json:"weight,omitempty"`
	MUAC   *float64 `db:"muac" json:"muac,omitempty"`
	Oedema *bool    `db:"oedema" json:"oedema,omitempty"`

	// Z-scores, derived from the indicators.
	Weight4Age    *float64 `db:"weight4age" json:"weight4age,omitempty"`
	Height4Age    *float64 `db:"height4age" json:"height4age,omitempty"`
	Weight4Height *float64 `db:"weight4height" json:"weight4height,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OedemaDisplay renders the oedema flag for a reply.
func (r *Report) OedemaDisplay() string {
	if r.Oedema == nil {
		return "Unknown"
	}
	if *r.Oedema {
		return "Yes"
	}
	return "No"
}

// IndicatorDisplay renders the four measurements for the confirmation
// reply, with "-" for anything not reported.
func (r *Report) IndicatorDisplay() map[string]string {
	return map[string]string{
		"height": displayFloat(r.Height),
		"weight": displayFloat(r.Weight),
		"muac":   displayFloat(r.MUAC),
		"oedema": r.OedemaDisplay(),
	}
}

func displayFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
