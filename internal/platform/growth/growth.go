// Package growth computes anthropometric z-scores from raw child
// measurements using the LMS method against WHO growth-standard reference
// tables. The reference tables are data, not code: deployments point
// GROWTH_REFERENCE_PATH at a JSON file carrying the published LMS rows.
package growth

import (
	"errors"
	"fmt"
	"math"
)

// Sex of the measured child, as recorded in the patient registry.
type Sex string

const (
	Male   Sex = "M"
	Female Sex = "F"
)

// Indicator names the supported z-score tables.
const (
	IndicatorWeightForAge    = "wfa"
	IndicatorLengthForAge    = "lhfa"
	IndicatorWeightForLength = "wfl"
	IndicatorWeightForHeight = "wfh"
)

// Plausibility limits for raw measurements. A value outside these bounds is
// a reporting mistake, not a clinical finding, and is rejected before any
// table lookup.
const (
	minWeightKG = 0.9
	maxWeightKG = 58.0
	minHeightCM = 38.0
	maxHeightCM = 150.0
)

// maxAgeMonths is the age span the WHO child growth standards cover. Unlike
// the measurement bounds it is not a plausibility check: age comes from the
// patient registry, not the sender.
const maxAgeMonths = 60

// maxPlausibleZ bounds the computed score itself. Scores past this point
// mean the measurement cannot belong to the patient.
const maxPlausibleZ = 5.0

// ErrNoReference indicates the loaded reference tables carry no rows for
// the requested indicator, sex, or key. Callers treat this as "cannot
// analyze", not as a caller error.
var ErrNoReference = errors.New("no growth reference data")

// InvalidMeasurementError reports a measurement beyond reasonable limits.
// Its message is shown verbatim to the reporting health worker.
type InvalidMeasurementError struct {
	Indicator string
	Message   string
}

func (e *InvalidMeasurementError) Error() string { return e.Message }

// Calculator derives z-scores from raw measurements. Implementations must
// return *InvalidMeasurementError for implausible input and ErrNoReference
// when reference rows are missing.
type Calculator interface {
	// WeightForAge returns the weight-for-age z-score.
	WeightForAge(weight float64, ageMonths int, sex Sex) (float64, error)
	// LengthOrHeightForAge returns the length/height-for-age z-score.
	LengthOrHeightForAge(height float64, ageMonths int, sex Sex) (float64, error)
	// WeightForLength returns the weight-for-length z-score (age <= 24 months).
	WeightForLength(weight, length float64, ageMonths int, sex Sex) (float64, error)
	// WeightForHeight returns the weight-for-height z-score (age > 24 months).
	WeightForHeight(weight, height float64, ageMonths int, sex Sex) (float64, error)
}

// ---------------------------------------------------------------------------
// LMS calculator
// ---------------------------------------------------------------------------

// LMS computes z-scores with the LMS method over loaded reference tables.
type LMS struct {
	tables map[tableKey][]Row
}

type tableKey struct {
	indicator string
	sex       Sex
}

// NewLMS returns a calculator with no reference rows loaded. Every score
// request fails with ErrNoReference until tables are loaded.
func NewLMS() *LMS {
	return &LMS{tables: make(map[tableKey][]Row)}
}

// WeightForAge implements Calculator.
func (c *LMS) WeightForAge(weight float64, ageMonths int, sex Sex) (float64, error) {
	if err := checkWeight(weight); err != nil {
		return 0, err
	}
	if err := checkAge(ageMonths); err != nil {
		return 0, err
	}
	return c.score(IndicatorWeightForAge, sex, float64(ageMonths), weight)
}

// LengthOrHeightForAge implements Calculator.
func (c *LMS) LengthOrHeightForAge(height float64, ageMonths int, sex Sex) (float64, error) {
	if err := checkHeight(height); err != nil {
		return 0, err
	}
	if err := checkAge(ageMonths); err != nil {
		return 0, err
	}
	return c.score(IndicatorLengthForAge, sex, float64(ageMonths), height)
}

// WeightForLength implements Calculator.
func (c *LMS) WeightForLength(weight, length float64, ageMonths int, sex Sex) (float64, error) {
	if err := checkWeight(weight); err != nil {
		return 0, err
	}
	if err := checkHeight(length); err != nil {
		return 0, err
	}
	if err := checkAge(ageMonths); err != nil {
		return 0, err
	}
	return c.score(IndicatorWeightForLength, sex, length, weight)
}

// WeightForHeight implements Calculator.
func (c *LMS) WeightForHeight(weight, height float64, ageMonths int, sex Sex) (float64, error) {
	if err := checkWeight(weight); err != nil {
		return 0, err
	}
	if err := checkHeight(height); err != nil {
		return 0, err
	}
	if err := checkAge(ageMonths); err != nil {
		return 0, err
	}
	return c.score(IndicatorWeightForHeight, sex, height, weight)
}

// score interpolates the L, M, S parameters at key and applies the LMS
// formula with the WHO restricted adjustment beyond +/-3 SD.
func (c *LMS) score(indicator string, sex Sex, key, measurement float64) (float64, error) {
	l, m, s, err := c.lookup(indicator, sex, key)
	if err != nil {
		return 0, err
	}

	var z float64
	if l == 0 {
		z = math.Log(measurement/m) / s
	} else {
		z = (math.Pow(measurement/m, l) - 1) / (l * s)
	}

	// WHO restricted application: beyond 3 SD the curve is extended
	// linearly using the distance between the 2 SD and 3 SD cutoffs.
	if z > 3 {
		sd3 := cutoff(l, m, s, 3)
		sd2 := cutoff(l, m, s, 2)
		z = 3 + (measurement-sd3)/(sd3-sd2)
	} else if z < -3 {
		sd3 := cutoff(l, m, s, -3)
		sd2 := cutoff(l, m, s, -2)
		z = -3 - (sd3-measurement)/(sd2-sd3)
	}

	if math.Abs(z) > maxPlausibleZ {
		return 0, &InvalidMeasurementError{
			Indicator: indicator,
			Message:   fmt.Sprintf("%s z-score %.1f is beyond reasonable limits", indicator, z),
		}
	}
	return round2(z), nil
}

// lookup returns the interpolated L, M, S parameters at key.
func (c *LMS) lookup(indicator string, sex Sex, key float64) (l, m, s float64, err error) {
	rows := c.tables[tableKey{indicator: indicator, sex: sex}]
	if len(rows) == 0 {
		return 0, 0, 0, ErrNoReference
	}
	if key < rows[0].Key || key > rows[len(rows)-1].Key {
		return 0, 0, 0, fmt.Errorf("%w: %s key %.1f outside table range", ErrNoReference, indicator, key)
	}

	for i := range rows {
		if rows[i].Key == key {
			return rows[i].L, rows[i].M, rows[i].S, nil
		}
		if rows[i].Key > key {
			lo, hi := rows[i-1], rows[i]
			t := (key - lo.Key) / (hi.Key - lo.Key)
			return lo.L + t*(hi.L-lo.L), lo.M + t*(hi.M-lo.M), lo.S + t*(hi.S-lo.S), nil
		}
	}
	last := rows[len(rows)-1]
	return last.L, last.M, last.S, nil
}

func cutoff(l, m, s, sd float64) float64 {
	if l == 0 {
		return m * math.Exp(s*sd)
	}
	return m * math.Pow(1+l*s*sd, 1/l)
}

func checkWeight(w float64) error {
	if w < minWeightKG || w > maxWeightKG {
		return &InvalidMeasurementError{
			Indicator: "weight",
			Message:   fmt.Sprintf("weight %.1f kg is beyond reasonable limits", w),
		}
	}
	return nil
}

func checkHeight(h float64) error {
	if h < minHeightCM || h > maxHeightCM {
		return &InvalidMeasurementError{
			Indicator: "height",
			Message:   fmt.Sprintf("height %.1f cm is beyond reasonable limits", h),
		}
	}
	return nil
}

// checkAge guards the reference-table domain. A child outside it has no
// reference rows, the same condition as a missing table, so the report is
// stored unanalyzed rather than rejected.
func checkAge(months int) error {
	if months < 0 || months > maxAgeMonths {
		return fmt.Errorf("%w: age %d months outside the reference range", ErrNoReference, months)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
