package growth

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Row is a single LMS reference row. Key is age in months for the
// age-keyed tables (wfa, lhfa) and length/height in cm for the
// length-keyed tables (wfl, wfh).
type Row struct {
	Key float64 `json:"key"`
	L   float64 `json:"l"`
	M   float64 `json:"m"`
	S   float64 `json:"s"`
}

// Table groups the rows for one indicator and sex.
type Table struct {
	Indicator string `json:"indicator"`
	Sex       Sex    `json:"sex"`
	Rows      []Row  `json:"rows"`
}

type referenceFile struct {
	Tables []Table `json:"tables"`
}

// Load reads LMS reference tables from r and merges them into the
// calculator. Rows are sorted by key; a table loaded twice replaces the
// earlier rows.
func (c *LMS) Load(r io.Reader) error {
	var ref referenceFile
	if err := json.NewDecoder(r).Decode(&ref); err != nil {
		return fmt.Errorf("decode growth reference: %w", err)
	}
	for _, t := range ref.Tables {
		if t.Sex != Male && t.Sex != Female {
			return fmt.Errorf("growth reference table %q: unknown sex %q", t.Indicator, t.Sex)
		}
		switch t.Indicator {
		case IndicatorWeightForAge, IndicatorLengthForAge, IndicatorWeightForLength, IndicatorWeightForHeight:
		default:
			return fmt.Errorf("growth reference: unknown indicator %q", t.Indicator)
		}
		rows := make([]Row, len(t.Rows))
		copy(rows, t.Rows)
		sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
		c.tables[tableKey{indicator: t.Indicator, sex: t.Sex}] = rows
	}
	return nil
}

// LoadFile loads reference tables from a JSON file on disk.
func (c *LMS) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open growth reference: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}
