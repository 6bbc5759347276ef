package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. SourceID is the identifier health
// workers text in reports; it is unique only within its Source, the
// registry namespace the deployment reports against (PATIENT_SOURCE).
type Patient struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Source    string     `db:"source" json:"source"`
	SourceID  string     `db:"source_id" json:"source_id"`
	Name      *string    `db:"name" json:"name,omitempty"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Sex       *string    `db:"sex" json:"sex,omitempty"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// DisplayName returns the patient's name, falling back to the source ID.
func (p *Patient) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return p.SourceID
}

// AgeMonths returns the patient's age at the given time, rounded down to
// the nearest full month, or false when the birth date is unknown.
func (p *Patient) AgeMonths(at time.Time) (int, bool) {
	if p.BirthDate == nil {
		return 0, false
	}
	diff := at.Sub(*p.BirthDate)
	if diff < 0 {
		return 0, false
	}
	return int(diff.Hours() / 24 / 30.475), true
}
