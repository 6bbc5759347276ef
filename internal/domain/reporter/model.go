package reporter

import (
	"time"

	"github.com/google/uuid"
)

// Reporter maps to the reporters table. Connection is the messaging
// identity (usually a phone number) the gateway reports as the sender.
type Reporter struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Connection string    `db:"connection" json:"connection"`
	Name       *string   `db:"name" json:"name,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName returns the reporter's name, falling back to the connection.
func (r *Reporter) DisplayName() string {
	if r.Name != nil && *r.Name != "" {
		return *r.Name
	}
	return r.Connection
}
