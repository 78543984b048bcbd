package patient

import (
	"fmt"
	"time"
)

// Patient maps to the patients table.
type Patient struct {
	ID            int64     `db:"id" json:"id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	DOB           time.Time `db:"dob" json:"dob"`
	Gender        string    `db:"gender" json:"gender"`
	ContactNumber *string   `db:"contact_number" json:"contact_number,omitempty"`
	Email         *string   `db:"email" json:"email,omitempty"`
	Address       *string   `db:"address" json:"address,omitempty"`
	Conditions    []string  `db:"conditions" json:"conditions"`
	Medications   []string  `db:"medications" json:"medications"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns "First Last".
func (p *Patient) FullName() string {
	return fmt.Sprintf("%s %s", p.FirstName, p.LastName)
}

// AgeAt returns the patient's age in whole years at the given time.
func (p *Patient) AgeAt(now time.Time) int {
	years := now.Year() - p.DOB.Year()
	anniversary := p.DOB.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
