package queryhistory

import "time"

// Entry maps to the query_history table. Rows are append-only: the
// service never updates or deletes them.
type Entry struct {
	ID               int64     `db:"id" json:"id"`
	Query            string    `db:"query" json:"query"`
	Response         string    `db:"response" json:"response"`
	ContextType      string    `db:"context_type" json:"context_type"`
	Confidence       *float64  `db:"confidence" json:"confidence,omitempty"`
	Sources          []string  `db:"sources" json:"sources"`
	PatientID        *int64    `db:"patient_id" json:"patient_id,omitempty"`
	QueryType        *string   `db:"query_type" json:"query_type,omitempty"`
	TokensUsed       *int      `db:"tokens_used" json:"tokens_used,omitempty"`
	ProcessingTimeMs *int64    `db:"processing_time_ms" json:"processing_time_ms,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
