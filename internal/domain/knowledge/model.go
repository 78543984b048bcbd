package knowledge

import "time"

// Entry maps to the medical_knowledge table. Entries are immutable once
// ingested; relevance_score is a static authority weight in [0,1] set at
// ingestion time and used for result ordering.
type Entry struct {
	ID             int64     `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Content        string    `db:"content" json:"content"`
	Category       *string   `db:"category" json:"category,omitempty"`
	Keywords       []string  `db:"keywords" json:"keywords"`
	Source         *string   `db:"source" json:"source,omitempty"`
	RelevanceScore float64   `db:"relevance_score" json:"relevance_score"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
