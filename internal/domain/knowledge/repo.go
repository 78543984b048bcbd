package knowledge

import "context"

type Repository interface {
	// Insert writes the entry to the primary store and assigns its id.
	Insert(ctx context.Context, e *Entry) error
	// UpdateSearchIndex refreshes the full-text index row for an entry.
	UpdateSearchIndex(ctx context.Context, id int64) error
	// SearchFullText runs a disjunctive full-text match over the given
	// tokens, optionally restricted to a category.
	SearchFullText(ctx context.Context, tokens []string, category string, limit int) ([]*Entry, error)
	// SearchSubstring is the degraded path: case-insensitive substring
	// match of the whole raw query over title, content and keywords.
	SearchSubstring(ctx context.Context, raw string, category string, limit int) ([]*Entry, error)
	Count(ctx context.Context) (int, error)
}
