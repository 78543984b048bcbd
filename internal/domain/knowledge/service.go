package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const DefaultSearchLimit = 5

type Service struct {
	entries Repository
	log     zerolog.Logger
}

func NewService(entries Repository, log zerolog.Logger) *Service {
	return &Service{entries: entries, log: log}
}

// Add inserts the entry into the primary store, then refreshes the
// full-text index for it. An index write failure is logged and swallowed:
// the entry stays retrievable via the substring fallback, and availability
// wins over index completeness. Only the store write is fatal.
func (s *Service) Add(ctx context.Context, e *Entry) error {
	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Content) == "" {
		return fmt.Errorf("title and content are required")
	}
	if e.RelevanceScore < 0 || e.RelevanceScore > 1 {
		return fmt.Errorf("relevance_score must be in [0,1]")
	}
	if err := s.entries.Insert(ctx, e); err != nil {
		return fmt.Errorf("inserting knowledge entry: %w", err)
	}
	if err := s.entries.UpdateSearchIndex(ctx, e.ID); err != nil {
		s.log.Warn().Err(err).Int64("entry_id", e.ID).Msg("failed to update knowledge search index")
	}
	return nil
}

// Search tokenizes the query on whitespace and runs a disjunctive
// full-text match, ordered by static relevance score. If the full-text
// path errors for any reason it degrades to a case-insensitive substring
// match of the whole raw query. Search never returns an infrastructure
// error; at worst it returns no results.
func (s *Service) Search(ctx context.Context, query string, limit int, category string) []*Entry {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	tokens := strings.Fields(query)
	if len(tokens) > 0 {
		results, err := s.entries.SearchFullText(ctx, tokens, category, limit)
		if err == nil {
			return results
		}
		s.log.Warn().Err(err).Str("query", query).Msg("full-text search failed, falling back to substring match")
	}

	results, err := s.entries.SearchSubstring(ctx, query, category, limit)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("substring search failed")
		return nil
	}
	return results
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.entries.Count(ctx)
}
