package queryhistory

import (
	"context"
	"fmt"
	"strings"
)

const DefaultListLimit = 50

type Service struct {
	entries Repository
}

func NewService(entries Repository) *Service {
	return &Service{entries: entries}
}

// Append records one query/response transaction. Callers that must not
// fail their own response on a logging error are expected to swallow and
// log the returned error themselves.
func (s *Service) Append(ctx context.Context, e *Entry) error {
	if strings.TrimSpace(e.Query) == "" {
		return fmt.Errorf("query is required")
	}
	if e.Response == "" {
		return fmt.Errorf("response is required")
	}
	if e.ContextType == "" {
		return fmt.Errorf("context_type is required")
	}
	return s.entries.Append(ctx, e)
}

// List returns the most recent entries, optionally scoped to a patient.
func (s *Service) List(ctx context.Context, limit int, patientID *int64) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.entries.List(ctx, limit, patientID)
}
