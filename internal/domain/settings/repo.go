package settings

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for categories never written.
var ErrNotFound = errors.New("settings category not found")

type Repository interface {
	Get(ctx context.Context, category string) (*Setting, error)
	GetAll(ctx context.Context) ([]*Setting, error)
	Upsert(ctx context.Context, s *Setting) error
}
