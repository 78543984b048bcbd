package settings

import (
	"context"
	"errors"
	"fmt"
)

type Service struct {
	store Repository
}

func NewService(store Repository) *Service {
	return &Service{store: store}
}

// Get returns the stored settings for a category, falling back to the
// built-in defaults when nothing has been written yet.
func (s *Service) Get(ctx context.Context, category string) (*Setting, error) {
	if _, ok := Defaults[category]; !ok {
		return nil, fmt.Errorf("invalid settings category: %s", category)
	}
	setting, err := s.store.Get(ctx, category)
	if errors.Is(err, ErrNotFound) {
		return &Setting{Category: category, Value: copyMap(Defaults[category])}, nil
	}
	if err != nil {
		return nil, err
	}
	return setting, nil
}

// GetAll returns every category, with defaults filled in for unwritten ones.
func (s *Service) GetAll(ctx context.Context) (map[string]map[string]interface{}, error) {
	stored, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]map[string]interface{}, len(Defaults))
	for category, defaults := range Defaults {
		result[category] = copyMap(defaults)
	}
	for _, s := range stored {
		result[s.Category] = s.Value
	}
	return result, nil
}

// Update shallow-merges the given keys over the current category value.
func (s *Service) Update(ctx context.Context, category string, updates map[string]interface{}) (*Setting, error) {
	current, err := s.Get(ctx, category)
	if err != nil {
		return nil, err
	}
	for k, v := range updates {
		current.Value[k] = v
	}
	if err := s.store.Upsert(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
