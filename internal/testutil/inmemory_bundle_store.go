package testutil

import (
	"context"

	"github.com/openroam/pricing/internal/domain/bundle"
	"github.com/samber/lo"
)

// InMemoryBundleStore implements bundle.Repository
type InMemoryBundleStore struct {
	*InMemoryStore[*bundle.Bundle]
}

// NewInMemoryBundleStore creates a new in-memory bundle store
func NewInMemoryBundleStore() *InMemoryBundleStore {
	return &InMemoryBundleStore{InMemoryStore: NewInMemoryStore[*bundle.Bundle]()}
}

// Add stores a catalog bundle.
func (s *InMemoryBundleStore) Add(b *bundle.Bundle) {
	s.Set(b.ID, b)
}

func (s *InMemoryBundleStore) FindBundles(ctx context.Context, filter *bundle.Filter) ([]*bundle.Bundle, error) {
	return lo.Filter(s.List(), func(b *bundle.Bundle, _ int) bool {
		if filter.GroupName != "" && b.GroupName != filter.GroupName {
			return false
		}
		if filter.Region != "" && b.Region != filter.Region {
			return false
		}
		if filter.Country != "" && !lo.Contains(b.Countries, filter.Country) {
			return false
		}
		return true
	}), nil
}
