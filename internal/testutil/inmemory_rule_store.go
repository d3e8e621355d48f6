package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/openroam/pricing/internal/domain/rule"
	ierr "github.com/openroam/pricing/internal/errors"
)

// InMemoryRuleStore implements rule.Repository and counts list calls so
// cache behavior is observable in tests.
type InMemoryRuleStore struct {
	mu             sync.Mutex
	blocks         []*rule.Block
	strategyBlocks map[string][]*rule.StrategyBlock

	ListCalls int

	// ForceListError makes listing fail, for testing fatal rule-load paths.
	ForceListError bool

	// ListDelay slows listing down so tests can overlap concurrent loads.
	ListDelay time.Duration
}

// NewInMemoryRuleStore creates a new in-memory rule store
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{strategyBlocks: make(map[string][]*rule.StrategyBlock)}
}

// SetBlocks replaces the default rule block set.
func (s *InMemoryRuleStore) SetBlocks(blocks []*rule.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = blocks
}

// SetStrategyBlocks replaces the blocks bound to a strategy.
func (s *InMemoryRuleStore) SetStrategyBlocks(strategyID string, blocks []*rule.StrategyBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strategyBlocks[strategyID] = blocks
}

func (s *InMemoryRuleStore) ListActiveBlocks(ctx context.Context) ([]*rule.Block, error) {
	if s.ListDelay > 0 {
		time.Sleep(s.ListDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ListCalls++
	if s.ForceListError {
		return nil, ierr.NewError("rule store unreachable").Mark(ierr.ErrDatabase)
	}

	out := make([]*rule.Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *InMemoryRuleStore) ListStrategyBlocks(ctx context.Context, strategyID string) ([]*rule.StrategyBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ListCalls++
	if s.ForceListError {
		return nil, ierr.NewError("rule store unreachable").Mark(ierr.ErrDatabase)
	}

	blocks, ok := s.strategyBlocks[strategyID]
	if !ok {
		return nil, ierr.NewErrorf("strategy not found: %s", strategyID).
			Mark(ierr.ErrNotFound)
	}
	return blocks, nil
}
