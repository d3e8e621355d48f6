package rule

import "context"

// Repository defines the interface to the persisted rule definitions
type Repository interface {
	// ListActiveBlocks returns the active blocks of the default rule set
	ListActiveBlocks(ctx context.Context) ([]*Block, error)

	// ListStrategyBlocks returns the blocks bound to a named strategy,
	// carrying strategy priorities and per-block overrides
	ListStrategyBlocks(ctx context.Context, strategyID string) ([]*StrategyBlock, error)
}
