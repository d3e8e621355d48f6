package service

import (
	"context"

	"github.com/openroam/pricing/internal/cache"
	"github.com/openroam/pricing/internal/domain/rule"
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

const (
	ruleCacheKeyPrefix  = "pricing:rules:"
	ruleCacheKeyDefault = ruleCacheKeyPrefix + "default"
)

// RuleLoaderService loads rule definitions from persistent storage and
// serves TTL-bounded snapshots of them.
type RuleLoaderService interface {
	// LoadDefaultRules returns the default rule set
	LoadDefaultRules(ctx context.Context) ([]*rule.Rule, error)

	// LoadStrategyRules returns the rule set of a named strategy with
	// per-block overrides and strategy priorities applied
	LoadStrategyRules(ctx context.Context, strategyID string) ([]*rule.Rule, error)

	// ClearCache forces the next load to hit the rule store
	ClearCache(ctx context.Context)
}

type ruleLoaderService struct {
	ServiceParams
	group singleflight.Group
}

// NewRuleLoaderService creates a new rule loader service
func NewRuleLoaderService(params ServiceParams) RuleLoaderService {
	return &ruleLoaderService{ServiceParams: params}
}

func (s *ruleLoaderService) LoadDefaultRules(ctx context.Context) ([]*rule.Rule, error) {
	return s.getCachedRules(ctx, ruleCacheKeyDefault, func() ([]*rule.Rule, error) {
		blocks, err := s.RuleRepo.ListActiveBlocks(ctx)
		if err != nil {
			return nil, err
		}
		return s.buildRules(ctx, lo.Map(blocks, func(b *rule.Block, _ int) *rule.StrategyBlock {
			return &rule.StrategyBlock{Block: b, Priority: b.DefaultPriority}
		}))
	})
}

func (s *ruleLoaderService) LoadStrategyRules(ctx context.Context, strategyID string) ([]*rule.Rule, error) {
	if strategyID == "" {
		return s.LoadDefaultRules(ctx)
	}

	key := ruleCacheKeyPrefix + "strategy:" + strategyID
	return s.getCachedRules(ctx, key, func() ([]*rule.Rule, error) {
		blocks, err := s.RuleRepo.ListStrategyBlocks(ctx, strategyID)
		if err != nil {
			return nil, err
		}
		return s.buildRules(ctx, blocks)
	})
}

func (s *ruleLoaderService) ClearCache(ctx context.Context) {
	s.Cache.DeleteByPrefix(ctx, ruleCacheKeyPrefix)
	s.Logger.Infow("pricing rule cache cleared")
}

// getCachedRules serves the cached snapshot within its TTL; on miss or
// expiry a single reload proceeds per key while concurrent requests share
// its result, so no request ever observes a partially built rule set.
func (s *ruleLoaderService) getCachedRules(ctx context.Context, key string, load func() ([]*rule.Rule, error)) ([]*rule.Rule, error) {
	if value, found := s.Cache.Get(ctx, key); found {
		if rules, ok := cache.UnmarshalCacheValue[[]*rule.Rule](value); ok {
			return *rules, nil
		}
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		rules, err := load()
		if err != nil {
			return nil, err
		}
		snapshot := rules
		s.Cache.Set(ctx, key, &snapshot, s.Config.Pricing.RuleCacheTTL)
		return rules, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*rule.Rule), nil
}

// buildRules constructs immutable Rule values from persisted blocks,
// validating each block's params against its event-type schema.
func (s *ruleLoaderService) buildRules(ctx context.Context, blocks []*rule.StrategyBlock) ([]*rule.Rule, error) {
	log := s.Logger.WithContext(ctx)
	rules := make([]*rule.Rule, 0, len(blocks))

	for _, sb := range blocks {
		block := sb.Block
		if block == nil || !block.IsActive {
			continue
		}

		if err := block.EventType.Validate(); err != nil {
			if s.Config.Pricing.StrictRuleParams {
				return nil, err
			}
			log.Warnw("skipping rule block with unknown event type",
				"block", block.Name, "event_type", block.EventType)
			continue
		}

		params := block.Params
		if len(sb.ConfigOverrides) > 0 {
			params = lo.Assign(map[string]any{}, block.Params, sb.ConfigOverrides)
		}

		if err := rule.ValidateEventParams(block.EventType, params); err != nil {
			if s.Config.Pricing.StrictRuleParams {
				return nil, err
			}
			// Lenient policy: one malformed block must not abort pricing.
			// The raw params are used as-is and the pipeline copes.
			log.Warnw("rule block params failed validation, using raw params",
				"block", block.Name, "event_type", block.EventType, "error", err)
		}

		rules = append(rules, &rule.Rule{
			Name:       block.Name,
			Priority:   sb.Priority,
			Conditions: block.Conditions,
			Event:      rule.Event{Type: block.EventType, Params: params},
		})
	}

	if len(rules) == 0 {
		return nil, ierr.NewError("no active pricing rules available").
			WithHint("The rule store returned no usable rule blocks").
			Mark(ierr.ErrNotFound)
	}
	return rules, nil
}
