package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/openroam/pricing/internal/domain/rule"
	"github.com/openroam/pricing/internal/logger"
	"github.com/openroam/pricing/internal/types"
)

// Event is a rule's emitted event annotated with its origin, the unit the
// pipeline folds. Params referencing fact paths are already resolved.
type Event struct {
	Type     types.PricingEventType
	Params   map[string]any
	RuleName string
	Priority int
}

// Registry holds the snapshot of rules active for one request, ordered by
// descending priority with stable ties.
type Registry struct {
	rules []*rule.Rule
	log   *logger.Logger
}

// NewRegistry creates a registry over a rule snapshot.
func NewRegistry(rules []*rule.Rule, log *logger.Logger) *Registry {
	ordered := make([]*rule.Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return &Registry{rules: ordered, log: log}
}

// Rules returns the ordered rule snapshot.
func (r *Registry) Rules() []*rule.Rule {
	return r.rules
}

// Evaluate runs every rule's conditions against the almanac and collects the
// events of all matching rules. Priority orders the returned events; it never
// suppresses a match.
func (r *Registry) Evaluate(ctx context.Context, almanac *Almanac) ([]Event, error) {
	events := make([]Event, 0, len(r.rules))

	for _, rl := range r.rules {
		matched, err := EvaluateCondition(ctx, rl.Conditions, almanac)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}

		params, err := resolveParams(ctx, almanac, rl.Event.Params)
		if err != nil {
			return nil, err
		}

		events = append(events, Event{
			Type:     rl.Event.Type,
			Params:   params,
			RuleName: rl.Name,
			Priority: rl.Priority,
		})
	}

	return events, nil
}

// resolveParams substitutes "$.fact.path" string params with the referenced
// fact value. The first path segment names the fact, the rest drill into it.
func resolveParams(ctx context.Context, almanac *Almanac, params map[string]any) (map[string]any, error) {
	if len(params) == 0 {
		return nil, nil
	}

	resolved := make(map[string]any, len(params))
	for key, value := range params {
		out, err := resolveParamValue(ctx, almanac, value)
		if err != nil {
			return nil, err
		}
		resolved[key] = out
	}
	return resolved, nil
}

func resolveParamValue(ctx context.Context, almanac *Almanac, value any) (any, error) {
	switch v := value.(type) {
	case string:
		if !strings.HasPrefix(v, "$.") {
			return v, nil
		}
		segments := strings.SplitN(strings.TrimPrefix(v, "$."), ".", 2)
		factValue, err := almanac.FactValue(ctx, segments[0])
		if err != nil {
			return nil, err
		}
		if len(segments) == 1 {
			return factValue, nil
		}
		resolved, ok := resolvePath(factValue, segments[1])
		if !ok {
			return nil, nil
		}
		return resolved, nil
	case map[string]any:
		return resolveParams(ctx, almanac, v)
	default:
		return value, nil
	}
}
