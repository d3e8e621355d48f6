package engine

import (
	"context"

	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/logger"
)

// FactResolver lazily computes a fact value. Resolvers may read other facts
// through the almanac, so facts form a DAG.
type FactResolver func(ctx context.Context, a *Almanac) (any, error)

// Almanac lazily evaluates and memoizes named facts for one pricing request.
// It is not safe for concurrent use and must not outlive its request.
type Almanac struct {
	log       *logger.Logger
	values    map[string]any
	resolvers map[string]FactResolver
	resolving map[string]bool
}

// NewAlmanac creates an empty almanac.
func NewAlmanac(log *logger.Logger) *Almanac {
	return &Almanac{
		log:       log,
		values:    make(map[string]any),
		resolvers: make(map[string]FactResolver),
		resolving: make(map[string]bool),
	}
}

// AddFact registers a constant fact value.
func (a *Almanac) AddFact(name string, value any) {
	a.values[name] = value
}

// AddResolver registers a lazily computed fact.
func (a *Almanac) AddResolver(name string, resolver FactResolver) {
	a.resolvers[name] = resolver
}

// HasFact reports whether a fact name is registered.
func (a *Almanac) HasFact(name string) bool {
	if _, ok := a.values[name]; ok {
		return true
	}
	_, ok := a.resolvers[name]
	return ok
}

// FactValue returns the memoized value of a fact, computing it on first use.
// Unknown facts and failing resolvers are errors; a fact value of nil is not.
func (a *Almanac) FactValue(ctx context.Context, name string) (any, error) {
	if value, ok := a.values[name]; ok {
		return value, nil
	}

	resolver, ok := a.resolvers[name]
	if !ok {
		return nil, ierr.NewErrorf("unknown fact: %s", name).
			WithHint("Fact was never registered for this request").
			WithReportableDetails(map[string]any{"fact": name}).
			Mark(ierr.ErrNotFound)
	}

	if a.resolving[name] {
		return nil, ierr.NewErrorf("fact cycle detected at: %s", name).
			WithHint("Fact resolvers must form a DAG").
			Mark(ierr.ErrInvalidOperation)
	}

	a.resolving[name] = true
	value, err := resolver(ctx, a)
	delete(a.resolving, name)

	if err != nil {
		// Preserve already-classified errors (e.g. bundle not found)
		if ierr.IsNotFound(err) || ierr.IsValidation(err) {
			return nil, err
		}
		return nil, ierr.WithError(err).
			WithMessagef("fact computation failed: %s", name).
			WithHint("A fact resolver returned an error").
			WithReportableDetails(map[string]any{"fact": name}).
			Mark(ierr.ErrSystem)
	}

	a.values[name] = value
	return value, nil
}
