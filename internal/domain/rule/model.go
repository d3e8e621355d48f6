package rule

import (
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/types"
	"github.com/samber/lo"
)

// Operator is a leaf comparison operator in a condition tree.
type Operator string

const (
	OperatorEqual                Operator = "equal"
	OperatorNotEqual             Operator = "notEqual"
	OperatorGreaterThan          Operator = "greaterThan"
	OperatorLessThan             Operator = "lessThan"
	OperatorGreaterThanInclusive Operator = "greaterThanInclusive"
	OperatorLessThanInclusive    Operator = "lessThanInclusive"
	OperatorIn                   Operator = "in"
	OperatorNotIn                Operator = "notIn"
	OperatorContains             Operator = "contains"
	OperatorExists               Operator = "exists"
	OperatorNotExists            Operator = "notExists"
	OperatorBetween              Operator = "between"
)

func (o Operator) Validate() error {
	allowed := []Operator{
		OperatorEqual, OperatorNotEqual,
		OperatorGreaterThan, OperatorLessThan,
		OperatorGreaterThanInclusive, OperatorLessThanInclusive,
		OperatorIn, OperatorNotIn, OperatorContains,
		OperatorExists, OperatorNotExists, OperatorBetween,
	}
	if lo.Contains(allowed, o) {
		return nil
	}
	return ierr.NewErrorf("unknown condition operator: %s", o).
		WithHint("Condition operator is not supported").
		Mark(ierr.ErrValidation)
}

// Condition is one node of a boolean condition tree. A node is either a
// combinator (exactly one of All, Any, Not set) or a leaf (Fact + Operator).
// Rule definitions are stored as JSON, so the union is expressed through
// optional fields rather than an interface.
type Condition struct {
	All []*Condition `json:"all,omitempty"`
	Any []*Condition `json:"any,omitempty"`
	Not *Condition   `json:"not,omitempty"`

	Fact     string   `json:"fact,omitempty"`
	Path     string   `json:"path,omitempty"`
	Operator Operator `json:"operator,omitempty"`
	Value    any      `json:"value,omitempty"`
}

// IsLeaf reports whether the node is a leaf comparison.
func (c *Condition) IsLeaf() bool {
	return c.All == nil && c.Any == nil && c.Not == nil
}

// Validate checks the tree is well formed.
func (c *Condition) Validate() error {
	if c == nil {
		return nil
	}
	if !c.IsLeaf() {
		set := 0
		if c.All != nil {
			set++
		}
		if c.Any != nil {
			set++
		}
		if c.Not != nil {
			set++
		}
		if set > 1 {
			return ierr.NewError("condition combinators are mutually exclusive").
				WithHint("A condition node may set only one of all, any, not").
				Mark(ierr.ErrValidation)
		}
		children := c.All
		if c.Any != nil {
			children = c.Any
		}
		if c.Not != nil {
			children = []*Condition{c.Not}
		}
		for _, child := range children {
			if err := child.Validate(); err != nil {
				return err
			}
		}
		return nil
	}

	if c.Fact == "" {
		return ierr.NewError("leaf condition requires a fact").
			WithHint("Leaf conditions must name a fact").
			Mark(ierr.ErrValidation)
	}
	return c.Operator.Validate()
}

// Event is the typed signal a matched rule emits, consumed by the pipeline
// stage of the same type.
type Event struct {
	Type   types.PricingEventType `json:"type"`
	Params map[string]any         `json:"params,omitempty"`
}

// Rule pairs a condition tree with an event template. Rules are immutable
// once loaded; a request's rule set is a snapshot.
type Rule struct {
	Name       string     `json:"name"`
	Priority   int        `json:"priority"`
	Conditions *Condition `json:"conditions,omitempty"`
	Event      Event      `json:"event"`
}

// Validate validates the rule
func (r *Rule) Validate() error {
	if r.Name == "" {
		return ierr.NewError("rule name is required").Mark(ierr.ErrValidation)
	}
	if err := r.Event.Type.Validate(); err != nil {
		return err
	}
	return r.Conditions.Validate()
}

// Block is the persisted definition a rule is constructed from.
type Block struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	EventType       types.PricingEventType `json:"event_type"`
	Conditions      *Condition             `json:"conditions,omitempty"`
	Params          map[string]any         `json:"params,omitempty"`
	DefaultPriority int                    `json:"default_priority"`
	IsActive        bool                   `json:"is_active"`
	types.BaseModel
}

// StrategyBlock binds a block into a named strategy with a strategy-specific
// priority and per-block parameter overrides.
type StrategyBlock struct {
	Block           *Block         `json:"block"`
	Priority        int            `json:"priority"`
	ConfigOverrides map[string]any `json:"config_overrides,omitempty"`
}

// Strategy is a named, versioned bundle of rule blocks selectable per request.
type Strategy struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version int    `json:"version"`
	types.BaseModel
}
