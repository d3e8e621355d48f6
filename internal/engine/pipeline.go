package engine

import (
	"context"
	"strconv"

	"github.com/openroam/pricing/internal/config"
	"github.com/openroam/pricing/internal/domain/bundle"
	"github.com/openroam/pricing/internal/domain/coupon"
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/logger"
	"github.com/openroam/pricing/internal/types"
	"github.com/shopspring/decimal"
)

// AppliedRule is one audit-trail entry recording a stage's price impact.
type AppliedRule struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Category types.RuleCategory `json:"category"`
	Impact   decimal.Decimal    `json:"impact"`
	Note     string             `json:"note,omitempty"`
}

// DiscountApplication captures the applied general discount so the caller
// can record coupon usage after pricing completes.
type DiscountApplication struct {
	Source           types.DiscountSource
	CouponID         string
	OriginalAmount   decimal.Decimal
	DiscountAmount   decimal.Decimal
	DiscountedAmount decimal.Decimal
}

// Trace is the result of folding all emitted events through the pipeline.
type Trace struct {
	BaseCost     decimal.Decimal
	FinalPrice   decimal.Decimal
	AppliedRules []AppliedRule
	Discount     *DiscountApplication

	stageImpacts map[types.PricingEventType]decimal.Decimal
}

// StageImpact returns the summed price delta a stage contributed.
func (t *Trace) StageImpact(stage types.PricingEventType) decimal.Decimal {
	return t.stageImpacts[stage]
}

// Pipeline folds matched-rule events into a running price in the canonical
// stage order. Events are grouped by type first: the order rules fired in
// never changes cross-stage sequencing, only the pool within one stage.
type Pipeline struct {
	cfg *config.PricingConfig
	log *logger.Logger
}

// NewPipeline creates a pipeline with the given pricing policy.
func NewPipeline(cfg *config.PricingConfig, log *logger.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log}
}

type pipelineState struct {
	price   decimal.Decimal
	almanac *Almanac
	method  types.PaymentMethod
	trace   *Trace
}

// Process folds the emitted events into a final price and audit trail.
func (p *Pipeline) Process(ctx context.Context, events []Event, almanac *Almanac, method types.PaymentMethod) (*Trace, error) {
	// Ordered multimap: events grouped per stage, emission (priority) order
	// preserved within each pool.
	pools := make(map[types.PricingEventType][]Event, len(types.PipelineStageOrder))
	for _, event := range events {
		pools[event.Type] = append(pools[event.Type], event)
	}

	state := &pipelineState{
		price:   decimal.Zero,
		almanac: almanac,
		method:  method,
		trace: &Trace{
			AppliedRules: []AppliedRule{},
			stageImpacts: make(map[types.PricingEventType]decimal.Decimal),
		},
	}

	for _, stage := range types.PipelineStageOrder {
		pool := pools[stage]
		if len(pool) == 0 {
			continue
		}
		if err := p.processStage(ctx, state, stage, pool); err != nil {
			return nil, err
		}
	}

	state.trace.FinalPrice = state.price
	return state.trace, nil
}

func (p *Pipeline) processStage(ctx context.Context, state *pipelineState, stage types.PricingEventType, pool []Event) error {
	switch stage {
	case types.EventSetBasePrice:
		return p.setBasePrice(ctx, state, p.singleton(stage, pool))
	case types.EventApplyMarkup:
		return p.applyMarkup(ctx, state, pool)
	case types.EventApplyUnusedDaysDiscount:
		return p.applyUnusedDaysDiscount(ctx, state, p.singleton(stage, pool))
	case types.EventApplyDiscount:
		return p.applyDiscount(ctx, state, p.singleton(stage, pool))
	case types.EventApplyProfitConstraint:
		return p.applyProfitConstraint(ctx, state, p.singleton(stage, pool))
	case types.EventApplyProcessingFee:
		return p.applyProcessingFee(ctx, state, p.singleton(stage, pool))
	case types.EventApplyPsychologicalRounding:
		return p.applyPsychologicalRounding(ctx, state, p.singleton(stage, pool))
	default:
		return ierr.NewErrorf("unknown pipeline stage: %s", stage).Mark(ierr.ErrInvalidOperation)
	}
}

// singleton picks the highest-priority event for stages where applying more
// than one would double-count. The pool is already priority ordered.
func (p *Pipeline) singleton(stage types.PricingEventType, pool []Event) Event {
	if len(pool) > 1 {
		p.log.Warnw("multiple events for single-event stage, using highest priority",
			"stage", stage,
			"winner", pool[0].RuleName,
			"skipped", len(pool)-1,
		)
	}
	return pool[0]
}

func (s *pipelineState) record(event Event, impact decimal.Decimal, note string) {
	s.trace.AppliedRules = append(s.trace.AppliedRules, AppliedRule{
		ID:       types.GenerateULID(),
		Name:     event.RuleName,
		Category: types.CategoryForEvent(event.Type),
		Impact:   impact,
		Note:     note,
	})
	s.trace.stageImpacts[event.Type] = s.trace.stageImpacts[event.Type].Add(impact)
}

// setBasePrice seeds the running price with the selected (or, when the rule
// asks for it, the previous) bundle's provider cost.
func (p *Pipeline) setBasePrice(ctx context.Context, state *pipelineState, event Event) error {
	factName := FactSelectedBundle
	if source, ok := event.Params["source"].(string); ok && source == "previous" {
		factName = FactPreviousBundle
	}

	value, err := state.almanac.FactValue(ctx, factName)
	if err != nil {
		return err
	}

	selected, ok := value.(*bundle.Bundle)
	if !ok || selected == nil {
		// Previous bundle may be nil; fall back to the selected one
		fallback, err := state.almanac.FactValue(ctx, FactSelectedBundle)
		if err != nil {
			return err
		}
		selected = fallback.(*bundle.Bundle)
	}

	state.price = selected.Price
	state.trace.BaseCost = selected.Price
	state.record(event, selected.Price, "")
	return nil
}

// applyMarkup adds markup amounts from all contributing events, combined per
// the configured policy: summed, or only the largest applied.
func (p *Pipeline) applyMarkup(ctx context.Context, state *pipelineState, pool []Event) error {
	type contribution struct {
		event  Event
		amount decimal.Decimal
		note   string
	}

	contributions := make([]contribution, 0, len(pool))
	for _, event := range pool {
		amount, note, err := p.markupAmount(ctx, state, event)
		if err != nil {
			return err
		}
		contributions = append(contributions, contribution{event: event, amount: amount, note: note})
	}

	if p.cfg.MarkupPolicy == types.MarkupPolicyMax && len(contributions) > 1 {
		best := contributions[0]
		for _, c := range contributions[1:] {
			if c.amount.GreaterThan(best.amount) {
				best = c
			}
		}
		contributions = []contribution{best}
	}

	for _, c := range contributions {
		state.price = state.price.Add(c.amount)
		state.record(c.event, c.amount, c.note)
	}
	return nil
}

func (p *Pipeline) markupAmount(ctx context.Context, state *pipelineState, event Event) (decimal.Decimal, string, error) {
	if value, ok := toDecimal(event.Params["value"]); ok {
		return value, "", nil
	}

	matrix, ok := event.Params["matrix"].(map[string]any)
	if !ok {
		return decimal.Zero, "markup rule carries neither value nor matrix", nil
	}

	groupValue, err := state.almanac.FactValue(ctx, FactGroup)
	if err != nil {
		return decimal.Zero, "", err
	}
	selectedValue, err := state.almanac.FactValue(ctx, FactSelectedBundle)
	if err != nil {
		return decimal.Zero, "", err
	}

	group, _ := groupValue.(string)
	selected := selectedValue.(*bundle.Bundle)

	durations, ok := matrix[group].(map[string]any)
	if !ok {
		return decimal.Zero, "no markup configured for bundle group", nil
	}
	// Matrices are keyed by catalog validity days, so an upgrade selection
	// uses the sold bundle's entry, not the requested duration's
	amount, ok := toDecimal(durations[strconv.Itoa(selected.ValidityDays)])
	if !ok {
		return decimal.Zero, "no markup configured for bundle duration", nil
	}
	return amount, "", nil
}

// applyUnusedDaysDiscount compensates the customer for validity days beyond
// the requested duration. Only a share of the per-day rate is returned; the
// retention factor keeps part of the upgrade's value.
func (p *Pipeline) applyUnusedDaysDiscount(ctx context.Context, state *pipelineState, event Event) error {
	unusedValue, err := state.almanac.FactValue(ctx, FactUnusedDays)
	if err != nil {
		return err
	}
	exactValue, err := state.almanac.FactValue(ctx, FactIsExactMatch)
	if err != nil {
		return err
	}

	unusedDays := unusedValue.(int)
	if exactValue.(bool) || unusedDays <= 0 {
		state.record(event, decimal.Zero, "exact duration match, no unused days")
		return nil
	}

	rate, err := p.dailyRate(ctx, state)
	if err != nil {
		return err
	}

	retention := decimal.NewFromFloat(p.cfg.RetentionFactor)
	if v, ok := toDecimal(event.Params["retention_factor"]); ok {
		retention = v
	}

	discount := rate.Mul(decimal.NewFromInt(int64(unusedDays))).Mul(retention)
	if discount.GreaterThan(state.price) {
		discount = state.price
	}

	state.price = state.price.Sub(discount)
	state.record(event, discount.Neg(), "")
	return nil
}

// dailyRate is the marginal per-day value between the selected bundle and
// the next shorter one when it exists, else the selected bundle's flat rate.
func (p *Pipeline) dailyRate(ctx context.Context, state *pipelineState) (decimal.Decimal, error) {
	selectedValue, err := state.almanac.FactValue(ctx, FactSelectedBundle)
	if err != nil {
		return decimal.Zero, err
	}
	previousValue, err := state.almanac.FactValue(ctx, FactPreviousBundle)
	if err != nil {
		return decimal.Zero, err
	}

	selected := selectedValue.(*bundle.Bundle)
	previous, _ := previousValue.(*bundle.Bundle)

	if previous != nil && selected.ValidityDays > previous.ValidityDays {
		daySpan := decimal.NewFromInt(int64(selected.ValidityDays - previous.ValidityDays))
		return selected.Price.Sub(previous.Price).Div(daySpan), nil
	}
	return selected.DailyRate(), nil
}

// applyDiscount applies the single resolved general discount (coupon,
// corporate email or volume tier), honoring the minimum-spend gate and the
// maximum-discount cap.
func (p *Pipeline) applyDiscount(ctx context.Context, state *pipelineState, event Event) error {
	resolved, err := p.resolvedDiscount(ctx, state, event)
	if err != nil {
		return err
	}

	if resolved == nil || !resolved.Eligible {
		state.record(event, decimal.Zero, "no eligible discount")
		return nil
	}

	if resolved.MinSpend != nil && state.price.LessThan(*resolved.MinSpend) {
		state.record(event, decimal.Zero, "minimum spend not met")
		return nil
	}

	var amount decimal.Decimal
	switch resolved.DiscountType {
	case types.DiscountTypePercentage:
		amount = state.price.Mul(resolved.DiscountValue).Div(decimal.NewFromInt(100))
	case types.DiscountTypeFixedAmount:
		amount = resolved.DiscountValue
	default:
		state.record(event, decimal.Zero, "unknown discount type")
		return nil
	}

	if resolved.MaxDiscount != nil && amount.GreaterThan(*resolved.MaxDiscount) {
		amount = *resolved.MaxDiscount
	}
	if amount.GreaterThan(state.price) {
		amount = state.price
	}

	original := state.price
	state.price = state.price.Sub(amount)
	state.trace.Discount = &DiscountApplication{
		Source:           resolved.Source,
		CouponID:         resolved.CouponID,
		OriginalAmount:   original,
		DiscountAmount:   amount,
		DiscountedAmount: state.price,
	}
	state.record(event, amount.Neg(), string(resolved.Source))
	return nil
}

func (p *Pipeline) resolvedDiscount(ctx context.Context, state *pipelineState, event Event) (*coupon.ResolvedDiscount, error) {
	if source, ok := event.Params["source"].(*coupon.ResolvedDiscount); ok {
		return source, nil
	}
	if !state.almanac.HasFact(FactResolvedDiscount) {
		return nil, nil
	}
	value, err := state.almanac.FactValue(ctx, FactResolvedDiscount)
	if err != nil {
		return nil, err
	}
	resolved, _ := value.(*coupon.ResolvedDiscount)
	return resolved, nil
}

// applyProfitConstraint raises the price back to cost plus the minimum
// profit when discounts have eaten below the floor.
func (p *Pipeline) applyProfitConstraint(ctx context.Context, state *pipelineState, event Event) error {
	minProfit := decimal.NewFromFloat(p.cfg.DefaultMinimumProfit)
	if v, ok := toDecimal(event.Params["minimum_profit"]); ok {
		minProfit = v
	}

	floor := state.trace.BaseCost.Add(minProfit)
	if state.price.GreaterThanOrEqual(floor) {
		state.record(event, decimal.Zero, "profit floor already satisfied")
		return nil
	}

	delta := floor.Sub(state.price)
	state.price = floor
	state.record(event, delta, "raised to profit floor")
	return nil
}

// applyProcessingFee adds the payment-method-dependent processing fee.
func (p *Pipeline) applyProcessingFee(ctx context.Context, state *pipelineState, event Event) error {
	rate, ok := p.feeRate(event, state.method)
	if !ok {
		rate = decimal.NewFromFloat(p.cfg.ProcessingFeeRate(state.method))
	}

	fee := state.price.Mul(rate).Div(decimal.NewFromInt(100))
	state.price = state.price.Add(fee)
	state.record(event, fee, string(state.method))
	return nil
}

func (p *Pipeline) feeRate(event Event, method types.PaymentMethod) (decimal.Decimal, bool) {
	if rates, ok := event.Params["rates"].(map[string]any); ok {
		if rate, ok := toDecimal(rates[string(method)]); ok {
			return rate, true
		}
		if rate, ok := toDecimal(event.Params["default_rate"]); ok {
			return rate, true
		}
	}
	if rate, ok := toDecimal(event.Params["value"]); ok {
		return rate, true
	}
	return decimal.Zero, false
}

// applyPsychologicalRounding snaps the price to the configured pattern and
// records the rounding delta.
func (p *Pipeline) applyPsychologicalRounding(ctx context.Context, state *pipelineState, event Event) error {
	strategy := p.cfg.DefaultRounding
	if s, ok := event.Params["strategy"].(string); ok {
		strategy = types.RoundingStrategy(s)
	}

	rounded := RoundPrice(state.price, strategy)
	delta := rounded.Sub(state.price)
	state.price = rounded
	state.record(event, delta, string(strategy))
	return nil
}

// RoundPrice snaps a price to a psychological pattern.
func RoundPrice(price decimal.Decimal, strategy types.RoundingStrategy) decimal.Decimal {
	switch strategy {
	case types.RoundingNearestWhole:
		return price.Round(0)
	case types.RoundingNinetyNine:
		cents := decimal.NewFromFloat(0.99)
		return price.Sub(cents).Round(0).Add(cents)
	case types.RoundingNinetyFive:
		cents := decimal.NewFromFloat(0.95)
		return price.Sub(cents).Round(0).Add(cents)
	case types.RoundingNearestTenMinus1:
		one := decimal.NewFromInt(1)
		ten := decimal.NewFromInt(10)
		return price.Add(one).Div(ten).Round(0).Mul(ten).Sub(one)
	default:
		return price
	}
}
