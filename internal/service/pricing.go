package service

import (
	"context"
	"time"

	"github.com/openroam/pricing/internal/api/dto"
	"github.com/openroam/pricing/internal/domain/bundle"
	"github.com/openroam/pricing/internal/domain/coupon"
	"github.com/openroam/pricing/internal/domain/rule"
	"github.com/openroam/pricing/internal/engine"
	"github.com/openroam/pricing/internal/types"
)

// PricingService is the engine's entry point: it computes the final sale
// price of a data bundle from a base cost through the loaded rule set.
type PricingService interface {
	CalculatePricing(ctx context.Context, req *dto.CalculatePricingRequest) (*dto.PricingResponse, error)
}

type pricingService struct {
	ServiceParams
	ruleLoader RuleLoaderService
	discount   DiscountService
}

// NewPricingService creates a new pricing service
func NewPricingService(params ServiceParams) PricingService {
	return &pricingService{
		ServiceParams: params,
		ruleLoader:    NewRuleLoaderService(params),
		discount:      NewDiscountService(params),
	}
}

func (s *pricingService) CalculatePricing(ctx context.Context, req *dto.CalculatePricingRequest) (*dto.PricingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	facts := req.ToRequestFacts()
	log := s.Logger.WithContext(ctx)

	rules, err := s.loadRules(ctx, facts.StrategyID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.BundleRepo.FindBundles(ctx, &bundle.Filter{
		GroupName: facts.Group,
		Region:    facts.Region,
		Country:   facts.Country,
	})
	if err != nil {
		return nil, err
	}

	almanac := s.seedAlmanac(facts, catalog)

	registry := engine.NewRegistry(rules, log)
	events, err := registry.Evaluate(ctx, almanac)
	if err != nil {
		return nil, err
	}

	pipeline := engine.NewPipeline(&s.Config.Pricing, log)
	trace, err := pipeline.Process(ctx, events, almanac, facts.PaymentMethod)
	if err != nil {
		return nil, err
	}

	selectedValue, err := almanac.FactValue(ctx, engine.FactSelectedBundle)
	if err != nil {
		return nil, err
	}
	selected := selectedValue.(*bundle.Bundle)
	unusedDays := selected.ValidityDays - facts.RequestedDays

	s.recordCouponUsage(ctx, facts, trace)

	return &dto.PricingResponse{
		SelectedBundle: selected,
		RequestedDays:  facts.RequestedDays,
		UnusedDays:     unusedDays,
		IsExactMatch:   unusedDays == 0,
		Pricing:        engine.AssembleBreakdown(trace, unusedDays, selected.Currency),
		AppliedRules:   trace.AppliedRules,
	}, nil
}

func (s *pricingService) loadRules(ctx context.Context, strategyID string) ([]*rule.Rule, error) {
	if strategyID != "" {
		return s.ruleLoader.LoadStrategyRules(ctx, strategyID)
	}
	return s.ruleLoader.LoadDefaultRules(ctx)
}

// seedAlmanac registers the request, bundle-selection and discount facts for
// one pricing computation. Discount resolution is a lazy fact so rules that
// never reference it cost no lookups.
func (s *pricingService) seedAlmanac(facts *types.RequestFacts, catalog []*bundle.Bundle) *engine.Almanac {
	almanac := engine.NewAlmanac(s.Logger)

	engine.RegisterRequestFacts(almanac, facts, time.Now())
	engine.RegisterBundleFacts(almanac, catalog, facts.RequestedDays)

	almanac.AddResolver(engine.FactResolvedDiscount, func(ctx context.Context, a *engine.Almanac) (any, error) {
		return s.discount.ResolveDiscount(ctx, facts)
	})

	return almanac
}

// recordCouponUsage logs a successful coupon application with nonzero impact.
// Fire-and-forget: it never blocks or fails the pricing result.
func (s *pricingService) recordCouponUsage(ctx context.Context, facts *types.RequestFacts, trace *engine.Trace) {
	applied := trace.Discount
	if applied == nil || applied.Source != types.DiscountSourceCoupon || applied.DiscountAmount.IsZero() {
		return
	}

	s.discount.LogCouponUsage(ctx, &coupon.Usage{
		ID:               types.GenerateULID(),
		CouponID:         applied.CouponID,
		UserID:           facts.UserID,
		OriginalAmount:   applied.OriginalAmount,
		DiscountAmount:   applied.DiscountAmount,
		DiscountedAmount: applied.DiscountedAmount,
		CreatedAt:        time.Now().UTC(),
	})
}
