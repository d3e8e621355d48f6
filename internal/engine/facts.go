package engine

import (
	"context"
	"time"

	"github.com/openroam/pricing/internal/domain/bundle"
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/types"
	"github.com/samber/lo"
)

// Well-known fact names the default rule sets reference.
const (
	FactGroup            = "group"
	FactRequestedDays    = "requestedDays"
	FactCountry          = "country"
	FactRegion           = "region"
	FactPaymentMethod    = "paymentMethod"
	FactCouponCode       = "couponCode"
	FactHasCoupon        = "hasCoupon"
	FactUserEmail        = "userEmail"
	FactQuantity         = "quantity"
	FactNow              = "now"
	FactHourOfDay        = "hourOfDay"
	FactDayOfWeek        = "dayOfWeek"
	FactIsWeekend        = "isWeekend"
	FactAvailableBundles = "availableBundles"
	FactSelectedBundle   = "selectedBundle"
	FactPreviousBundle   = "previousBundle"
	FactUnusedDays       = "unusedDays"
	FactIsExactMatch     = "isExactMatch"
	FactResolvedDiscount = "resolvedDiscount"
)

// RegisterRequestFacts seeds the almanac with the caller-supplied request
// facts plus derived time/segment context facts.
func RegisterRequestFacts(a *Almanac, facts *types.RequestFacts, now time.Time) {
	a.AddFact(FactGroup, facts.Group)
	a.AddFact(FactRequestedDays, facts.RequestedDays)
	a.AddFact(FactCountry, facts.Country)
	a.AddFact(FactRegion, facts.Region)
	a.AddFact(FactPaymentMethod, string(facts.PaymentMethod))
	a.AddFact(FactCouponCode, facts.CouponCode)
	a.AddFact(FactHasCoupon, facts.CouponCode != "")
	a.AddFact(FactUserEmail, facts.UserEmail)
	a.AddFact(FactQuantity, facts.GetQuantity())

	now = now.UTC()
	a.AddFact(FactNow, now)
	a.AddFact(FactHourOfDay, now.Hour())
	a.AddFact(FactDayOfWeek, int(now.Weekday()))
	a.AddFact(FactIsWeekend, now.Weekday() == time.Friday || now.Weekday() == time.Saturday)
}

// RegisterBundleFacts registers the bundle-selection facts over a catalog
// slice already narrowed to the requested group and coverage area.
func RegisterBundleFacts(a *Almanac, catalog []*bundle.Bundle, requestedDays int) {
	a.AddFact(FactAvailableBundles, catalog)

	a.AddResolver(FactSelectedBundle, func(ctx context.Context, a *Almanac) (any, error) {
		return SelectBundle(catalog, requestedDays)
	})

	a.AddResolver(FactPreviousBundle, func(ctx context.Context, a *Almanac) (any, error) {
		selected, err := a.FactValue(ctx, FactSelectedBundle)
		if err != nil {
			return nil, err
		}
		return PreviousBundle(catalog, selected.(*bundle.Bundle)), nil
	})

	a.AddResolver(FactUnusedDays, func(ctx context.Context, a *Almanac) (any, error) {
		selected, err := a.FactValue(ctx, FactSelectedBundle)
		if err != nil {
			return nil, err
		}
		return selected.(*bundle.Bundle).ValidityDays - requestedDays, nil
	})

	a.AddResolver(FactIsExactMatch, func(ctx context.Context, a *Almanac) (any, error) {
		selected, err := a.FactValue(ctx, FactSelectedBundle)
		if err != nil {
			return nil, err
		}
		return selected.(*bundle.Bundle).ValidityDays == requestedDays, nil
	})
}

// SelectBundle picks the bundle whose validity exactly matches the requested
// duration, or else the cheapest sufficient upgrade: the smallest validity
// strictly greater than requested. No candidate is a hard stop.
func SelectBundle(catalog []*bundle.Bundle, requestedDays int) (*bundle.Bundle, error) {
	var selected *bundle.Bundle
	for _, b := range catalog {
		if b.ValidityDays == requestedDays {
			return b, nil
		}
		if b.ValidityDays > requestedDays {
			if selected == nil || b.ValidityDays < selected.ValidityDays {
				selected = b
			}
		}
	}

	if selected == nil {
		return nil, ierr.NewError("no bundle satisfies the requested duration").
			WithHint("No bundle covers the requested number of days").
			WithReportableDetails(map[string]any{
				"requested_days": requestedDays,
				"available_days": lo.Map(catalog, func(b *bundle.Bundle, _ int) int { return b.ValidityDays }),
			}).
			Mark(ierr.ErrNotFound)
	}
	return selected, nil
}

// PreviousBundle returns the bundle with the largest validity strictly below
// the selected bundle's, or nil when the selected bundle is the shortest.
func PreviousBundle(catalog []*bundle.Bundle, selected *bundle.Bundle) *bundle.Bundle {
	var previous *bundle.Bundle
	for _, b := range catalog {
		if b.ValidityDays < selected.ValidityDays {
			if previous == nil || b.ValidityDays > previous.ValidityDays {
				previous = b
			}
		}
	}
	return previous
}
