package service

import (
	"context"
	"strings"
	"time"

	"github.com/openroam/pricing/internal/domain/coupon"
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/types"
)

// DiscountService resolves the single general discount applicable to one
// pricing request and validates coupons.
type DiscountService interface {
	// ValidateCoupon checks a coupon code against its window, usage limits
	// and scope. An unusable coupon is a failed validation value, not an error.
	ValidateCoupon(ctx context.Context, code string, facts *types.RequestFacts) (*coupon.ValidationResult, error)

	// ResolveDiscount picks the discount source for a request by priority:
	// valid coupon, then corporate email domain, then volume tier.
	ResolveDiscount(ctx context.Context, facts *types.RequestFacts) (*coupon.ResolvedDiscount, error)

	// LogCouponUsage records a redemption without ever failing the caller.
	LogCouponUsage(ctx context.Context, usage *coupon.Usage)
}

type discountService struct {
	ServiceParams
}

// NewDiscountService creates a new discount service
func NewDiscountService(params ServiceParams) DiscountService {
	return &discountService{ServiceParams: params}
}

func (s *discountService) ValidateCoupon(ctx context.Context, code string, facts *types.RequestFacts) (*coupon.ValidationResult, error) {
	c, err := s.CouponRepo.GetByCode(ctx, code)
	if err != nil {
		if ierr.IsNotFound(err) {
			return coupon.Invalid("coupon not found"), nil
		}
		return nil, err
	}

	now := time.Now().UTC()

	if !c.IsActive || c.Status != types.StatusPublished {
		return coupon.Invalid("coupon is not active"), nil
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return coupon.Invalid("coupon is not yet valid"), nil
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return coupon.Invalid("coupon has expired"), nil
	}
	if !c.AppliesTo(facts.Group, facts.Region) {
		return coupon.Invalid("coupon does not apply to this bundle"), nil
	}

	if c.MaxTotalUsage != nil || c.MaxPerUser != nil {
		usage, err := s.CouponRepo.GetUsage(ctx, c.ID, facts.UserID)
		if err != nil {
			return nil, err
		}
		if c.MaxTotalUsage != nil && usage.Total >= *c.MaxTotalUsage {
			return coupon.Invalid("coupon usage limit reached"), nil
		}
		if c.MaxPerUser != nil && usage.ByUser >= *c.MaxPerUser {
			return coupon.Invalid("coupon already used by this user"), nil
		}
	}

	return &coupon.ValidationResult{
		Valid:         true,
		Coupon:        c,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		MinSpend:      c.MinSpend,
		MaxDiscount:   c.MaxDiscount,
	}, nil
}

func (s *discountService) ResolveDiscount(ctx context.Context, facts *types.RequestFacts) (*coupon.ResolvedDiscount, error) {
	log := s.Logger.WithContext(ctx)
	reason := "no discount source eligible"

	// Coupon code takes precedence over every other source
	if facts.CouponCode != "" {
		validation, err := s.ValidateCoupon(ctx, facts.CouponCode, facts)
		if err != nil {
			return nil, err
		}
		if validation.Valid {
			return &coupon.ResolvedDiscount{
				Eligible:      true,
				Source:        types.DiscountSourceCoupon,
				DiscountType:  validation.DiscountType,
				DiscountValue: validation.DiscountValue,
				MinSpend:      validation.MinSpend,
				MaxDiscount:   validation.MaxDiscount,
				CouponID:      validation.Coupon.ID,
			}, nil
		}
		log.Infow("coupon validation failed, falling back to other discounts",
			"coupon_code", facts.CouponCode, "reason", validation.FailureReason)
		reason = validation.FailureReason
	}

	if resolved, err := s.corporateDiscount(ctx, facts.UserEmail); err != nil {
		return nil, err
	} else if resolved != nil {
		return resolved, nil
	}

	if resolved, err := s.volumeDiscount(ctx, facts.GetQuantity()); err != nil {
		return nil, err
	} else if resolved != nil {
		return resolved, nil
	}

	return &coupon.ResolvedDiscount{Eligible: false, Reason: reason}, nil
}

func (s *discountService) corporateDiscount(ctx context.Context, email string) (*coupon.ResolvedDiscount, error) {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return nil, nil
	}
	domain := strings.ToLower(email[at+1:])

	record, err := s.CouponRepo.GetCorporateDomain(ctx, domain)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !record.IsActive || record.DiscountPercentage.IsZero() {
		return nil, nil
	}

	return &coupon.ResolvedDiscount{
		Eligible:      true,
		Source:        types.DiscountSourceCorporate,
		DiscountType:  types.DiscountTypePercentage,
		DiscountValue: record.DiscountPercentage,
		MinSpend:      record.MinSpend,
		MaxDiscount:   record.MaxDiscount,
	}, nil
}

func (s *discountService) volumeDiscount(ctx context.Context, quantity int) (*coupon.ResolvedDiscount, error) {
	tiers, err := s.CouponRepo.ListVolumeTiers(ctx)
	if err != nil {
		return nil, err
	}

	// When tiers overlap the most specific (highest minimum) wins
	var match *coupon.VolumeTier
	for _, tier := range tiers {
		if !tier.Contains(quantity) {
			continue
		}
		if match == nil || tier.MinQuantity > match.MinQuantity {
			match = tier
		}
	}
	if match == nil || match.DiscountPercentage.IsZero() {
		return nil, nil
	}

	return &coupon.ResolvedDiscount{
		Eligible:      true,
		Source:        types.DiscountSourceVolume,
		DiscountType:  types.DiscountTypePercentage,
		DiscountValue: match.DiscountPercentage,
	}, nil
}

// LogCouponUsage records the redemption in the background. A logging failure
// is reported as a warning and never affects the pricing result.
func (s *discountService) LogCouponUsage(ctx context.Context, usage *coupon.Usage) {
	log := s.Logger.WithContext(ctx)
	bgCtx := context.WithoutCancel(ctx)

	go func() {
		if err := s.CouponRepo.LogUsage(bgCtx, usage); err != nil {
			log.Warnw("failed to log coupon usage",
				"coupon_id", usage.CouponID,
				"user_id", usage.UserID,
				"error", err,
			)
		}
	}()
}
