package service

import (
	"testing"
	"time"

	"github.com/openroam/pricing/internal/api/dto"
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/testutil"
	"github.com/openroam/pricing/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PricingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PricingService
}

func TestPricingService(t *testing.T) {
	suite.Run(t, new(PricingServiceSuite))
}

func (s *PricingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewPricingService(s.serviceParams())
	s.setupCatalog()
}

func (s *PricingServiceSuite) serviceParams() ServiceParams {
	return ServiceParams{
		Logger:     s.GetLogger(),
		Config:     s.GetConfig(),
		Cache:      s.GetCache(),
		BundleRepo: s.GetStores().BundleRepo,
		CouponRepo: s.GetStores().CouponRepo,
		RuleRepo:   s.GetStores().RuleRepo,
	}
}

func (s *PricingServiceSuite) setupCatalog() {
	stores := s.GetStores()
	stores.BundleRepo.Add(testutil.NewTestBundle("bundle_7d", "Standard Unlimited Essential", "US", 7, 5.00))
	stores.BundleRepo.Add(testutil.NewTestBundle("bundle_10d", "Standard Unlimited Essential", "US", 10, 7.00))
	stores.BundleRepo.Add(testutil.NewTestBundle("bundle_30d", "Standard Unlimited Essential", "US", 30, 15.00))

	stores.RuleRepo.SetBlocks(testutil.DefaultRuleBlocks(map[string]any{
		"Standard Unlimited Essential": map[string]any{
			"7":  float64(12),
			"10": float64(15),
			"30": float64(30),
		},
	}))
}

func (s *PricingServiceSuite) calculate(req *dto.CalculatePricingRequest) *dto.PricingResponse {
	resp, err := s.service.CalculatePricing(s.GetContext(), req)
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	return resp
}

func (s *PricingServiceSuite) TestExactMatchPricing() {
	resp := s.calculate(&dto.CalculatePricingRequest{
		Group:         "Standard Unlimited Essential",
		RequestedDays: 7,
		Country:       "US",
		PaymentMethod: string(types.PaymentMethodIsraeliCard),
	})

	s.Equal("bundle_7d", resp.SelectedBundle.ID)
	s.True(resp.IsExactMatch)
	s.Zero(resp.UnusedDays)

	// 5.00 cost + 12 markup = 17.00, fee 1.4% = 0.238, rounded to 17
	s.True(resp.Pricing.Cost.Equal(decimal.NewFromInt(5)), "cost %s", resp.Pricing.Cost)
	s.True(resp.Pricing.Markup.Equal(decimal.NewFromInt(12)), "markup %s", resp.Pricing.Markup)
	s.True(resp.Pricing.FinalPrice.Equal(decimal.NewFromInt(17)), "final price %s", resp.Pricing.FinalPrice)
	s.True(resp.Pricing.DiscountValue.IsZero())
	s.Equal("0.24", resp.Pricing.ProcessingCost.String())
	s.Equal("USD", resp.Pricing.Currency)

	// Profit floor is honored: final price covers cost plus minimum profit
	floor := resp.Pricing.Cost.Add(decimal.NewFromFloat(s.GetConfig().Pricing.DefaultMinimumProfit))
	s.True(resp.Pricing.FinalPrice.GreaterThanOrEqual(floor))
}

func (s *PricingServiceSuite) TestUpgradeSelectionWithUnusedDays() {
	resp := s.calculate(&dto.CalculatePricingRequest{
		Group:         "Standard Unlimited Essential",
		RequestedDays: 8,
		Country:       "US",
		PaymentMethod: string(types.PaymentMethodIsraeliCard),
	})

	s.Equal("bundle_10d", resp.SelectedBundle.ID)
	s.False(resp.IsExactMatch)
	s.Equal(2, resp.UnusedDays)

	// The markup matrix is keyed by the sold bundle's duration: the 10-day
	// entry (15) applies even though 8 days were requested
	s.True(resp.Pricing.Markup.Equal(decimal.NewFromInt(15)), "markup %s", resp.Pricing.Markup)

	// 7.00 + 15 = 22.00, minus 2 unused days at the marginal rate
	// (7.00-5.00)/(10-7) with retention 0.5, plus 1.4% fee, rounded to 22
	s.True(resp.Pricing.FinalPrice.Equal(decimal.NewFromInt(22)), "final price %s", resp.Pricing.FinalPrice)

	// The unused-days compensation shows up in the audit trail
	var found bool
	for _, applied := range resp.AppliedRules {
		if applied.Name == "unused-days-discount" {
			found = true
			s.Equal(types.RuleCategoryDiscount, applied.Category)
			s.True(applied.Impact.IsNegative(), "impact %s", applied.Impact)
		}
	}
	s.True(found, "unused-days-discount missing from applied rules")
	s.True(resp.Pricing.DiscountValue.IsPositive())
	s.True(resp.Pricing.DiscountPerDay.IsPositive())
}

func (s *PricingServiceSuite) TestCouponDiscountAppliedAndLogged() {
	s.GetStores().CouponRepo.AddCoupon(newTestCoupon("cpn_save10", "SAVE10", 10))

	resp := s.calculate(&dto.CalculatePricingRequest{
		Group:         "Standard Unlimited Essential",
		RequestedDays: 7,
		Country:       "US",
		PaymentMethod: string(types.PaymentMethodBit),
		CouponCode:    "SAVE10",
		UserID:        "user_1",
	})

	// 17.00 minus 10% = 15.30, fee 1% = 0.153, rounded to 15
	s.True(resp.Pricing.FinalPrice.Equal(decimal.NewFromInt(15)), "final price %s", resp.Pricing.FinalPrice)
	s.Equal("1.7", resp.Pricing.DiscountValue.String())

	var discountApplied bool
	for _, applied := range resp.AppliedRules {
		if applied.Name == "general-discount" {
			discountApplied = true
			s.Equal(string(types.DiscountSourceCoupon), applied.Note)
		}
	}
	s.True(discountApplied)

	// Usage logging is fire-and-forget; wait for the goroutine
	s.Require().Eventually(func() bool {
		return len(s.GetStores().CouponRepo.Usages()) == 1
	}, time.Second, 10*time.Millisecond)

	usage := s.GetStores().CouponRepo.Usages()[0]
	s.Equal("cpn_save10", usage.CouponID)
	s.Equal("user_1", usage.UserID)
	s.Equal("1.7", usage.DiscountAmount.String())
}

func (s *PricingServiceSuite) TestInvalidCouponDoesNotFailPricing() {
	resp := s.calculate(&dto.CalculatePricingRequest{
		Group:         "Standard Unlimited Essential",
		RequestedDays: 7,
		Country:       "US",
		PaymentMethod: string(types.PaymentMethodIsraeliCard),
		CouponCode:    "NO_SUCH_CODE",
	})

	s.True(resp.Pricing.DiscountValue.IsZero())
	s.True(resp.Pricing.FinalPrice.Equal(decimal.NewFromInt(17)))
	s.Empty(s.GetStores().CouponRepo.Usages())
}

func (s *PricingServiceSuite) TestCorporateEmailDiscount() {
	s.GetStores().CouponRepo.AddCorporateDomain(newTestCorporateDomain("acme.com", 15))

	resp := s.calculate(&dto.CalculatePricingRequest{
		Group:         "Standard Unlimited Essential",
		RequestedDays: 7,
		Country:       "US",
		PaymentMethod: string(types.PaymentMethodBit),
		UserEmail:     "alex@acme.com",
	})

	s.True(resp.Pricing.DiscountValue.IsPositive())
	s.Empty(s.GetStores().CouponRepo.Usages(), "corporate discounts must not log coupon usage")
}

func (s *PricingServiceSuite) TestDeterministicForSameInput() {
	req := &dto.CalculatePricingRequest{
		Group:         "Standard Unlimited Essential",
		RequestedDays: 8,
		Country:       "US",
		PaymentMethod: string(types.PaymentMethodAmex),
	}

	first := s.calculate(req)
	second := s.calculate(req)

	s.Equal(first.SelectedBundle.ID, second.SelectedBundle.ID)
	s.Equal(first.UnusedDays, second.UnusedDays)
	s.Equal(first.IsExactMatch, second.IsExactMatch)

	// The whole breakdown must match, not just the final price
	s.True(first.Pricing.Cost.Equal(second.Pricing.Cost))
	s.True(first.Pricing.Markup.Equal(second.Pricing.Markup))
	s.True(first.Pricing.DiscountValue.Equal(second.Pricing.DiscountValue))
	s.True(first.Pricing.ProcessingCost.Equal(second.Pricing.ProcessingCost))
	s.True(first.Pricing.TotalCost.Equal(second.Pricing.TotalCost))
	s.True(first.Pricing.DiscountRate.Equal(second.Pricing.DiscountRate))
	s.True(first.Pricing.NetProfit.Equal(second.Pricing.NetProfit))
	s.True(first.Pricing.DiscountPerDay.Equal(second.Pricing.DiscountPerDay))
	s.True(first.Pricing.FinalPrice.Equal(second.Pricing.FinalPrice))

	// And the audit trail, entry for entry (ids are freshly generated)
	s.Require().Equal(len(first.AppliedRules), len(second.AppliedRules))
	for i := range first.AppliedRules {
		s.Equal(first.AppliedRules[i].Name, second.AppliedRules[i].Name)
		s.Equal(first.AppliedRules[i].Category, second.AppliedRules[i].Category)
		s.Equal(first.AppliedRules[i].Note, second.AppliedRules[i].Note)
		s.True(first.AppliedRules[i].Impact.Equal(second.AppliedRules[i].Impact))
	}
}

func (s *PricingServiceSuite) TestNoBundleSatisfiesDuration() {
	_, err := s.service.CalculatePricing(s.GetContext(), &dto.CalculatePricingRequest{
		Group:         "Standard Unlimited Essential",
		RequestedDays: 45,
		Country:       "US",
		PaymentMethod: string(types.PaymentMethodIsraeliCard),
	})
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PricingServiceSuite) TestRequestValidation() {
	tests := []struct {
		name string
		req  *dto.CalculatePricingRequest
	}{
		{
			name: "missing group",
			req: &dto.CalculatePricingRequest{
				RequestedDays: 7, Country: "US",
				PaymentMethod: string(types.PaymentMethodIsraeliCard),
			},
		},
		{
			name: "zero requested days",
			req: &dto.CalculatePricingRequest{
				Group: "Standard Unlimited Essential", Country: "US",
				PaymentMethod: string(types.PaymentMethodIsraeliCard),
			},
		},
		{
			name: "neither country nor region",
			req: &dto.CalculatePricingRequest{
				Group: "Standard Unlimited Essential", RequestedDays: 7,
				PaymentMethod: string(types.PaymentMethodIsraeliCard),
			},
		},
		{
			name: "both country and region",
			req: &dto.CalculatePricingRequest{
				Group: "Standard Unlimited Essential", RequestedDays: 7,
				Country: "US", Region: "Europe",
				PaymentMethod: string(types.PaymentMethodIsraeliCard),
			},
		},
		{
			name: "unknown payment method",
			req: &dto.CalculatePricingRequest{
				Group: "Standard Unlimited Essential", RequestedDays: 7,
				Country: "US", PaymentMethod: "CASH",
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			_, err := s.service.CalculatePricing(s.GetContext(), tc.req)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
}
