package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/openroam/pricing/internal/domain/coupon"
	ierr "github.com/openroam/pricing/internal/errors"
)

// InMemoryCouponStore implements coupon.Repository
type InMemoryCouponStore struct {
	coupons *InMemoryStore[*coupon.Coupon]
	domains *InMemoryStore[*coupon.CorporateEmailDiscount]

	mu     sync.Mutex
	usages []*coupon.Usage
	tiers  []*coupon.VolumeTier

	// ForceLogUsageError makes LogUsage fail, for testing the
	// fire-and-forget logging path.
	ForceLogUsageError bool
}

// NewInMemoryCouponStore creates a new in-memory coupon store
func NewInMemoryCouponStore() *InMemoryCouponStore {
	return &InMemoryCouponStore{
		coupons: NewInMemoryStore[*coupon.Coupon](),
		domains: NewInMemoryStore[*coupon.CorporateEmailDiscount](),
	}
}

// AddCoupon stores a coupon keyed by its code.
func (s *InMemoryCouponStore) AddCoupon(c *coupon.Coupon) {
	s.coupons.Set(strings.ToUpper(c.Code), c)
}

// AddCorporateDomain stores a corporate email-domain discount.
func (s *InMemoryCouponStore) AddCorporateDomain(d *coupon.CorporateEmailDiscount) {
	s.domains.Set(strings.ToLower(d.Domain), d)
}

// AddVolumeTier stores a volume discount tier.
func (s *InMemoryCouponStore) AddVolumeTier(t *coupon.VolumeTier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers = append(s.tiers, t)
}

// Usages returns the recorded redemptions.
func (s *InMemoryCouponStore) Usages() []*coupon.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*coupon.Usage, len(s.usages))
	copy(out, s.usages)
	return out
}

func (s *InMemoryCouponStore) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	c, ok := s.coupons.Get(strings.ToUpper(code))
	if !ok {
		return nil, ierr.NewErrorf("coupon not found: %s", code).
			WithHint("The coupon code does not exist").
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryCouponStore) GetUsage(ctx context.Context, couponID, userID string) (*coupon.UsageCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := &coupon.UsageCounts{}
	for _, usage := range s.usages {
		if usage.CouponID != couponID {
			continue
		}
		counts.Total++
		if userID != "" && usage.UserID == userID {
			counts.ByUser++
		}
	}
	return counts, nil
}

func (s *InMemoryCouponStore) LogUsage(ctx context.Context, usage *coupon.Usage) error {
	if s.ForceLogUsageError {
		return ierr.NewError("usage log write failed").Mark(ierr.ErrDatabase)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.usages = append(s.usages, usage)
	return nil
}

func (s *InMemoryCouponStore) GetCorporateDomain(ctx context.Context, domain string) (*coupon.CorporateEmailDiscount, error) {
	d, ok := s.domains.Get(strings.ToLower(domain))
	if !ok {
		return nil, ierr.NewErrorf("corporate domain not found: %s", domain).
			Mark(ierr.ErrNotFound)
	}
	return d, nil
}

func (s *InMemoryCouponStore) ListVolumeTiers(ctx context.Context) ([]*coupon.VolumeTier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*coupon.VolumeTier, len(s.tiers))
	copy(out, s.tiers)
	return out, nil
}
