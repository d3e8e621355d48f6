package coupon

import "context"

// Repository defines the interface to the coupon and corporate-discount store
type Repository interface {
	// GetByCode retrieves a coupon by its redeemable code
	GetByCode(ctx context.Context, code string) (*Coupon, error)

	// GetUsage returns redemption counters for a coupon, overall and for one user
	GetUsage(ctx context.Context, couponID, userID string) (*UsageCounts, error)

	// LogUsage records one successful coupon redemption
	LogUsage(ctx context.Context, usage *Usage) error

	// GetCorporateDomain retrieves an active corporate email-domain discount
	GetCorporateDomain(ctx context.Context, domain string) (*CorporateEmailDiscount, error)

	// ListVolumeTiers returns all configured volume discount tiers
	ListVolumeTiers(ctx context.Context) ([]*VolumeTier, error)
}
