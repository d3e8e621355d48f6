package service

import (
	"github.com/openroam/pricing/internal/cache"
	"github.com/openroam/pricing/internal/config"
	"github.com/openroam/pricing/internal/domain/bundle"
	"github.com/openroam/pricing/internal/domain/coupon"
	"github.com/openroam/pricing/internal/domain/rule"
	"github.com/openroam/pricing/internal/logger"
)

// ServiceParams bundles the dependencies every service needs. Services embed
// it so construction sites stay uniform.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache

	BundleRepo bundle.Repository
	CouponRepo coupon.Repository
	RuleRepo   rule.Repository
}
