package testutil

import (
	"context"

	"github.com/openroam/pricing/internal/cache"
	"github.com/openroam/pricing/internal/config"
	"github.com/openroam/pricing/internal/logger"
	"github.com/openroam/pricing/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores bundles the in-memory repositories backing a service test.
type Stores struct {
	BundleRepo *InMemoryBundleStore
	CouponRepo *InMemoryCouponStore
	RuleRepo   *InMemoryRuleStore
}

// BaseServiceTestSuite wires fresh in-memory stores, config, logger and
// cache for every test.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	cfg    *config.Configuration
	log    *logger.Logger
	cache  cache.Cache
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = types.SetRequestID(context.Background(), "req_test")
	s.cfg = config.GetDefaultConfig()
	s.log = logger.GetLogger()
	s.cache = cache.NewInMemoryCache()
	s.stores = Stores{
		BundleRepo: NewInMemoryBundleStore(),
		CouponRepo: NewInMemoryCouponStore(),
		RuleRepo:   NewInMemoryRuleStore(),
	}
}

func (s *BaseServiceTestSuite) TearDownTest() {
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.cfg
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.log
}

func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}
