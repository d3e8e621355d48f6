package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	ierr "github.com/openroam/pricing/internal/errors"
	"github.com/openroam/pricing/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Pricing PricingConfig `mapstructure:"pricing"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type"` // inmemory | redis
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PricingConfig holds the policy knobs of the pricing engine. Values that the
// source system left ambiguous (retention factor, markup combination) are
// deliberately configuration, not constants.
type PricingConfig struct {
	// RuleCacheTTL bounds how stale a loaded rule set may be.
	RuleCacheTTL time.Duration `mapstructure:"rule_cache_ttl"`

	// RetentionFactor is the share of the per-day rate retained when
	// discounting unused days. Canonical value 0.5.
	RetentionFactor float64 `mapstructure:"retention_factor"`

	// MarkupPolicy decides whether concurrent markup events sum or take the max.
	MarkupPolicy types.MarkupPolicy `mapstructure:"markup_policy"`

	// StrictRuleParams fails rule loading on invalid event params instead of
	// falling back to the raw params with a warning.
	StrictRuleParams bool `mapstructure:"strict_rule_params"`

	// DefaultRounding is the psychological rounding applied when a rounding
	// rule carries no explicit strategy.
	DefaultRounding types.RoundingStrategy `mapstructure:"default_rounding"`

	// ProcessingFees maps payment method to fee rate in percent.
	ProcessingFees map[string]float64 `mapstructure:"processing_fees"`

	// DefaultProcessingFee is used for payment methods missing from the table.
	DefaultProcessingFee float64 `mapstructure:"default_processing_fee"`

	// DefaultMinimumProfit is the profit floor when a constraint rule carries
	// no explicit minimum.
	DefaultMinimumProfit float64 `mapstructure:"default_minimum_profit"`
}

// NewConfig loads configuration from config.yaml and PRICING_* env overrides.
func NewConfig() (*Configuration, error) {
	// Load .env if present, ignore if missing
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("PRICING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read config file").
				Mark(ierr.ErrSystem)
		}
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to unmarshal configuration").
			Mark(ierr.ErrSystem)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", "inmemory")
	v.SetDefault("pricing.rule_cache_ttl", "5m")
	v.SetDefault("pricing.retention_factor", 0.5)
	v.SetDefault("pricing.markup_policy", string(types.MarkupPolicySum))
	v.SetDefault("pricing.strict_rule_params", false)
	v.SetDefault("pricing.default_rounding", string(types.RoundingNearestWhole))
	v.SetDefault("pricing.processing_fees", map[string]float64{
		string(types.PaymentMethodIsraeliCard):       1.4,
		string(types.PaymentMethodInternationalCard): 2.9,
		string(types.PaymentMethodAmex):              3.5,
		string(types.PaymentMethodDiners):            3.5,
		string(types.PaymentMethodBit):               1.0,
	})
	v.SetDefault("pricing.default_processing_fee", 2.9)
	v.SetDefault("pricing.default_minimum_profit", 1.5)
}

// Validate checks policy values are usable.
func (c *Configuration) Validate() error {
	if c.Pricing.RetentionFactor < 0 || c.Pricing.RetentionFactor > 1 {
		return ierr.NewErrorf("retention factor must be within [0, 1], got %f", c.Pricing.RetentionFactor).
			WithHint("pricing.retention_factor must be between 0 and 1").
			Mark(ierr.ErrValidation)
	}
	if c.Pricing.MarkupPolicy != types.MarkupPolicySum && c.Pricing.MarkupPolicy != types.MarkupPolicyMax {
		return ierr.NewErrorf("invalid markup policy: %s", c.Pricing.MarkupPolicy).
			WithHint("pricing.markup_policy must be sum or max").
			Mark(ierr.ErrValidation)
	}
	if err := c.Pricing.DefaultRounding.Validate(); err != nil {
		return err
	}
	if c.Pricing.RuleCacheTTL <= 0 {
		return ierr.NewError("rule cache TTL must be positive").
			WithHint("pricing.rule_cache_ttl must be a positive duration").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// GetDefaultConfig returns the default configuration used by tests and scripts.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Logging: LoggingConfig{Level: types.LogLevelInfo},
		Cache:   CacheConfig{Enabled: true, Type: "inmemory"},
		Pricing: PricingConfig{
			RuleCacheTTL:     5 * time.Minute,
			RetentionFactor:  0.5,
			MarkupPolicy:     types.MarkupPolicySum,
			StrictRuleParams: false,
			DefaultRounding:  types.RoundingNearestWhole,
			ProcessingFees: map[string]float64{
				string(types.PaymentMethodIsraeliCard):       1.4,
				string(types.PaymentMethodInternationalCard): 2.9,
				string(types.PaymentMethodAmex):              3.5,
				string(types.PaymentMethodDiners):            3.5,
				string(types.PaymentMethodBit):               1.0,
			},
			DefaultProcessingFee: 2.9,
			DefaultMinimumProfit: 1.5,
		},
	}
}

// ProcessingFeeRate returns the fee percentage for a payment method.
func (c *PricingConfig) ProcessingFeeRate(method types.PaymentMethod) float64 {
	if rate, ok := c.ProcessingFees[string(method)]; ok {
		return rate
	}
	return c.DefaultProcessingFee
}
