package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // access cache TTL
	Enabled  bool          `yaml:"enabled"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

// ShopConfig covers the inbound integration with the external shop.
type ShopConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	PromoShopID       string `yaml:"promo_shop_id"`        // shop id of the promo product
	PromoLifetimeDays int    `yaml:"promo_lifetime_days"`  // fallback when the product has no lifetime
	PostCheckoutURL   string `yaml:"post_checkout_url"`    // base for redirect links returned to the shop
}

// TinkoffConfig is the recurring charge provider configuration. Everything
// the processors need is passed in explicitly so tests can substitute fakes.
type TinkoffConfig struct {
	Enabled          bool          `yaml:"enabled"`
	APIURL           string        `yaml:"api_url"`
	TerminalKey      string        `yaml:"terminal_key"`
	TerminalPassword string        `yaml:"terminal_password"`
	Taxation         string        `yaml:"taxation"`
	Tax              string        `yaml:"tax"`
	PaymentObject    string        `yaml:"payment_object"`
	Timeout          time.Duration `yaml:"timeout"`
}

type BillingConfig struct {
	ChargeInterval      time.Duration `yaml:"charge_interval"`       // scheduler tick
	ChargeRatePerMin    int           `yaml:"charge_rate_per_min"`   // provider rate cap
	Workers             int           `yaml:"workers"`               // charge worker pool size
	DueBatchLimit       int           `yaml:"due_batch_limit"`       // max subscriptions per tick
	DefaultLifetimeDays int           `yaml:"default_lifetime_days"` // product lifetime when the shop sends none
}

type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"` // empty disables CRM dispatch
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	HTTP     HTTPConfig     `yaml:"http"`
	Shop     ShopConfig     `yaml:"shop"`
	Tinkoff  TinkoffConfig  `yaml:"tinkoff"`
	Billing  BillingConfig  `yaml:"billing"`
	Notify   NotifyConfig   `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = 5 * time.Minute
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Shop.PromoLifetimeDays <= 0 {
		cfg.Shop.PromoLifetimeDays = 1
	}
	if cfg.Tinkoff.Timeout <= 0 {
		cfg.Tinkoff.Timeout = 20 * time.Second
	}
	if cfg.Billing.ChargeInterval <= 0 {
		cfg.Billing.ChargeInterval = time.Minute
	}
	if cfg.Billing.ChargeRatePerMin <= 0 {
		cfg.Billing.ChargeRatePerMin = 3
	}
	if cfg.Billing.Workers <= 0 {
		cfg.Billing.Workers = 4
	}
	if cfg.Billing.DueBatchLimit <= 0 {
		cfg.Billing.DueBatchLimit = 200
	}
	if cfg.Billing.DefaultLifetimeDays <= 0 {
		cfg.Billing.DefaultLifetimeDays = 30
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Shop.JWTSecret == "" {
		return nil, errors.New("shop.jwt_secret is required")
	}
	if cfg.Tinkoff.Enabled {
		if cfg.Tinkoff.TerminalKey == "" || cfg.Tinkoff.TerminalPassword == "" {
			return nil, errors.New("tinkoff.terminal_key and tinkoff.terminal_password are required when enabled")
		}
		if cfg.Tinkoff.APIURL == "" {
			cfg.Tinkoff.APIURL = "https://securepay.tinkoff.ru/v2"
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
