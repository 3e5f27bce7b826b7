package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-retail/internal/orders"
	"github.com/odyssey-erp/odyssey-retail/internal/sequence"
	"github.com/odyssey-erp/odyssey-retail/internal/tax"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	SQLitePath    string `envconfig:"SQLITE_PATH" default:"retail.db"`
	DefaultTenant string `envconfig:"DEFAULT_TENANT" default:"default"`

	OrderIDFormat       string `envconfig:"ORDER_ID_FORMAT" default:"random"`
	SalesOrderPrefix    string `envconfig:"SALES_ORDER_PREFIX" default:"SO"`
	PurchaseOrderPrefix string `envconfig:"PURCHASE_ORDER_PREFIX" default:"PO"`

	TaxType     string          `envconfig:"TAX_TYPE" default:"gst"`
	TaxGSTRate  decimal.Decimal `envconfig:"TAX_GST_RATE" default:"18"`
	TaxCGSTRate decimal.Decimal `envconfig:"TAX_CGST_RATE" default:"9"`
	TaxSGSTRate decimal.Decimal `envconfig:"TAX_SGST_RATE" default:"9"`

	APIRateLimit int `envconfig:"API_RATE_LIMIT" default:"600"`

	RedisAddr   string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RemotePGDSN string        `envconfig:"REMOTE_PG_DSN"`
	SyncBatch   int           `envconfig:"SYNC_BATCH_SIZE" default:"100"`
	SyncEvery   time.Duration `envconfig:"SYNC_INTERVAL" default:"1m"`
	SyncLockTTL time.Duration `envconfig:"SYNC_LOCK_TTL" default:"30s"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, err := sequence.ParseFormat(cfg.OrderIDFormat); err != nil {
		return nil, err
	}
	if !tax.Type(cfg.TaxType).Valid() {
		return nil, fmt.Errorf("unsupported TAX_TYPE %q", cfg.TaxType)
	}
	if cfg.DefaultTenant == "" {
		return nil, fmt.Errorf("DEFAULT_TENANT must not be empty")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// TaxSettings builds the store-wide tax configuration.
func (c *Config) TaxSettings() tax.Settings {
	return tax.Settings{Rate: tax.Rate{
		Type:     tax.Type(c.TaxType),
		GSTRate:  c.TaxGSTRate,
		CGSTRate: c.TaxCGSTRate,
		SGSTRate: c.TaxSGSTRate,
	}}
}

// OrdersConfig returns the order composer configuration.
func (c *Config) OrdersConfig() orders.Config {
	return orders.Config{
		SalesPrefix:    c.SalesOrderPrefix,
		PurchasePrefix: c.PurchaseOrderPrefix,
		Tax:            c.TaxSettings(),
	}
}

// IDGenerator returns the order number generator for the configured format.
func (c *Config) IDGenerator() *sequence.Generator {
	format, err := sequence.ParseFormat(c.OrderIDFormat)
	if err != nil {
		format = sequence.FormatRandom
	}
	return sequence.NewGenerator(format)
}
