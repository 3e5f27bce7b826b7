package app

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-retail/internal/sequence"
	"github.com/odyssey-erp/odyssey-retail/internal/tax"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DEFAULT_TENANT", "default")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "retail.db", cfg.SQLitePath)
	assert.Equal(t, "default", cfg.DefaultTenant)
	assert.Equal(t, sequence.FormatRandom, cfg.IDGenerator().Format())
	assert.True(t, cfg.TaxGSTRate.Equal(decimal.NewFromInt(18)))
	assert.Equal(t, tax.TypeGST, cfg.TaxSettings().Type)
	assert.Equal(t, "SO", cfg.OrdersConfig().SalesPrefix)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ORDER_ID_FORMAT", "sequential")
	t.Setenv("TAX_TYPE", "cgst_sgst")
	t.Setenv("TAX_CGST_RATE", "2.5")
	t.Setenv("SALES_ORDER_PREFIX", "INV")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, sequence.FormatSequential, cfg.IDGenerator().Format())
	settings := cfg.TaxSettings()
	assert.Equal(t, tax.TypeCGSTSGST, settings.Type)
	assert.True(t, settings.CGSTRate.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, "INV", cfg.OrdersConfig().SalesPrefix)
}

func TestLoadConfigRejectsUnknownChoices(t *testing.T) {
	t.Run("order id format", func(t *testing.T) {
		t.Setenv("ORDER_ID_FORMAT", "hex")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("tax type", func(t *testing.T) {
		t.Setenv("TAX_TYPE", "vat")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
