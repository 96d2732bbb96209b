package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAnalysisConfig(t *testing.T) {
	cfg := DefaultAnalysisConfig()

	if cfg.Ingest.DateLayouts[0] != "02.01.2006" {
		t.Errorf("Expected native layout 02.01.2006 first, got %s", cfg.Ingest.DateLayouts[0])
	}

	if cfg.Ingest.Columns.Client != "клиент" {
		t.Errorf("Expected client column 'клиент', got %q", cfg.Ingest.Columns.Client)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must be valid: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	// 1. Setup: YAML overriding a single column and the separator.
	v := viper.New()
	v.SetConfigType("yaml")
	yamlCfg := `
analysis:
  ingest:
    comma: ";"
    columns:
      client: "customer"
  stats:
    top_clients: 5
`
	require.NoError(t, v.ReadConfig(strings.NewReader(yamlCfg)))

	// 2. Execute
	cfg, err := Load(v)
	require.NoError(t, err)

	// 3. Assert: overrides applied, the rest stays default.
	assert.Equal(t, ";", cfg.Ingest.Comma)
	assert.Equal(t, "customer", cfg.Ingest.Columns.Client)
	assert.Equal(t, "брутто", cfg.Ingest.Columns.Gross)
	assert.Equal(t, 5, cfg.Stats.TopClients)
	assert.Equal(t, 10, cfg.Stats.TopVessels)
	assert.Equal(t, DefaultAnalysisConfig().Ingest.DateLayouts, cfg.Ingest.DateLayouts)
}

func TestValidate(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	cfg.Ingest.Comma = ";;"
	assert.Error(t, cfg.Validate())

	cfg = DefaultAnalysisConfig()
	cfg.Ingest.DateLayouts = nil
	assert.Error(t, cfg.Validate())

	cfg = DefaultAnalysisConfig()
	cfg.Ingest.Columns.Arrival = ""
	assert.Error(t, cfg.Validate())
}
