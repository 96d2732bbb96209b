// Package config defines default configuration for log ingestion and analysis.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Defaults.
const (
	// DefaultSource is the CSV export of the pier log spreadsheet.
	DefaultSource = "https://docs.google.com/spreadsheets/d/1rkmxMAb7B0RjM3PHknnkix_P5izTWyNIA3KTZvy9sWs/export?format=csv"
	// DefaultOutputDir receives generated reports.
	DefaultOutputDir = "pierwatch-out"
	// DefaultHistoryPath is the local run ledger.
	DefaultHistoryPath = ".pierwatch/history.jsonl"
)

// ColumnConfig maps canonical fields to the (normalized) header names of the log.
// A header matches when it equals the configured name or contains it.
type ColumnConfig struct {
	Vessel      string `mapstructure:"vessel"`
	Arrival     string `mapstructure:"arrival"`
	Shipment    string `mapstructure:"shipment"`
	Carrier     string `mapstructure:"carrier"`
	TruckPlate  string `mapstructure:"truck_plate"`
	Waybill     string `mapstructure:"waybill"`
	Client      string `mapstructure:"client"`
	Certificate string `mapstructure:"certificate"`
	Gross       string `mapstructure:"gross"`
}

// IngestConfig controls how raw cells are cleaned.
type IngestConfig struct {
	Columns ColumnConfig `mapstructure:"columns"`
	// DateLayouts are tried in order. The first one is the log's native format.
	DateLayouts []string `mapstructure:"date_layouts"`
	// MissingValues are cell values treated as absent, compared case-insensitively.
	MissingValues []string `mapstructure:"missing_values"`
	// Comma is the CSV field separator.
	Comma string `mapstructure:"comma"`
}

// StatsConfig limits the size of ranked pier statistics.
type StatsConfig struct {
	TopClients int `mapstructure:"top_clients"`
	TopVessels int `mapstructure:"top_vessels"`
}

// AnalysisConfig is the full analysis configuration.
type AnalysisConfig struct {
	Ingest IngestConfig `mapstructure:"ingest"`
	Stats  StatsConfig  `mapstructure:"stats"`
}

// DefaultColumnConfig returns the header names used by the pier log.
func DefaultColumnConfig() ColumnConfig {
	return ColumnConfig{
		Vessel:      "судно",
		Arrival:     "дата принятия на пирс",
		Shipment:    "дата отгрузки авто",
		Carrier:     "перевозчик",
		TruckPlate:  "номер авто",
		Waybill:     "тн",
		Client:      "клиент",
		Certificate: "№ сертиф.",
		Gross:       "брутто",
	}
}

// DefaultAnalysisConfig returns a configuration with sensible default values.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Ingest: IngestConfig{
			Columns: DefaultColumnConfig(),
			DateLayouts: []string{
				"02.01.2006",
				"2006-01-02",
				"2006-01-02 15:04:05",
				"2006-01-02T15:04:05Z07:00",
				"01/02/2006",
				"02.01.2006 15:04:05",
			},
			MissingValues: []string{"", "nan"},
			Comma:         ",",
		},
		Stats: StatsConfig{
			TopClients: 15,
			TopVessels: 10,
		},
	}
}

// SetDefaults registers the defaults on v so that config files and
// environment variables only need to override what differs.
func SetDefaults(v *viper.Viper) {
	d := DefaultAnalysisConfig()
	c := d.Ingest.Columns
	v.SetDefault("analysis.ingest.columns.vessel", c.Vessel)
	v.SetDefault("analysis.ingest.columns.arrival", c.Arrival)
	v.SetDefault("analysis.ingest.columns.shipment", c.Shipment)
	v.SetDefault("analysis.ingest.columns.carrier", c.Carrier)
	v.SetDefault("analysis.ingest.columns.truck_plate", c.TruckPlate)
	v.SetDefault("analysis.ingest.columns.waybill", c.Waybill)
	v.SetDefault("analysis.ingest.columns.client", c.Client)
	v.SetDefault("analysis.ingest.columns.certificate", c.Certificate)
	v.SetDefault("analysis.ingest.columns.gross", c.Gross)
	v.SetDefault("analysis.ingest.date_layouts", d.Ingest.DateLayouts)
	v.SetDefault("analysis.ingest.missing_values", d.Ingest.MissingValues)
	v.SetDefault("analysis.ingest.comma", d.Ingest.Comma)
	v.SetDefault("analysis.stats.top_clients", d.Stats.TopClients)
	v.SetDefault("analysis.stats.top_vessels", d.Stats.TopVessels)
}

// Load reads the "analysis" section of v on top of the defaults.
// Other sections of v are ignored.
func Load(v *viper.Viper) (AnalysisConfig, error) {
	SetDefaults(v)

	// Unmarshal (not UnmarshalKey) so every leaf is merged across layers.
	var wrapper struct {
		Analysis AnalysisConfig `mapstructure:"analysis"`
	}
	if err := v.Unmarshal(&wrapper); err != nil {
		return AnalysisConfig{}, fmt.Errorf("failed to decode analysis config: %w", err)
	}
	if err := wrapper.Analysis.Validate(); err != nil {
		return AnalysisConfig{}, err
	}
	return wrapper.Analysis, nil
}

// Validate rejects configurations the ingester cannot work with.
func (c AnalysisConfig) Validate() error {
	if len(c.Ingest.DateLayouts) == 0 {
		return fmt.Errorf("analysis.ingest.date_layouts must not be empty")
	}
	if len([]rune(c.Ingest.Comma)) != 1 {
		return fmt.Errorf("analysis.ingest.comma must be a single character, got %q", c.Ingest.Comma)
	}
	if c.Ingest.Columns.Client == "" || c.Ingest.Columns.Arrival == "" || c.Ingest.Columns.Shipment == "" {
		return fmt.Errorf("analysis.ingest.columns: client, arrival and shipment are required")
	}
	return nil
}
