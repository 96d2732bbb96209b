package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/config"
	"github.com/DrSkyle/pierwatch/pkg/engine"
	"github.com/spf13/viper"
)

// todayLayout is the format of --today.
const todayLayout = "2006-01-02"

// exitViolations is returned by scan --fail-on-violations when the log has any.
const exitViolations = 2

var errViolationsFound = errors.New("FIFO violations found")

func exitCode(err error) int {
	if errors.Is(err, errViolationsFound) {
		return exitViolations
	}
	return 1
}

// engineConfig assembles the engine configuration from flags, environment
// and the config file, all of which have been merged into v.
func engineConfig(v *viper.Viper, logOut io.Writer) (engine.Config, []engine.Option, error) {
	analysis, err := config.Load(v)
	if err != nil {
		return engine.Config{}, nil, err
	}

	cfg := engine.Config{
		Source:         v.GetString("source"),
		RulesFile:      v.GetString("rules"),
		HistoryURL:     v.GetString("history"),
		NoHistory:      v.GetBool("no_history"),
		OutputDir:      v.GetString("out"),
		SlackWebhook:   v.GetString("slack_webhook"),
		SlackChannel:   v.GetString("slack_channel"),
		Verbose:        v.GetBool("verbose"),
		JsonLogs:       v.GetBool("json_logs"),
		MaxConcurrency: v.GetInt("max_workers"),
		StrictMode:     v.GetBool("strict"),
		Analysis:       analysis,
		OtelEndpoint:   v.GetString("otel_endpoint"),
	}
	if cfg.OtelEndpoint == "" {
		cfg.OtelEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	// Without a collector there is nothing to export to.
	cfg.SkipTelemetry = cfg.OtelEndpoint == ""
	cfg.Logger = engine.NewLogger(logOut, cfg.JsonLogs, cfg.Verbose)

	var opts []engine.Option
	if s := v.GetString("today"); s != "" {
		day, err := time.ParseInLocation(todayLayout, s, time.Local)
		if err != nil {
			return engine.Config{}, nil, fmt.Errorf("--today must be YYYY-MM-DD: %w", err)
		}
		opts = append(opts, engine.WithClock(func() time.Time { return day }))
	}
	return cfg, opts, nil
}

// newEngine builds an engine from the merged configuration.
func newEngine(ctx context.Context, v *viper.Viper, logOut io.Writer) (*engine.Engine, error) {
	cfg, opts, err := engineConfig(v, logOut)
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{engine.WithConfig(cfg)}, opts...)
	return engine.New(ctx, opts...)
}
