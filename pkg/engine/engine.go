// Package engine runs the pier log analysis end to end.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/config"
	"github.com/DrSkyle/pierwatch/pkg/engine/history"
	"github.com/DrSkyle/pierwatch/pkg/engine/notifier"
	"github.com/DrSkyle/pierwatch/pkg/engine/policy"
	"github.com/DrSkyle/pierwatch/pkg/storage"
	"github.com/DrSkyle/pierwatch/pkg/telemetry"
	"github.com/DrSkyle/pierwatch/pkg/version"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoRecords is returned in strict mode when the log has no data rows.
var ErrNoRecords = errors.New("pier log has no records")

// ErrPanic wraps a recovered panic.
var ErrPanic = errors.New("analysis panicked")

// Config holds engine settings.
type Config struct {
	// Source is a path, file://, http(s):// or s3:// location of the CSV log.
	Source       string
	RulesFile    string
	HistoryURL   string // "s3://bucket/key", a file path, or empty for ~/.pierwatch
	NoHistory    bool
	OutputDir    string // Directory or s3:// prefix for generated reports
	SlackWebhook string
	SlackChannel string

	Verbose        bool
	JsonLogs       bool
	MaxConcurrency int

	// StrictMode turns an empty log into ErrNoRecords.
	StrictMode bool

	Analysis config.AnalysisConfig

	// Telemetry config.
	OtelEndpoint  string // "http://localhost:4318" or via env
	SkipTelemetry bool   // Set true if embedding in an app that already has OTEL

	Logger *slog.Logger
}

// Engine is the runtime core.
type Engine struct {
	Logger *slog.Logger
	Tracer trace.Tracer

	config      Config
	analysis    config.AnalysisConfig
	concurrency int
	outputDir   string
	s3Target    string // "s3://bucket/prefix" or empty
	now         func() time.Time
	store       storage.BlobStore
	httpClient  *http.Client

	History  *history.Client
	Notifier *notifier.SlackClient
	Rules    *policy.CELEngine
	Metrics  *telemetry.Metrics

	shutdown func(context.Context) error
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: redactSensitiveData,
	})
	e := &Engine{
		Logger:      slog.New(handler),
		Tracer:      otel.Tracer("pierwatch/engine"),
		analysis:    config.DefaultAnalysisConfig(),
		outputDir:   config.DefaultOutputDir,
		now:         time.Now,
		concurrency: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.analysis.Validate(); err != nil {
		return nil, err
	}

	if !e.config.SkipTelemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.OtelEndpoint)
		if err != nil {
			e.Logger.Warn("Telemetry failed", "error", err)
		} else {
			e.shutdown = shutdown
		}
	}
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		e.Logger.Warn("Metrics unavailable", "error", err)
	}
	e.Metrics = metrics
	e.httpClient = telemetry.HTTPClient(&http.Client{Timeout: 30 * time.Second})

	e.Rules, err = policy.NewCELEngine(e.Logger)
	if err != nil {
		return nil, err
	}
	if e.config.RulesFile != "" {
		rules, err := policy.LoadRulesFile(e.config.RulesFile)
		if err != nil {
			return nil, err
		}
		if err := e.Rules.Compile(rules); err != nil {
			return nil, err
		}
		e.Logger.Debug("Rules loaded", "count", e.Rules.Len(), "file", e.config.RulesFile)
	}

	if !e.config.NoHistory {
		backend, err := e.historyBackend(ctx)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		e.History = history.NewClient(backend)
	}

	e.Notifier = notifier.NewSlackClient(e.config.SlackWebhook, e.config.SlackChannel)
	e.Notifier.HTTPClient = e.httpClient

	return e, nil
}

func (e *Engine) historyBackend(ctx context.Context) (history.Backend, error) {
	loc := e.config.HistoryURL
	if e.store != nil && storage.IsS3URL(loc) {
		l, err := storage.ParseURL(loc)
		if err != nil {
			return nil, err
		}
		return &history.BlobBackend{Store: e.store, Key: l.Key}, nil
	}
	return history.NewBackend(ctx, loc)
}

// Close flushes telemetry.
func (e *Engine) Close(ctx context.Context) error {
	if e.shutdown == nil {
		return nil
	}
	return e.shutdown(ctx)
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.Logger = l
		}
	}
}

// WithConcurrency caps the number of clients analyzed at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithClock sets the time source; "today" in pier statistics follows it.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithStore replaces the S3 store for every s3:// location.
func WithStore(s storage.BlobStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithConfig sets raw config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
		if cfg.OutputDir != "" {
			if storage.IsS3URL(cfg.OutputDir) {
				e.s3Target = cfg.OutputDir
				e.outputDir = config.DefaultOutputDir // Generate locally first
			} else {
				e.outputDir = cfg.OutputDir
			}
		}
		if cfg.Logger != nil {
			e.Logger = cfg.Logger
		}
		if cfg.MaxConcurrency > 0 {
			e.concurrency = cfg.MaxConcurrency
		}
		if len(cfg.Analysis.Ingest.DateLayouts) > 0 {
			e.analysis = cfg.Analysis
		}
	}
}

// OutputDir is where reports are written locally.
func (e *Engine) OutputDir() string { return e.outputDir }

// recoverPanic turns a panic into ErrPanic on *errp.
func (e *Engine) recoverPanic(ctx context.Context, errp *error) {
	r := recover()
	if r == nil {
		return
	}
	tr := otel.Tracer("pierwatch/engine")
	_, span := tr.Start(ctx, "CriticalPanic")

	stack := debug.Stack()
	span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
	span.SetStatus(codes.Error, "CRITICAL FAILURE")
	span.SetAttributes(
		attribute.String("crash.stack", string(stack)),
		attribute.String("crash.reason", fmt.Sprintf("%v", r)),
	)
	span.End()

	e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
	*errp = fmt.Errorf("%w: %v", ErrPanic, r)
}

var sensitiveKeys = map[string]bool{
	"password": true, "access_key": true, "token": true,
	"secret": true, "api_key": true, "private_key": true, "auth_token": true,
	"refresh_token": true, "signature": true, "credential": true,
	"webhook": true, "slack_webhook": true, "connection_string": true,
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}
