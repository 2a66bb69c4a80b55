package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/petasbytes/travel-agent/internal/calendar"
	"github.com/petasbytes/travel-agent/internal/config"
	"github.com/petasbytes/travel-agent/internal/flights"
	"github.com/petasbytes/travel-agent/internal/policy"
	"github.com/petasbytes/travel-agent/internal/provider"
	"github.com/petasbytes/travel-agent/internal/runner"
	"github.com/petasbytes/travel-agent/internal/telemetry"
	"github.com/petasbytes/travel-agent/tools"
)

type app struct {
	logger *slog.Logger
	runner *runner.Runner
}

// newModel builds the decision model; tests replace it.
var newModel = func(cfg *config.Config) (runner.Model, error) {
	if cfg.Model.APIKey == "" {
		return nil, errors.New("missing ANTHROPIC_API_KEY; export it or set model.api_key")
	}
	client := provider.NewAnthropicClient(cfg.Model.APIKey)
	return provider.NewAnthropic(client, cfg.Model.Name, cfg.Model.MaxTokens), nil
}

// wireTools resolves config and builds the logger and action registry.
func wireTools(opts *rootOptions, stderr io.Writer) (*config.Config, *tools.Registry, *slog.Logger, error) {
	cfg, path, err := config.Resolve(opts.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	logger := cfg.NewLogger(stderr)
	if path != "" {
		logger.Debug("config loaded", "path", path)
	}

	store, err := calendar.NewStore(cfg.CalendarEvents())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("calendar: %w", err)
	}
	if cfg.Flights.APIKey == "" {
		logger.Warn("SERP_API_KEY is not set; flight searches will fail")
	}
	search := flights.NewClient(cfg.Flights.APIKey, append(cfg.FlightOptions(), flights.WithLogger(logger))...)

	reg, err := tools.NewTravelRegistry(tools.Deps{Flights: search, Calendar: store})
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, reg, logger, nil
}

func wireApp(opts *rootOptions, stderr io.Writer, today string) (*app, error) {
	cfg, reg, logger, err := wireTools(opts, stderr)
	if err != nil {
		return nil, err
	}
	if opts.maxRounds > 0 {
		cfg.Agent.MaxRounds = opts.maxRounds
	}
	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}

	r := runner.New(model, reg, cfg.Runner(policy.SystemPrompt(today)),
		runner.WithGuard(policy.BookingGuard{Logger: logger}),
		runner.WithLogger(logger),
		runner.WithTelemetry(telemetry.NewSink(cfg.Telemetry.Dir, cfg.Telemetry.Observe)),
	)
	return &app{logger: logger, runner: r}, nil
}
