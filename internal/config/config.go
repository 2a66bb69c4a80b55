// Package config loads travel-agent configuration: a YAML file, secrets from
// .env, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/petasbytes/travel-agent/internal/calendar"
	"github.com/petasbytes/travel-agent/internal/flights"
	"github.com/petasbytes/travel-agent/internal/provider"
	"github.com/petasbytes/travel-agent/internal/runner"
	"github.com/petasbytes/travel-agent/internal/telemetry"
	"github.com/petasbytes/travel-agent/memory"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned by FindConfig when no file exists on the search path.
var ErrNoConfig = errors.New("no config file found")

type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Model     ModelConfig     `yaml:"model"`
	Agent     AgentConfig     `yaml:"agent"`
	Flights   FlightsConfig   `yaml:"flights"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ModelConfig struct {
	Name      string `yaml:"name"`
	MaxTokens int64  `yaml:"max_tokens"`
	APIKey    string `yaml:"api_key"`
}

type AgentConfig struct {
	MaxRounds            int           `yaml:"max_rounds"`
	ActionTimeout        time.Duration `yaml:"action_timeout"`
	MaxParallel          int           `yaml:"max_parallel"`
	ContextBudget        int           `yaml:"context_budget"`         // runes
	MaxConversationBytes int           `yaml:"max_conversation_bytes"` // 0 disables
	MaxResultBytes       int           `yaml:"max_result_bytes"`       // 0 disables
	EnforcePolicy        bool          `yaml:"enforce_policy"`
}

type FlightsConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Currency  string        `yaml:"currency"`
	MaxOffers int           `yaml:"max_offers"`
	Timeout   time.Duration `yaml:"timeout"`
}

type CalendarConfig struct {
	// Events replaces the seeded schedule when non-empty.
	Events []calendar.Event `yaml:"events"`
}

type TelemetryConfig struct {
	Observe bool   `yaml:"observe"`
	Dir     string `yaml:"dir"`
}

// Default returns the stock configuration.
func Default() *Config {
	rc := runner.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Model: ModelConfig{
			Name:      string(provider.DefaultModel),
			MaxTokens: provider.DefaultMaxTokens,
		},
		Agent: AgentConfig{
			MaxRounds:            rc.MaxRounds,
			ActionTimeout:        rc.ActionTimeout,
			MaxParallel:          rc.MaxParallel,
			ContextBudget:        rc.ContextBudget,
			MaxConversationBytes: rc.Limits.MaxBytes,
			MaxResultBytes:       rc.Limits.MaxResultBytes,
			EnforcePolicy:        rc.EnforcePolicy,
		},
		Flights: FlightsConfig{
			BaseURL:   flights.DefaultBaseURL,
			Currency:  flights.DefaultCurrency,
			MaxOffers: flights.DefaultMaxOffers,
			Timeout:   flights.DefaultTimeout,
		},
		Telemetry: TelemetryConfig{Dir: telemetry.DefaultDir},
	}
}

// DefaultSearchPaths returns the config file search order.
// An explicit path (from --config) is checked first.
// Then: ./travel-agent.yaml, ~/.config/travel-agent/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"travel-agent.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "travel-agent", "config.yaml"))
	}
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists,
// or ErrNoConfig.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (searched: %v)", ErrNoConfig, DefaultSearchPaths())
}

// Load reads path over the defaults. Environment variables in the file are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads .env, the config file (defaults when none is found and
// explicit is empty), then applies environment overrides and validates.
func Resolve(explicit string) (*Config, string, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, "", err
	}
	cfg := Default()
	path, err := FindConfig(explicit)
	switch {
	case errors.Is(err, ErrNoConfig):
		path = ""
	case err != nil:
		return nil, "", err
	default:
		if cfg, err = Load(path); err != nil {
			return nil, "", err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// LoadDotEnv loads secrets from files that exist. Variables already set in the
// environment win.
func LoadDotEnv(files ...string) error {
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load %v: %w", present, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Model.APIKey = v
	}
	if v := getenv("SERP_API_KEY"); v != "" {
		c.Flights.APIKey = v
	}
	if v := getenv("AGT_MAX_ROUNDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AGT_MAX_ROUNDS %q: %w", v, err)
		}
		c.Agent.MaxRounds = n
	}
	switch getenv("AGT_OBSERVE_JSON") {
	case "1":
		c.Telemetry.Observe = true
	case "0":
		c.Telemetry.Observe = false
	}
	if v := getenv("AGT_ARTIFACTS_DIR"); v != "" {
		c.Telemetry.Dir = v
	}
	if v := getenv("AGT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate rejects settings the runner cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Agent.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("agent.max_rounds must be at least 1, got %d", c.Agent.MaxRounds))
	}
	if c.Agent.MaxParallel < 1 {
		errs = append(errs, fmt.Errorf("agent.max_parallel must be at least 1, got %d", c.Agent.MaxParallel))
	}
	if c.Agent.ActionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("agent.action_timeout must be positive, got %s", c.Agent.ActionTimeout))
	}
	if c.Agent.ContextBudget <= 0 {
		errs = append(errs, fmt.Errorf("agent.context_budget must be positive, got %d", c.Agent.ContextBudget))
	}
	if c.Agent.MaxConversationBytes < 0 || c.Agent.MaxResultBytes < 0 {
		errs = append(errs, errors.New("agent size caps must not be negative"))
	}
	if c.Flights.MaxOffers < 1 {
		errs = append(errs, fmt.Errorf("flights.max_offers must be at least 1, got %d", c.Flights.MaxOffers))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Runner returns the session limits for the given system instruction.
func (c *Config) Runner(systemPrompt string) runner.Config {
	return runner.Config{
		SystemPrompt:  systemPrompt,
		MaxRounds:     c.Agent.MaxRounds,
		ActionTimeout: c.Agent.ActionTimeout,
		MaxParallel:   c.Agent.MaxParallel,
		ContextBudget: c.Agent.ContextBudget,
		Limits: memory.Limits{
			MaxBytes:       c.Agent.MaxConversationBytes,
			MaxResultBytes: c.Agent.MaxResultBytes,
		},
		EnforcePolicy: c.Agent.EnforcePolicy,
	}
}

// CalendarEvents returns the configured events, or the seeded schedule.
func (c *Config) CalendarEvents() []calendar.Event {
	if len(c.Calendar.Events) > 0 {
		return c.Calendar.Events
	}
	return calendar.DefaultEvents()
}

// FlightOptions returns client options for the configured search backend.
func (c *Config) FlightOptions() []flights.Option {
	return []flights.Option{
		flights.WithBaseURL(c.Flights.BaseURL),
		flights.WithCurrency(c.Flights.Currency),
		flights.WithMaxOffers(c.Flights.MaxOffers),
		flights.WithTimeout(c.Flights.Timeout),
	}
}
