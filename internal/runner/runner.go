package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/petasbytes/travel-agent/internal/metrics"
	"github.com/petasbytes/travel-agent/internal/telemetry"
	"github.com/petasbytes/travel-agent/internal/windowing"
	"github.com/petasbytes/travel-agent/memory"
	"github.com/petasbytes/travel-agent/tools"
)

var (
	ErrRoundLimitExceeded = errors.New("round limit exceeded")
	ErrContextBudget      = errors.New("context budget too small for the newest exchange")
)

// Config bounds a session.
type Config struct {
	SystemPrompt  string
	MaxRounds     int
	ActionTimeout time.Duration
	MaxParallel   int
	// ContextBudget is the estimated size, in runes, of the window sent per round.
	ContextBudget int
	Limits        memory.Limits
	// EnforcePolicy makes guard rejections block the action; otherwise they are logged.
	EnforcePolicy bool
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		MaxRounds:     4,
		ActionTimeout: 20 * time.Second,
		MaxParallel:   4,
		ContextBudget: 48000,
		Limits:        memory.Limits{MaxBytes: 64 << 10, MaxResultBytes: 8 << 10},
		EnforcePolicy: true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxRounds <= 0 {
		c.MaxRounds = d.MaxRounds
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = d.ActionTimeout
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = d.MaxParallel
	}
	if c.ContextBudget <= 0 {
		c.ContextBudget = d.ContextBudget
	}
	return c
}

// Runner executes sessions. It holds no per-session state and may run
// sessions one after another.
type Runner struct {
	Model     Model
	Registry  *tools.Registry
	Guard     Guard
	Config    Config
	Logger    *slog.Logger
	Telemetry *telemetry.Sink
	Counter   windowing.TokenCounter
}

// Option configures a Runner built by New.
type Option func(*Runner)

func WithGuard(g Guard) Option                    { return func(r *Runner) { r.Guard = g } }
func WithLogger(l *slog.Logger) Option            { return func(r *Runner) { r.Logger = l } }
func WithTelemetry(s *telemetry.Sink) Option      { return func(r *Runner) { r.Telemetry = s } }
func WithCounter(c windowing.TokenCounter) Option { return func(r *Runner) { r.Counter = c } }

func New(model Model, registry *tools.Registry, cfg Config, opts ...Option) *Runner {
	r := &Runner{Model: model, Registry: registry, Config: cfg}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Result is the outcome of a session. On error it still carries the rounds
// used and the transcript so far.
type Result struct {
	SessionID string
	Answer    string
	Rounds    int
	Turns     []memory.Turn
}

// Session holds the state of one Run. It is discarded when Run returns.
type Session struct {
	id      string
	round   int
	conv    *memory.Conversation
	history []memory.ActionResult
}

func newSession(cfg Config, request string) *Session {
	return &Session{
		id:   uuid.NewString(),
		conv: memory.NewConversation(cfg.SystemPrompt, request, cfg.Limits),
	}
}

func (s *Session) result(answer string) *Result {
	return &Result{SessionID: s.id, Answer: answer, Rounds: s.round, Turns: s.conv.Turns()}
}

// Run answers one request. Action failures become error results the model
// sees; only session-level failures are returned.
func (r *Runner) Run(ctx context.Context, request string) (*Result, error) {
	if r.Model == nil || r.Registry == nil {
		return nil, errors.New("runner: model and registry are required")
	}
	cfg := r.Config.withDefaults()
	s := newSession(cfg, request)
	ctx = telemetry.WithSessionID(ctx, s.id)
	log := r.logger().With("session_id", s.id)

	r.Telemetry.Emit(telemetry.EventSessionStarted, map[string]any{
		"session_id":     s.id,
		"max_rounds":     cfg.MaxRounds,
		"context_budget": cfg.ContextBudget,
		"actions":        r.Registry.Names(),
	})
	r.Telemetry.EmitLocalFeatures(ctx, request)
	log.Info("session started", "max_rounds", cfg.MaxRounds)

	res, err := r.loop(ctx, cfg, s, log)

	fields := metrics.MeasureTurns(res.Turns).Fields()
	fields["session_id"] = s.id
	fields["rounds"] = res.Rounds
	fields["outcome"] = outcomeLabel(err)
	r.Telemetry.Emit(telemetry.EventSessionFinished, fields)
	if err != nil {
		log.Warn("session failed", "rounds", res.Rounds, "err", err)
		return res, err
	}
	log.Info("session finished", "rounds", res.Rounds)
	return res, nil
}

func (r *Runner) loop(ctx context.Context, cfg Config, s *Session, log *slog.Logger) (*Result, error) {
	catalog := r.Registry.Describe()
	counter := r.Counter
	if counter == nil {
		counter = windowing.HeuristicCounter{}
	}

	for s.round < cfg.MaxRounds {
		if err := ctx.Err(); err != nil {
			return s.result(""), err
		}
		s.round++
		mode := ModeAuto
		if s.round == cfg.MaxRounds {
			mode = ModeAnswerOnly
		}
		rctx := telemetry.WithRound(ctx, s.round)
		rlog := log.With("round", s.round)

		window, stats := windowing.PrepareSendWindow(s.conv.Turns(), cfg.ContextBudget, counter)
		r.Telemetry.Emit(telemetry.EventWindowPrepared, map[string]any{
			"session_id":         s.id,
			"round":              s.round,
			"mode":               mode.String(),
			"budget":             stats.Budget,
			"total_estimated":    stats.Total,
			"included_groups":    stats.IncludedGroups,
			"skipped_groups":     stats.SkippedGroups,
			"over_budget_newest": stats.OverBudgetNewest,
		})
		if stats.OverBudgetNewest {
			return s.result(""), fmt.Errorf("%w: budget %d", ErrContextBudget, cfg.ContextBudget)
		}

		rlog.Debug("awaiting model", "mode", mode.String(), "turns", len(window))
		dec, err := r.Model.Decide(rctx, DecisionRequest{Turns: window, Catalog: catalog, Mode: mode})
		if err != nil {
			return s.result(""), fmt.Errorf("round %d: model: %w", s.round, err)
		}
		if len(dec.Requests) == 0 {
			if err := s.conv.AppendAnswer(dec.Content); err != nil {
				return s.result(""), err
			}
			return s.result(dec.Content), nil
		}
		if mode == ModeAnswerOnly {
			return s.result(""), fmt.Errorf("%w: model requested %d action(s) after %d rounds",
				ErrRoundLimitExceeded, len(dec.Requests), s.round)
		}

		reqs := normalize(dec.Requests, s.round, s.conv.Known)
		if err := s.conv.AppendRequests(dec.Content, reqs); err != nil {
			return s.result(""), fmt.Errorf("round %d: %w", s.round, err)
		}
		results := r.executeBatch(rctx, cfg, s, reqs, rlog)
		for _, res := range results {
			stored, err := s.conv.AppendResult(res)
			if err != nil {
				return s.result(""), fmt.Errorf("round %d: %w", s.round, err)
			}
			s.history = append(s.history, stored)
		}
	}
	// unreachable with MaxRounds >= 1: the last round is answer-only
	return s.result(""), ErrRoundLimitExceeded
}

// normalize fills missing arguments and gives every request a correlation id
// unique within the session. Empty, reused or repeated ids are replaced by
// r<round>-<position>, suffixed when that collides with an id already taken.
// Replacement ids depend only on the round and position so reruns stay identical.
func normalize(reqs []memory.ActionRequest, round int, known func(string) bool) []memory.ActionRequest {
	out := make([]memory.ActionRequest, len(reqs))
	taken := make(map[string]struct{}, len(reqs))
	var replace []int
	for i, req := range reqs {
		if len(req.Arguments) == 0 {
			req.Arguments = []byte(`{}`)
		}
		out[i] = req
		id := req.CorrelationID
		if _, dup := taken[id]; id == "" || dup || known(id) {
			replace = append(replace, i)
			continue
		}
		taken[id] = struct{}{}
	}
	for _, i := range replace {
		id := fmt.Sprintf("r%d-%d", round, i+1)
		for k := 2; ; k++ {
			if _, dup := taken[id]; !dup && !known(id) {
				break
			}
			id = fmt.Sprintf("r%d-%d.%d", round, i+1, k)
		}
		taken[id] = struct{}{}
		out[i].CorrelationID = id
	}
	return out
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "answered"
	case errors.Is(err, ErrRoundLimitExceeded):
		return "round_limit_exceeded"
	case errors.Is(err, ErrContextBudget):
		return "context_budget"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "failed"
	}
}
