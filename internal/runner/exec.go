package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/petasbytes/travel-agent/internal/telemetry"
	"github.com/petasbytes/travel-agent/memory"
	"github.com/petasbytes/travel-agent/tools"
)

// executeBatch runs one round's requests and returns their results in declared
// order. Unguarded requests run concurrently; guarded ones run afterwards, one
// at a time, so the guard sees every earlier result of the batch.
func (r *Runner) executeBatch(ctx context.Context, cfg Config, s *Session, reqs []memory.ActionRequest, log *slog.Logger) []memory.ActionResult {
	results := make([]memory.ActionResult, len(reqs))
	defs := make([]tools.Definition, len(reqs))
	var guarded []int

	sem := make(chan struct{}, cfg.MaxParallel)
	var wg sync.WaitGroup
	for i, req := range reqs {
		def, err := r.Registry.Prepare(req.ActionName, req.Arguments)
		if err != nil {
			results[i] = r.fail(ctx, req, tools.AsError(err), 0, log)
			continue
		}
		if r.Guard != nil && r.Guard.Guards(req.ActionName) {
			defs[i] = def
			guarded = append(guarded, i)
			continue
		}
		wg.Add(1)
		go func(i int, req memory.ActionRequest, def tools.Definition) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.invoke(ctx, cfg, req, def, log)
		}(i, req, def)
	}
	wg.Wait()

	for _, i := range guarded {
		req := reqs[i]
		prior := append(s.history[:len(s.history):len(s.history)], earlier(results, i)...)
		if err := r.Guard.Admit(req, prior); err != nil {
			if cfg.EnforcePolicy {
				log.Warn("action rejected by policy", "action", req.ActionName, "correlation_id", req.CorrelationID, "reason", err)
				results[i] = r.fail(ctx, req, tools.Error{Code: tools.CodePolicyViolation, Message: err.Error()}, 0, log)
				continue
			}
			log.Warn("policy advisory: executing anyway", "action", req.ActionName, "correlation_id", req.CorrelationID, "reason", err)
		}
		results[i] = r.invoke(ctx, cfg, req, defs[i], log)
	}
	return results
}

// earlier returns the results before index i that are already filled.
func earlier(results []memory.ActionResult, i int) []memory.ActionResult {
	var out []memory.ActionResult
	for _, res := range results[:i] {
		if res.CorrelationID != "" {
			out = append(out, res)
		}
	}
	return out
}

type outcome struct {
	payload string
	err     error
}

// invoke runs one action under the per-invocation timeout. Panics and
// timeouts become action failures.
func (r *Runner) invoke(ctx context.Context, cfg Config, req memory.ActionRequest, def tools.Definition, log *slog.Logger) memory.ActionResult {
	start := time.Now()
	actx, cancel := context.WithTimeout(ctx, cfg.ActionTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("action panicked: %v", p)}
			}
		}()
		payload, err := def.Function(actx, req.Arguments)
		done <- outcome{payload: payload, err: err}
	}()

	var o outcome
	select {
	case o = <-done:
	case <-actx.Done():
		o.err = fmt.Errorf("%s did not finish within %s: %w", req.ActionName, cfg.ActionTimeout, actx.Err())
	}
	elapsed := time.Since(start)
	if o.err != nil {
		return r.fail(ctx, req, tools.AsError(o.err), elapsed, log)
	}

	log.Debug("action executed", "action", req.ActionName, "correlation_id", req.CorrelationID, "duration", elapsed)
	r.emitExec(ctx, req, len(o.payload), elapsed, "")
	return memory.ActionResult{CorrelationID: req.CorrelationID, ActionName: req.ActionName, Payload: o.payload}
}

func (r *Runner) fail(ctx context.Context, req memory.ActionRequest, e tools.Error, elapsed time.Duration, log *slog.Logger) memory.ActionResult {
	log.Info("action failed", "action", req.ActionName, "correlation_id", req.CorrelationID, "code", e.Code)
	payload := e.Payload()
	r.emitExec(ctx, req, len(payload), elapsed, e.Code)
	return memory.ActionResult{CorrelationID: req.CorrelationID, ActionName: req.ActionName, Payload: payload, IsError: true}
}

// emitExec records sizes and outcome only; raw arguments and payloads stay out of telemetry.
func (r *Runner) emitExec(ctx context.Context, req memory.ActionRequest, outSize int, elapsed time.Duration, code string) {
	if !r.Telemetry.Enabled() {
		return
	}
	sessionID, _ := telemetry.SessionIDFromContext(ctx)
	fields := map[string]any{
		"session_id":     sessionID,
		"round":          telemetry.RoundFromContext(ctx),
		"action":         req.ActionName,
		"correlation_id": req.CorrelationID,
		"duration_ms":    elapsed.Milliseconds(),
		"input_size":     len(req.Arguments),
		"output_size":    outSize,
		"error":          nil,
	}
	if code != "" {
		fields["error"] = code
	}
	r.Telemetry.Emit(telemetry.EventActionExec, fields)
}
