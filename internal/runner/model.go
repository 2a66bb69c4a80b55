package runner

import (
	"context"

	"github.com/petasbytes/travel-agent/memory"
	"github.com/petasbytes/travel-agent/tools"
)

// Mode constrains what a model may return in one round.
type Mode int

const (
	// ModeAuto lets the model answer or request actions.
	ModeAuto Mode = iota
	// ModeAnswerOnly asks for a final answer. The catalog is still sent so earlier
	// requests stay interpretable, but the model must not request actions.
	ModeAnswerOnly
)

func (m Mode) String() string {
	if m == ModeAnswerOnly {
		return "answer-only"
	}
	return "auto"
}

// DecisionRequest is what the model sees in one round.
type DecisionRequest struct {
	Turns   []memory.Turn
	Catalog []tools.Descriptor
	Mode    Mode
}

// Decision is either a final answer (no Requests) or a batch of action requests.
type Decision struct {
	Content  string
	Requests []memory.ActionRequest
}

// Model decides the next step of a session.
type Model interface {
	Decide(ctx context.Context, req DecisionRequest) (Decision, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, req DecisionRequest) (Decision, error)

func (f ModelFunc) Decide(ctx context.Context, req DecisionRequest) (Decision, error) {
	return f(ctx, req)
}

// Guard vets requests for sensitive actions against the session's prior results.
type Guard interface {
	Guards(action string) bool
	Admit(req memory.ActionRequest, prior []memory.ActionResult) error
}
