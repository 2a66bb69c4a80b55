package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/travel-agent/memory"
)

// TokenCounter estimates input cost for turns or groups.
type TokenCounter interface {
	CountTurn(t memory.Turn) int
	CountGroup(g Group, all []memory.Turn) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
// - content: rune count of Turn.Content plus overhead when non-empty
// - requests: runes of the action name and raw arguments plus overhead each
// - results: runes of the payload plus overhead
type HeuristicCounter struct{}

// Fixed per-block overhead for deterministic counts; changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountTurn(t memory.Turn) int {
	total := 0
	if t.Content != "" || (len(t.Requests) == 0 && t.Result == nil) {
		total += utf8.RuneCountInString(t.Content) + blockOverhead
	}
	for _, r := range t.Requests {
		total += utf8.RuneCountInString(r.ActionName) + utf8.RuneCount(r.Arguments) + blockOverhead
	}
	if t.Result != nil {
		total += utf8.RuneCountInString(t.Result.Payload) + blockOverhead
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []memory.Turn) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountTurn(all[i])
	}
	return total
}
