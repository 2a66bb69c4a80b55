package windowing

import (
	"log/slog"

	"github.com/petasbytes/travel-agent/memory"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of turns [Start, End) in the original slice.
// Kind indicates whether it is a singleton or a validated request/result pair.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into turns
	End   int // exclusive index into turns
}

// GroupTurns groups turns into atomic units that keep requests with their results.
// Invariants:
// - A pair is an assistant turn carrying requests followed immediately by one
// action-result turn per request.
// - The results must answer exactly the requested correlation ids, in any order.
// - Error results group the same as successful ones.
func GroupTurns(turns []memory.Turn) []Group {
	groups := make([]Group, 0, len(turns))
	for i := 0; i < len(turns); {
		t := turns[i]
		if t.Role == memory.RoleAssistant && len(t.Requests) > 0 {
			end, reason := pairEnd(turns, i)
			if reason == "" {
				groups = append(groups, Group{Kind: GroupPair, Start: i, End: end})
				i = end
				continue
			}
			slog.Debug("windowing: exclude pair", "reason", reason, "idx", i)
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// pairEnd returns the exclusive end of the pair starting at i, or a reason code
// when the following turns do not answer the requests exactly.
func pairEnd(turns []memory.Turn, i int) (int, string) {
	want := make(map[string]struct{}, len(turns[i].Requests))
	for _, r := range turns[i].Requests {
		want[r.CorrelationID] = struct{}{}
	}
	n := len(want)
	seen := make(map[string]struct{}, n)
	j := i + 1
	for ; j < len(turns) && turns[j].Role == memory.RoleActionResult && turns[j].Result != nil; j++ {
		id := turns[j].Result.CorrelationID
		if _, ok := want[id]; !ok {
			return 0, "extra_results"
		}
		seen[id] = struct{}{}
	}
	switch {
	case j == i+1:
		return 0, "not_followed_by_results"
	case len(seen) != n || j-i-1 != n:
		return 0, "missing_results"
	}
	return j, ""
}
