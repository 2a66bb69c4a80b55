package windowing

import (
	"log/slog"

	"github.com/petasbytes/travel-agent/memory"
)

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated cost of the pinned turns plus included groups.
// - Budget: the budget used.
// - Pinned: number of leading turns always sent (system and original request).
// - IncludedGroups: number of groups included after the pinned turns.
// - SkippedGroups: groups after the pinned turns that were dropped.
// - OverBudgetNewest: true when the pinned turns plus the newest group exceed Budget.
type Stats struct {
	Total            int
	Budget           int
	Pinned           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// pinnedPrefix counts the leading system turn and the user turn after it.
func pinnedPrefix(turns []memory.Turn) int {
	n := 0
	if n < len(turns) && turns[n].Role == memory.RoleSystem {
		n++
	}
	if n < len(turns) && turns[n].Role == memory.RoleUser {
		n++
	}
	return n
}

// PrepareSendWindow returns the turns to send (oldest→newest) within budget
// using the TokenCounter, without splitting groups.
//
// Rules:
// - The system turn and the original user turn are always kept.
// - Include whole groups scanning newest→oldest while total ≤ budget.
// - If the pinned turns plus the newest group exceed budget, return an empty
// window and set OverBudgetNewest.
// - If budget ≤ 0, return an empty window (OverBudgetNewest set when any turns exist).
func PrepareSendWindow(turns []memory.Turn, budget int, c TokenCounter) ([]memory.Turn, Stats) {
	if len(turns) == 0 {
		return nil, Stats{Budget: budget}
	}

	pin := pinnedPrefix(turns)
	rest := turns[pin:]
	groups := GroupTurns(rest)

	if budget <= 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
	}

	pinnedCost := 0
	for _, t := range turns[:pin] {
		pinnedCost += c.CountTurn(t)
	}
	if pinnedCost > budget {
		slog.Debug("windowing: pinned turns over budget", "budget", budget, "cost", pinnedCost)
		return nil, Stats{Budget: budget, Pinned: pin, SkippedGroups: len(groups), OverBudgetNewest: true}
	}

	total := pinnedCost
	included := 0
	startIdx := len(groups)
	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], rest)
		if total+cost <= budget {
			total += cost
			included++
			startIdx = gi
			continue
		}
		if included == 0 {
			slog.Debug("windowing: newest group over budget", "budget", budget, "cost", cost)
			return nil, Stats{Budget: budget, Pinned: pin, SkippedGroups: len(groups), OverBudgetNewest: true}
		}
		break
	}

	window := make([]memory.Turn, 0, pin+len(rest))
	window = append(window, turns[:pin]...)
	if included > 0 {
		window = append(window, rest[groups[startIdx].Start:]...)
	}
	return window, Stats{
		Total:          total,
		Budget:         budget,
		Pinned:         pin,
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
	}
}
