package windowing_test

import (
	"testing"

	"github.com/petasbytes/travel-agent/internal/windowing"
	"github.com/petasbytes/travel-agent/memory"
)

func TestPrepareSendWindow_PinsSystemAndRequest(t *testing.T) {
	turns := []memory.Turn{
		Sys("sys"),             // 3+4 = 7
		User("req"),            // 7
		Asst("", "a"),          // 3+4 = 7
		Res("a", "old", false), // 7 => pair 14
		Asst("", "b"),          // 7
		Res("b", "new", false), // 7 => pair 14
	}
	budget := 28 // pinned 14 + newest pair 14

	window, stats := windowing.PrepareSendWindow(turns, budget, windowing.HeuristicCounter{})

	if stats.Total != 28 || stats.Pinned != 2 || stats.IncludedGroups != 1 || stats.SkippedGroups != 1 || stats.OverBudgetNewest {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(window) != 4 {
		t.Fatalf("unexpected window length: got %d want 4", len(window))
	}
	if window[0].Role != memory.RoleSystem || window[1].Role != memory.RoleUser {
		t.Fatalf("pinned turns missing: %+v", window[:2])
	}
	if window[2].Requests[0].CorrelationID != "b" || window[3].Result.CorrelationID != "b" {
		t.Fatalf("expected newest pair, got %+v", window[2:])
	}
}

func TestPrepareSendWindow_AllFit(t *testing.T) {
	turns := []memory.Turn{Sys("s"), User("u"), Asst("", "a"), Res("a", "r", false), Asst("done")}
	window, stats := windowing.PrepareSendWindow(turns, 1000, windowing.HeuristicCounter{})
	if len(window) != len(turns) || stats.SkippedGroups != 0 || stats.IncludedGroups != 2 {
		t.Fatalf("unexpected result: len=%d stats=%+v", len(window), stats)
	}
}

func TestPrepareSendWindow_NewestGroupOverBudget(t *testing.T) {
	turns := []memory.Turn{
		User("req"),                   // 7
		Asst("", "a"),                 // 7
		Res("a", "xxxxxxxxxx", false), // 14 => pair 21
	}
	window, stats := windowing.PrepareSendWindow(turns, 20, windowing.HeuristicCounter{})
	if len(window) != 0 || !stats.OverBudgetNewest || stats.IncludedGroups != 0 {
		t.Fatalf("unexpected result: len=%d stats=%+v", len(window), stats)
	}
}

func TestPrepareSendWindow_PinnedOverBudget(t *testing.T) {
	turns := []memory.Turn{Sys("a long system prompt"), User("req")}
	window, stats := windowing.PrepareSendWindow(turns, 5, windowing.HeuristicCounter{})
	if len(window) != 0 || !stats.OverBudgetNewest {
		t.Fatalf("unexpected result: len=%d stats=%+v", len(window), stats)
	}
}

func TestPrepareSendWindow_NoCapacityBudget(t *testing.T) {
	window, stats := windowing.PrepareSendWindow([]memory.Turn{User("x")}, 0, windowing.HeuristicCounter{})
	if len(window) != 0 || !stats.OverBudgetNewest {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestPrepareSendWindow_Empty(t *testing.T) {
	window, stats := windowing.PrepareSendWindow(nil, 123, windowing.HeuristicCounter{})
	if window != nil || stats.Budget != 123 || stats.OverBudgetNewest {
		t.Fatalf("unexpected result: window=%v stats=%+v", window, stats)
	}
}
