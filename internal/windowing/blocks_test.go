package windowing_test

import (
	"testing"

	"github.com/petasbytes/travel-agent/internal/windowing"
	"github.com/petasbytes/travel-agent/memory"
)

func TestGroupTurns_Invariants(t *testing.T) {
	single := func(s int) windowing.Group {
		return windowing.Group{Kind: windowing.GroupSingleton, Start: s, End: s + 1}
	}
	tests := []struct {
		name  string
		turns []memory.Turn
		want  []windowing.Group
	}{
		{
			name:  "valid pair: one request",
			turns: []memory.Turn{Asst("", "t1"), Res("t1", "{}", false)},
			want:  []windowing.Group{{Kind: windowing.GroupPair, Start: 0, End: 2}},
		},
		{
			name:  "parallel requests answered out of order",
			turns: []memory.Turn{Asst("", "t1", "t2"), Res("t2", "{}", false), Res("t1", "{}", true)},
			want:  []windowing.Group{{Kind: windowing.GroupPair, Start: 0, End: 3}},
		},
		{
			name:  "missing result",
			turns: []memory.Turn{Asst("", "t1", "t2"), Res("t1", "{}", false)},
			want:  []windowing.Group{single(0), single(1)},
		},
		{
			name:  "extra result",
			turns: []memory.Turn{Asst("", "t1"), Res("t9", "{}", false)},
			want:  []windowing.Group{single(0), single(1)},
		},
		{
			name:  "not followed by results",
			turns: []memory.Turn{Asst("", "t1"), User("hi")},
			want:  []windowing.Group{single(0), single(1)},
		},
		{
			name:  "trailing request",
			turns: []memory.Turn{Asst("", "t1")},
			want:  []windowing.Group{single(0)},
		},
		{
			name:  "final answer is a singleton",
			turns: []memory.Turn{Asst("", "t1"), Res("t1", "{}", false), Asst("done")},
			want:  []windowing.Group{{Kind: windowing.GroupPair, Start: 0, End: 2}, single(2)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := windowing.GroupTurns(tt.turns)
			if !groupsEqual(got, tt.want) {
				t.Fatalf("groups mismatch:\n got=%+v\nwant=%+v", got, tt.want)
			}
		})
	}
}
