package windowing_test

import (
	"encoding/json"

	"github.com/petasbytes/travel-agent/internal/windowing"
	"github.com/petasbytes/travel-agent/memory"
)

func Sys(text string) memory.Turn  { return memory.Turn{Role: memory.RoleSystem, Content: text} }
func User(text string) memory.Turn { return memory.Turn{Role: memory.RoleUser, Content: text} }

// Asst builds an assistant turn requesting one action per id.
func Asst(text string, ids ...string) memory.Turn {
	t := memory.Turn{Role: memory.RoleAssistant, Content: text}
	for _, id := range ids {
		t.Requests = append(t.Requests, memory.ActionRequest{CorrelationID: id, ActionName: "a", Arguments: json.RawMessage(`{}`)})
	}
	return t
}

// Res builds an action-result turn answering id.
func Res(id, payload string, isErr bool) memory.Turn {
	return memory.Turn{Role: memory.RoleActionResult, Result: &memory.ActionResult{
		CorrelationID: id, ActionName: "a", Payload: payload, IsError: isErr,
	}}
}

func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
