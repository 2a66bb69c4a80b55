package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem       Role = "system"
	RoleUser         Role = "user"
	RoleAssistant    Role = "assistant"
	RoleActionResult Role = "action-result"
)

// ActionRequest is a model proposal to invoke a registered action.
type ActionRequest struct {
	CorrelationID string          `json:"correlation_id"`
	ActionName    string          `json:"action_name"`
	Arguments     json.RawMessage `json:"arguments,omitempty"`
}

// ActionResult carries the canonical text payload of one executed request.
type ActionResult struct {
	CorrelationID string `json:"correlation_id"`
	ActionName    string `json:"action_name"`
	Payload       string `json:"payload"`
	IsError       bool   `json:"is_error,omitempty"`
}

// Turn is one entry of the conversation log.
type Turn struct {
	Role     Role            `json:"role"`
	Content  string          `json:"content,omitempty"`
	Requests []ActionRequest `json:"requests,omitempty"`
	Result   *ActionResult   `json:"result,omitempty"`
}

// IsFinalAnswer reports whether t is an assistant turn without action requests.
func (t Turn) IsFinalAnswer() bool {
	return t.Role == RoleAssistant && len(t.Requests) == 0
}

var (
	ErrPendingRequests      = errors.New("memory: previous action requests are still pending")
	ErrDuplicateCorrelation = errors.New("memory: duplicate correlation id")
	ErrUnknownCorrelation   = errors.New("memory: result does not answer a pending request")
	ErrNoRequests           = errors.New("memory: assistant proposal carries no action requests")
)

// TruncationSentinel terminates payloads clamped to the conversation limits.
const TruncationSentinel = "\n-- truncated --"

// Limits caps the stored text of a conversation. Zero values disable a cap.
// MaxBytes applies to assistant content and result payloads appended after the
// prompts; request arguments are stored whole so they stay valid JSON.
type Limits struct {
	MaxBytes       int // whole conversation
	MaxResultBytes int // single action result payload
}

// Conversation is the append-only turn log of one session.
// It is owned by a single goroutine and is not safe for concurrent use.
type Conversation struct {
	turns   []Turn
	pending []ActionRequest
	seen    map[string]struct{}
	size    int
	limits  Limits
}

// NewConversation starts a log with the system instruction and the user request.
func NewConversation(system, user string, limits Limits) *Conversation {
	c := &Conversation{seen: make(map[string]struct{}), limits: limits}
	c.push(Turn{Role: RoleSystem, Content: system})
	c.push(Turn{Role: RoleUser, Content: user})
	return c
}

// AppendRequests records an assistant turn proposing one or more actions.
func (c *Conversation) AppendRequests(content string, reqs []ActionRequest) error {
	if len(c.pending) > 0 {
		return ErrPendingRequests
	}
	if len(reqs) == 0 {
		return ErrNoRequests
	}
	batch := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		if r.CorrelationID == "" {
			return fmt.Errorf("%w: empty id for action %q", ErrDuplicateCorrelation, r.ActionName)
		}
		if _, ok := c.seen[r.CorrelationID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCorrelation, r.CorrelationID)
		}
		if _, ok := batch[r.CorrelationID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCorrelation, r.CorrelationID)
		}
		batch[r.CorrelationID] = struct{}{}
	}
	cp := make([]ActionRequest, len(reqs))
	copy(cp, reqs)
	reserve := 0
	for _, r := range cp {
		c.seen[r.CorrelationID] = struct{}{}
		reserve += len(r.ActionName) + len(r.Arguments)
	}
	c.pending = append(c.pending, cp...)
	c.push(Turn{Role: RoleAssistant, Content: c.clamp(content, 0, reserve), Requests: cp})
	return nil
}

// AppendResult answers a pending request. The stored result may have its payload
// clamped to the configured limits; the stored copy is returned.
func (c *Conversation) AppendResult(res ActionResult) (ActionResult, error) {
	idx := -1
	for i, p := range c.pending {
		if p.CorrelationID == res.CorrelationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrUnknownCorrelation, res.CorrelationID)
	}
	if name := c.pending[idx].ActionName; res.ActionName != name {
		return ActionResult{}, fmt.Errorf("%w: %s answers %q, requested %q", ErrUnknownCorrelation, res.CorrelationID, res.ActionName, name)
	}
	c.pending = append(c.pending[:idx], c.pending[idx+1:]...)

	res.Payload = c.clamp(res.Payload, c.limits.MaxResultBytes, 0)
	stored := res
	c.push(Turn{Role: RoleActionResult, Result: &stored})
	return res, nil
}

// AppendAnswer records the final assistant answer, clamped to the room left
// under the conversation cap.
func (c *Conversation) AppendAnswer(content string) error {
	if len(c.pending) > 0 {
		return ErrPendingRequests
	}
	c.push(Turn{Role: RoleAssistant, Content: c.clamp(content, 0, 0)})
	return nil
}

// Pending returns the unanswered requests in the order they were proposed.
func (c *Conversation) Pending() []ActionRequest {
	out := make([]ActionRequest, len(c.pending))
	copy(out, c.pending)
	return out
}

// Turns returns a copy of the log, oldest first.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Known reports whether id was already used by a request of this session.
func (c *Conversation) Known(id string) bool {
	_, ok := c.seen[id]
	return ok
}

// Len returns the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// Size returns the number of stored text bytes.
func (c *Conversation) Size() int { return c.size }

func (c *Conversation) push(t Turn) {
	c.size += turnSize(t)
	c.turns = append(c.turns, t)
}

// clamp shortens text to itemLimit (when positive) and to whatever room is left
// under the conversation cap once reserve bytes are set aside.
func (c *Conversation) clamp(payload string, itemLimit, reserve int) string {
	limit := -1
	if itemLimit > 0 {
		limit = itemLimit
	}
	if c.limits.MaxBytes > 0 {
		room := c.limits.MaxBytes - c.size - reserve
		if room < 0 {
			room = 0
		}
		if limit < 0 || room < limit {
			limit = room
		}
	}
	if limit < 0 || len(payload) <= limit {
		return payload
	}
	keep := limit - len(TruncationSentinel)
	if keep <= 0 {
		return TruncationSentinel
	}
	for keep > 0 && !utf8.RuneStart(payload[keep]) {
		keep--
	}
	return payload[:keep] + TruncationSentinel
}

func turnSize(t Turn) int {
	n := len(t.Content)
	for _, r := range t.Requests {
		n += len(r.ActionName) + len(r.Arguments)
	}
	if t.Result != nil {
		n += len(t.Result.Payload)
	}
	return n
}

// WriteTranscript writes turns as indented JSON.
func WriteTranscript(w io.Writer, turns []Turn) error {
	b, err := json.MarshalIndent(turns, "", " ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
