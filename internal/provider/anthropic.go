// Package provider adapts the Anthropic Messages API to the runner's model interface.
package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/petasbytes/travel-agent/internal/runner"
	"github.com/petasbytes/travel-agent/memory"
)

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest
const APIVersion = "2023-06-01"

// DefaultMaxTokens bounds each model reply.
const DefaultMaxTokens = 1024

// NewAnthropicClient returns a client for apiKey. An empty key falls back to
// ANTHROPIC_API_KEY in the environment.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *anthropic.Client {
	if apiKey != "" {
		opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	}
	c := anthropic.NewClient(opts...)
	return &c
}

// Anthropic implements runner.Model over the Messages API.
type Anthropic struct {
	Client    *anthropic.Client
	Model     anthropic.Model
	MaxTokens int64
}

func NewAnthropic(client *anthropic.Client, model string, maxTokens int64) *Anthropic {
	a := &Anthropic{Client: client, Model: anthropic.Model(model), MaxTokens: maxTokens}
	if a.Model == "" {
		a.Model = DefaultModel
	}
	if a.MaxTokens <= 0 {
		a.MaxTokens = DefaultMaxTokens
	}
	return a
}

// Decide sends the window and catalog and maps the reply to a decision.
func (a *Anthropic) Decide(ctx context.Context, req runner.DecisionRequest) (runner.Decision, error) {
	params := a.params(req)
	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return runner.Decision{}, err
	}

	var dec runner.Decision
	var text []string
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if v.Text != "" {
				text = append(text, v.Text)
			}
		case anthropic.ToolUseBlock:
			// Pass raw JSON input through to validation
			dec.Requests = append(dec.Requests, memory.ActionRequest{
				CorrelationID: v.ID,
				ActionName:    v.Name,
				Arguments:     json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	dec.Content = strings.Join(text, "\n")
	return dec, nil
}

func (a *Anthropic) params(req runner.DecisionRequest) anthropic.MessageNewParams {
	system, msgs := toMessages(req.Turns)
	params := anthropic.MessageNewParams{
		Model:     a.Model,
		MaxTokens: a.MaxTokens,
		Messages:  msgs,
		Tools:     toTools(req),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(params.Tools) > 0 {
		if req.Mode == runner.ModeAnswerOnly {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		} else {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
		}
	}
	return params
}

func toTools(req runner.DecisionRequest) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(req.Catalog))
	for _, d := range req.Catalog {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: d.InputSchema.Properties,
				Required:   d.InputSchema.Required,
			},
		}})
	}
	return out
}

// toMessages maps turns to Messages API shape. The system turn becomes the
// system prompt; consecutive results share one user message of tool_result
// blocks so every tool_use is answered in the next message.
func toMessages(turns []memory.Turn) (string, []anthropic.MessageParam) {
	var system []string
	var msgs []anthropic.MessageParam
	var results []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(results) > 0 {
			msgs = append(msgs, anthropic.NewUserMessage(results...))
			results = nil
		}
	}
	for _, t := range turns {
		switch t.Role {
		case memory.RoleSystem:
			system = append(system, t.Content)
		case memory.RoleUser:
			flush()
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		case memory.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if t.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(t.Content))
			}
			for _, r := range t.Requests {
				blocks = append(blocks, anthropic.NewToolUseBlock(r.CorrelationID, r.Arguments, r.ActionName))
			}
			if len(blocks) > 0 {
				msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
			}
		case memory.RoleActionResult:
			if t.Result != nil {
				results = append(results, anthropic.NewToolResultBlock(t.Result.CorrelationID, t.Result.Payload, t.Result.IsError))
			}
		}
	}
	flush()
	return strings.Join(system, "\n\n"), msgs
}
