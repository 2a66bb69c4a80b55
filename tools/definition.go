package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ParamType is the JSON type of an action parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

// FormatDate marks a string parameter holding an ISO calendar date (YYYY-MM-DD).
const FormatDate = "date"

// Param declares one named, typed parameter of an action.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Pattern     string // optional regular expression for strings
	Format      string // optional; FormatDate is validated
}

// Handler executes an action on raw JSON arguments and returns its canonical payload.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Definition is a registry entry. Build it with NewDefinition so the declared
// parameters can be checked against the handler's input type.
type Definition struct {
	Name        string
	Description string
	Params      []Param
	Function    Handler

	// inputSchema is reflected from the handler's input struct.
	inputSchema *jsonschema.Schema
}

// NewDefinition binds a typed handler. Arguments are decoded into T and the
// handler's result is encoded as compact JSON.
func NewDefinition[T any, R any](name, description string, params []Param, fn func(context.Context, T) (R, error)) Definition {
	return Definition{
		Name:        name,
		Description: description,
		Params:      params,
		inputSchema: GenerateSchema[T](),
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in T
			if len(input) > 0 {
				if err := json.Unmarshal(input, &in); err != nil {
					return "", fmt.Errorf("%w: %v", ErrInvalidArguments, err)
				}
			}
			out, err := fn(ctx, in)
			if err != nil {
				return "", err
			}
			b, err := json.Marshal(out)
			if err != nil {
				return "", fmt.Errorf("encode %s result: %w", name, err)
			}
			return string(b), nil
		},
	}
}

// GenerateSchema derives the JSON Schema of T. Fields are required unless their
// json tag carries omitempty.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
