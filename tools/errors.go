package tools

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/sjson"
)

var (
	ErrDuplicateAction  = errors.New("duplicate action")
	ErrUnknownAction    = errors.New("unknown action")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrSchemaMismatch   = errors.New("schema mismatch")
	ErrSealed           = errors.New("registry is sealed")
)

// Payload error codes.
const (
	CodeInvalidArguments = "ERR_INVALID_ARGUMENTS"
	CodeUnknownAction    = "ERR_UNKNOWN_ACTION"
	CodeActionFailed     = "ERR_ACTION_FAILED"
	CodePolicyViolation  = "ERR_POLICY_VIOLATION"
)

// Error is a machine-readable error body surfaced back to the model.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error returns a compact, single-line JSON string.
func (e Error) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Payload renders e as the canonical result payload {"error":{...}}.
func (e Error) Payload() string {
	out, err := sjson.Set(`{}`, "error.code", e.Code)
	if err != nil {
		return `{"error":` + e.Error() + `}`
	}
	out, err = sjson.Set(out, "error.message", e.Message)
	if err != nil {
		return `{"error":` + e.Error() + `}`
	}
	return out
}

// AsError classifies err into a payload error. Registry sentinels map to their
// codes; anything else is an action failure.
func AsError(err error) Error {
	var te Error
	switch {
	case errors.As(err, &te):
		return te
	case errors.Is(err, ErrUnknownAction):
		return Error{Code: CodeUnknownAction, Message: err.Error()}
	case errors.Is(err, ErrInvalidArguments):
		return Error{Code: CodeInvalidArguments, Message: err.Error()}
	default:
		return Error{Code: CodeActionFailed, Message: err.Error()}
	}
}
