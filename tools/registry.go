package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/petasbytes/travel-agent/internal/calendar"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Descriptor is the model-facing description of one action.
type Descriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// InputSchema is a JSON Schema object whose properties keep declaration order.
type InputSchema struct {
	Type       string                              `json:"type"`
	Properties *orderedmap.OrderedMap[string, any] `json:"properties"`
	Required   []string                            `json:"required,omitempty"`
}

type entry struct {
	def      Definition
	patterns map[string]*regexp.Regexp
}

// Registry maps action names to definitions. Once sealed it is immutable and
// safe for concurrent reads.
type Registry struct {
	order   []string
	entries map[string]entry
	sealed  bool
}

// NewRegistry registers defs in order and seals the result. It fails with
// ErrDuplicateAction on a repeated name and with ErrSchemaMismatch when a
// definition's declared parameters disagree with its handler's input type.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{entries: make(map[string]entry, len(defs))}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	r.Seal()
	return r, nil
}

// Seal stops further registration.
func (r *Registry) Seal() { r.sealed = true }

// Register adds def to an unsealed registry.
func (r *Registry) Register(def Definition) error {
	if r.sealed {
		return ErrSealed
	}
	if r.entries == nil {
		r.entries = make(map[string]entry)
	}
	if def.Name == "" {
		return fmt.Errorf("%w: action name is empty", ErrSchemaMismatch)
	}
	if _, ok := r.entries[def.Name]; ok {
		return fmt.Errorf("%w: %s already registered", ErrDuplicateAction, def.Name)
	}
	if def.Function == nil {
		return fmt.Errorf("%w: action %q has no handler", ErrSchemaMismatch, def.Name)
	}
	if err := checkShape(def); err != nil {
		return err
	}
	e := entry{def: def, patterns: make(map[string]*regexp.Regexp)}
	for _, p := range def.Params {
		if p.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return fmt.Errorf("%w: action %q parameter %q: bad pattern: %v", ErrSchemaMismatch, def.Name, p.Name, err)
		}
		e.patterns[p.Name] = re
	}
	r.entries[def.Name] = e
	r.order = append(r.order, def.Name)
	return nil
}

// checkShape verifies that every parameter the handler accepts is declared with
// the same type and required flag, and that nothing else is declared.
func checkShape(def Definition) error {
	s := def.inputSchema
	if s == nil {
		return fmt.Errorf("%w: action %q was not built with NewDefinition", ErrSchemaMismatch, def.Name)
	}
	implType := make(map[string]string)
	var implOrder []string
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			implType[pair.Key] = pair.Value.Type
			implOrder = append(implOrder, pair.Key)
		}
	}
	implRequired := make(map[string]bool, len(s.Required))
	for _, n := range s.Required {
		implRequired[n] = true
	}

	var problems []string
	declared := make(map[string]bool, len(def.Params))
	for _, p := range def.Params {
		if declared[p.Name] {
			problems = append(problems, fmt.Sprintf("parameter %q declared twice", p.Name))
			continue
		}
		declared[p.Name] = true
		switch p.Type {
		case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		default:
			problems = append(problems, fmt.Sprintf("parameter %q has unsupported type %q", p.Name, p.Type))
			continue
		}
		typ, ok := implType[p.Name]
		if !ok {
			problems = append(problems, fmt.Sprintf("declared parameter %q is not accepted by the handler", p.Name))
			continue
		}
		if typ != string(p.Type) {
			problems = append(problems, fmt.Sprintf("parameter %q declared as %s, handler expects %s", p.Name, p.Type, typ))
		}
		if implRequired[p.Name] != p.Required {
			problems = append(problems, fmt.Sprintf("parameter %q required=%t, handler requires=%t", p.Name, p.Required, implRequired[p.Name]))
		}
	}
	for _, n := range implOrder {
		if !declared[n] {
			problems = append(problems, fmt.Sprintf("handler parameter %q is not declared", n))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: action %q: %s", ErrSchemaMismatch, def.Name, strings.Join(problems, "; "))
	}
	return nil
}

// Resolve returns the definition registered under name.
func (r *Registry) Resolve(name string) (Definition, error) {
	e, ok := r.entries[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return e.def, nil
}

// Names returns the registered action names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Describe returns the catalog handed to the model, in registration order.
func (r *Registry) Describe() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		def := r.entries[name].def
		props := orderedmap.New[string, any]()
		var required []string
		for _, p := range def.Params {
			prop := map[string]any{"type": string(p.Type)}
			if p.Description != "" {
				prop["description"] = p.Description
			}
			if p.Pattern != "" {
				prop["pattern"] = p.Pattern
			}
			if p.Format != "" {
				prop["format"] = p.Format
			}
			props.Set(p.Name, prop)
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out = append(out, Descriptor{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: InputSchema{Type: "object", Properties: props, Required: required},
		})
	}
	return out
}

// Prepare resolves name and validates args against its declared parameters.
// The action itself is never called.
func (r *Registry) Prepare(name string, args json.RawMessage) (Definition, error) {
	e, ok := r.entries[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	if err := e.validate(args); err != nil {
		return Definition{}, err
	}
	return e.def, nil
}

// Validate checks args against the declared parameters of action name.
func (r *Registry) Validate(name string, args json.RawMessage) error {
	_, err := r.Prepare(name, args)
	return err
}

func (e entry) validate(args json.RawMessage) error {
	values := map[string]any{}
	if trimmed := bytes.TrimSpace(args); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: arguments are not valid JSON: %v", ErrInvalidArguments, err)
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: arguments must be a JSON object", ErrInvalidArguments)
		}
		values = obj
	}

	var problems []string
	known := make(map[string]bool, len(e.def.Params))
	for _, p := range e.def.Params {
		known[p.Name] = true
		v, present := values[p.Name]
		if !present || v == nil {
			if p.Required {
				problems = append(problems, fmt.Sprintf("missing required parameter %q", p.Name))
			}
			continue
		}
		if msg := e.checkValue(p, v); msg != "" {
			problems = append(problems, msg)
		}
	}
	var unknown []string
	for k := range values {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		problems = append(problems, fmt.Sprintf("unknown parameter %q", k))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s: %s", ErrInvalidArguments, e.def.Name, strings.Join(problems, "; "))
	}
	return nil
}

func (e entry) checkValue(p Param, v any) string {
	switch p.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("parameter %q must be a string", p.Name)
		}
		if re := e.patterns[p.Name]; re != nil && !re.MatchString(s) {
			return fmt.Sprintf("parameter %q value %q does not match %s", p.Name, s, p.Pattern)
		}
		if p.Format == FormatDate {
			if _, err := time.Parse(calendar.DateLayout, s); err != nil {
				return fmt.Sprintf("parameter %q value %q is not a YYYY-MM-DD date", p.Name, s)
			}
		}
	case TypeInteger:
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Sprintf("parameter %q must be an integer", p.Name)
		}
		if _, err := n.Int64(); err != nil {
			return fmt.Sprintf("parameter %q must be an integer", p.Name)
		}
	case TypeNumber:
		n, ok := v.(json.Number)
		if !ok {
			return fmt.Sprintf("parameter %q must be a number", p.Name)
		}
		if _, err := n.Float64(); err != nil {
			return fmt.Sprintf("parameter %q must be a number", p.Name)
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("parameter %q must be a boolean", p.Name)
		}
	}
	return ""
}
