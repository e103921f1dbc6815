package steps

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formwizard/pkg/listing"
)

// FieldRule is one required field of a step schema.
type FieldRule struct {
	Field   string
	Step    int
	Schema  *openapi3.Schema
	Message string
}

// Check validates the field's current value in rec against the rule schema.
func (r FieldRule) Check(rec listing.Record) error {
	value, err := rec.Value(r.Field)
	if err != nil {
		return err
	}
	if r.Schema == nil {
		return nil
	}
	return r.Schema.VisitJSON(jsonValue(value))
}

// jsonValue converts record values into the JSON types kin-openapi expects.
// Strings are trimmed so whitespace-only input counts as empty.
func jsonValue(value any) any {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case listing.Tier:
		return strings.TrimSpace(string(v))
	case int:
		return float64(v)
	case []listing.Attachment:
		out := make([]any, len(v))
		for i, att := range v {
			out[i] = map[string]any{"name": att.Name, "size": float64(att.Size)}
		}
		return out
	default:
		return v
	}
}

// Schema is the cumulative validation contract for one step.
type Schema struct {
	step  int
	rules []FieldRule
}

// Step reports which step the schema belongs to.
func (s Schema) Step() int {
	return s.step
}

// Rules returns a copy of the schema's rules in evaluation order.
func (s Schema) Rules() []FieldRule {
	return append([]FieldRule(nil), s.rules...)
}

// Required lists the field names the schema checks, in rule order.
func (s Schema) Required() []string {
	out := make([]string, 0, len(s.rules))
	for _, rule := range s.rules {
		out = append(out, rule.Field)
	}
	return out
}

// Validate checks every rule against rec and reports all failing fields in
// one pass.
func (s Schema) Validate(rec listing.Record) Result {
	result := Result{Step: s.step}
	for _, rule := range s.rules {
		if err := rule.Check(rec); err != nil {
			result.add(rule.Field, rule.Message)
		}
	}
	return result
}

// Result is the outcome of validating a record against a step schema.
// Errors maps field name to message and is nil when the record is valid.
type Result struct {
	Step   int
	Errors map[string]string
	order  []string
}

// Valid reports whether no rule failed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Fields returns the failing field names in rule order.
func (r Result) Fields() []string {
	return append([]string(nil), r.order...)
}

// Message returns the error message for field, if any.
func (r Result) Message(field string) (string, bool) {
	msg, ok := r.Errors[field]
	return msg, ok
}

// Clone returns a copy whose map can be handed to presentation code.
func (r Result) Clone() Result {
	out := Result{Step: r.Step, order: append([]string(nil), r.order...)}
	if r.Errors != nil {
		out.Errors = make(map[string]string, len(r.Errors))
		for k, v := range r.Errors {
			out.Errors[k] = v
		}
	}
	return out
}

// String summarises the failing fields for log lines.
func (r Result) String() string {
	if r.Valid() {
		return fmt.Sprintf("step %d: valid", r.Step)
	}
	parts := make([]string, 0, len(r.order))
	for _, field := range r.order {
		parts = append(parts, field+": "+r.Errors[field])
	}
	return fmt.Sprintf("step %d: %s", r.Step, strings.Join(parts, "; "))
}

func (r *Result) add(field, message string) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	if _, exists := r.Errors[field]; !exists {
		r.order = append(r.order, field)
	}
	r.Errors[field] = message
}
