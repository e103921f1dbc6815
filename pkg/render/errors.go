package render

import (
	"strings"

	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// ErrorMapping splits a view's validation errors into messages shown next to
// inputs rendered on the current step and form-level messages for fields
// edited on an earlier step.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// Has reports whether field carries inline errors.
func (m ErrorMapping) Has(field string) bool {
	return len(m.Fields[field]) > 0
}

// MapErrors builds the mapping for view. Form-level messages follow the
// record field order so output is deterministic.
func MapErrors(view wizard.View) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(view.Errors) == 0 {
		mapping.Fields = nil
		return mapping
	}

	inputs := make(map[string]struct{}, len(view.Inputs))
	for _, name := range view.Inputs {
		inputs[name] = struct{}{}
	}

	for _, field := range orderedFields(view.Errors) {
		messages := normalizeMessages([]string{view.Errors[field]})
		if len(messages) == 0 {
			continue
		}
		if _, inline := inputs[field]; inline {
			mapping.Fields[field] = append(mapping.Fields[field], messages...)
			continue
		}
		mapping.Form = append(mapping.Form, messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

func orderedFields(errs map[string]string) []string {
	out := make([]string, 0, len(errs))
	seen := make(map[string]struct{}, len(errs))
	for _, field := range listing.Fields() {
		if _, ok := errs[field]; ok {
			out = append(out, field)
			seen[field] = struct{}{}
		}
	}
	for field := range errs {
		if _, ok := seen[field]; !ok {
			out = append(out, field)
		}
	}
	return out
}

// MergeFormErrors concatenates form-level messages, trimming whitespace and
// dropping duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
