package render

import (
	"fmt"
	"sort"
	"strings"
)

// Hidden input names shared by the HTML renderer and the HTTP transport.
const (
	StepFieldName   = "_step"
	ActionFieldName = "action"
	CSRFFieldName   = "_csrf"
)

// HiddenField is a hidden form input emitted alongside the visible step.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// StepField records the step the form was rendered for so the transport can
// reject posts from a stale page.
func StepField(step int) HiddenField {
	return Hidden(StepFieldName, step)
}

// CSRFToken constructs a hidden field carrying token under the given input
// name, or "_csrf" when name is empty.
func CSRFToken(name, token string) HiddenField {
	if strings.TrimSpace(name) == "" {
		name = CSRFFieldName
	}
	return Hidden(name, token)
}

// MergeHiddenFields returns a copy of base with fields applied. Empty names
// are ignored; later fields win on name collisions.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	if len(base) == 0 && len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(fields))
	for key, value := range base {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			out[trimmed] = value
		}
	}
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		out[field.Name] = field.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields returns fields ordered by name for deterministic
// output.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	result := make([]HiddenField, 0, len(names))
	for _, name := range names {
		result = append(result, HiddenField{Name: strings.TrimSpace(name), Value: fields[name]})
	}
	return result
}
