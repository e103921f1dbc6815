package listing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArgument marks programming errors at the wizard boundary: unknown
// field names, values of the wrong type, or out-of-range indices.
var ErrInvalidArgument = errors.New("listing: invalid argument")

// Field names accepted by Record.Set and Record.Value.
const (
	FieldStep        = "step"
	FieldCategory    = "category"
	FieldTier        = "tier"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldAttachments = "attachments"
)

// Fields lists every record field in declaration order.
func Fields() []string {
	return []string{FieldStep, FieldCategory, FieldTier, FieldTitle, FieldDescription, FieldAttachments}
}

// Tier is the pricing package chosen on the first step.
type Tier string

const (
	TierFree   Tier = "free"
	TierGold   Tier = "gold"
	TierSilver Tier = "silver"
	TierBronze Tier = "bronze"
)

// Tiers returns the known tiers in display order.
func Tiers() []Tier {
	return []Tier{TierFree, TierGold, TierSilver, TierBronze}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	for _, known := range Tiers() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTier converts raw input into a Tier, ignoring case and surrounding
// whitespace.
func ParseTier(raw string) (Tier, error) {
	tier := Tier(strings.ToLower(strings.TrimSpace(raw)))
	if !tier.Valid() {
		return "", fmt.Errorf("%w: unknown tier %q", ErrInvalidArgument, raw)
	}
	return tier, nil
}

// Attachment is an opaque handle for a user-selected file. Data is kept in
// memory only for previews and is never serialized.
type Attachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// Record is the cumulative state of one wizard run.
type Record struct {
	Step        int          `json:"step"`
	Category    string       `json:"category"`
	Tier        Tier         `json:"tier"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewRecord returns the record a freshly mounted wizard starts from.
func NewRecord() Record {
	return Record{Step: 1}
}

// Clone returns a copy that shares no slices with r.
func (r Record) Clone() Record {
	out := r
	out.Attachments = CloneAttachments(r.Attachments)
	return out
}

// CloneAttachments copies the slice header and each attachment's payload.
func CloneAttachments(src []Attachment) []Attachment {
	if src == nil {
		return nil
	}
	out := make([]Attachment, len(src))
	for i, att := range src {
		out[i] = att
		if att.Data != nil {
			out[i].Data = append([]byte(nil), att.Data...)
		}
	}
	return out
}

// Value returns the value stored under field.
func (r Record) Value(field string) (any, error) {
	switch field {
	case FieldStep:
		return r.Step, nil
	case FieldCategory:
		return r.Category, nil
	case FieldTier:
		return r.Tier, nil
	case FieldTitle:
		return r.Title, nil
	case FieldDescription:
		return r.Description, nil
	case FieldAttachments:
		return CloneAttachments(r.Attachments), nil
	default:
		return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidArgument, field)
	}
}

// Set assigns value to field. Any value of the right type is accepted, valid
// or not; validation is the step schema's job.
func (r *Record) Set(field string, value any) error {
	if r == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidArgument)
	}
	switch field {
	case FieldStep:
		step, ok := value.(int)
		if !ok {
			return typeError(field, "int", value)
		}
		r.Step = step
	case FieldCategory:
		text, ok := value.(string)
		if !ok {
			return typeError(field, "string", value)
		}
		r.Category = text
	case FieldTier:
		switch typed := value.(type) {
		case Tier:
			r.Tier = typed
		case string:
			r.Tier = Tier(strings.ToLower(strings.TrimSpace(typed)))
		default:
			return typeError(field, "string", value)
		}
	case FieldTitle:
		text, ok := value.(string)
		if !ok {
			return typeError(field, "string", value)
		}
		r.Title = text
	case FieldDescription:
		text, ok := value.(string)
		if !ok {
			return typeError(field, "string", value)
		}
		r.Description = text
	case FieldAttachments:
		switch typed := value.(type) {
		case []Attachment:
			r.Attachments = CloneAttachments(typed)
		case nil:
			r.Attachments = nil
		default:
			return typeError(field, "[]Attachment", value)
		}
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidArgument, field)
	}
	return nil
}

func typeError(field, want string, got any) error {
	return fmt.Errorf("%w: field %q expects %s, got %T", ErrInvalidArgument, field, want, got)
}
