package wizard

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/listing"
)

var (
	// ErrInvalidArgument flags unknown fields, mistyped values and
	// out-of-range attachment indices.
	ErrInvalidArgument = listing.ErrInvalidArgument
	// ErrValidationFailed is wrapped by ValidationError.
	ErrValidationFailed = errors.New("wizard: validation failed")
	// ErrAlreadySubmitted is returned by edits and submits after a
	// successful submission, until Reset.
	ErrAlreadySubmitted = errors.New("wizard: already submitted")
	// ErrPreviews is returned by attachment edits that were applied but
	// whose previews could not be derived.
	ErrPreviews = errors.New("wizard: previews unavailable")
)

// ValidationError is returned by Submit when the record is not on the
// confirmation step or does not satisfy the final schema.
type ValidationError struct {
	Step   int
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidationFailed.Error()
	}
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%s: step %d is not the confirmation step", ErrValidationFailed, e.Step)
	}
	fields := make([]string, 0, len(e.Errors))
	for field := range e.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s: step %d: %s", ErrValidationFailed, e.Step, strings.Join(fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
