package wizard

import (
	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/steps"
)

// View is an immutable snapshot of a controller for presentation code.
type View struct {
	Record        listing.Record
	Errors        map[string]string
	Valid         bool
	Step          int
	IncludedSteps []int
	// Position is the 1-based index of Step within IncludedSteps, or 0 when
	// the current step is no longer included.
	Position   int
	Inputs     []string
	CanAdvance bool
	CanRetreat bool
	IsLast     bool
	Submitted  bool
	// Previews is empty when the last derivation failed, even if
	// Record.Attachments is not.
	Previews []attachments.Preview
}

// View captures the current state.
func (c *Controller) View() View {
	included := c.IncludedSteps()
	position := 0
	for i, step := range included {
		if step == c.record.Step {
			position = i + 1
			break
		}
	}
	isLast := c.record.Step == steps.MaxSteps

	return View{
		Record:        c.Snapshot(),
		Errors:        c.Errors(),
		Valid:         c.result.Valid(),
		Step:          c.record.Step,
		IncludedSteps: included,
		Position:      position,
		Inputs:        steps.Inputs(c.record.Step),
		CanAdvance:    !isLast && c.result.Valid() && !c.submitted,
		CanRetreat:    c.record.Step > 1 && !c.submitted,
		IsLast:        isLast,
		Submitted:     c.submitted,
		Previews:      c.Previews(),
	}
}

// Total is the number of steps in the current flow.
func (v View) Total() int {
	return len(v.IncludedSteps)
}

// Error returns the message for field, if any.
func (v View) Error(field string) string {
	return v.Errors[field]
}
