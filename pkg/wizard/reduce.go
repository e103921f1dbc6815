package wizard

import (
	"fmt"

	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/steps"
)

// EventKind names a user intent.
type EventKind string

const (
	EventSetField         EventKind = "set_field"
	EventAdvance          EventKind = "advance"
	EventRetreat          EventKind = "retreat"
	EventRemoveAttachment EventKind = "remove_attachment"
	EventSubmit           EventKind = "submit"
	EventReset            EventKind = "reset"
)

// Event is one user intent. Field and Value are used by EventSetField, Index
// by EventRemoveAttachment.
type Event struct {
	Kind  EventKind
	Field string
	Value any
	Index int
}

// FieldChanged builds an EventSetField event.
func FieldChanged(field string, value any) Event {
	return Event{Kind: EventSetField, Field: field, Value: value}
}

// AttachmentRemoved builds an EventRemoveAttachment event.
func AttachmentRemoved(index int) Event {
	return Event{Kind: EventRemoveAttachment, Index: index}
}

// Intent builds an event that carries no payload (advance, retreat, submit,
// reset).
func Intent(kind EventKind) Event {
	return Event{Kind: kind}
}

// Reduce applies ev to rec and returns the next record together with its
// validation result against the schema of the step it ends on. rec is not
// modified. Advancing from an invalid step leaves the step unchanged and
// returns the failing result; advancing from the last step and retreating
// from the first are no-ops.
//
// Submit and Reset carry side effects and are rejected; they go through a
// Controller.
func Reduce(reg *steps.Registry, rec listing.Record, ev Event) (listing.Record, steps.Result, error) {
	if reg == nil {
		reg = steps.Default()
	}
	next := rec.Clone()

	switch ev.Kind {
	case EventSetField:
		if ev.Field == listing.FieldStep {
			return rec, steps.Result{}, fmt.Errorf("%w: the step only changes through navigation", ErrInvalidArgument)
		}
		if err := next.Set(ev.Field, ev.Value); err != nil {
			return rec, steps.Result{}, err
		}

	case EventAdvance:
		current, err := reg.Validate(next)
		if err != nil {
			return rec, steps.Result{}, err
		}
		if next.Step >= steps.MaxSteps || !current.Valid() {
			return next, current, nil
		}
		next.Step = reg.Next(next, next.Step)

	case EventRetreat:
		if next.Step > 1 {
			next.Step = reg.Previous(next, next.Step)
		}

	case EventRemoveAttachment:
		remaining, err := attachments.Remove(next.Attachments, ev.Index)
		if err != nil {
			return rec, steps.Result{}, err
		}
		next.Attachments = remaining

	default:
		return rec, steps.Result{}, fmt.Errorf("%w: event %q cannot be reduced", ErrInvalidArgument, ev.Kind)
	}

	result, err := reg.Validate(next)
	if err != nil {
		return rec, steps.Result{}, err
	}
	return next, result, nil
}
