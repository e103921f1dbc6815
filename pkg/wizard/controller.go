package wizard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/steps"
)

// Controller holds one wizard run.
type Controller struct {
	registry *steps.Registry
	stager   *attachments.Stager
	reporter Reporter
	logger   *slog.Logger

	record    listing.Record
	result    steps.Result
	previews  []attachments.Preview
	submitted bool
}

// New returns a controller on step 1 with an empty record.
func New(opts ...Option) *Controller {
	c := &Controller{
		registry: steps.Default(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.stager == nil {
		c.stager = attachments.NewStager(nil)
	}
	c.init()
	return c
}

func (c *Controller) init() {
	c.record = listing.NewRecord()
	c.result = c.validate(c.record)
	c.previews = nil
	c.submitted = false
}

func (c *Controller) validate(rec listing.Record) steps.Result {
	result, err := c.registry.Validate(rec)
	if err != nil {
		// unreachable: the step never leaves [1, MaxSteps]
		c.logger.Error("wizard validate", "step", rec.Step, "error", err)
	}
	return result
}

// SetField assigns value to the named field. It is allowed whatever the
// current validity. Changing the attachments regenerates the previews; when
// that fails the attachments are still set, no previews stay live and an
// error wrapping ErrPreviews is returned.
func (c *Controller) SetField(name string, value any) error {
	if c.submitted {
		return ErrAlreadySubmitted
	}
	next, result, err := Reduce(c.registry, c.record, FieldChanged(name, value))
	if err != nil {
		return err
	}
	c.record, c.result = next, result
	c.logger.Debug("wizard field set", "field", name, "step", c.record.Step, "valid", result.Valid())

	if name == listing.FieldAttachments {
		return c.refreshPreviews()
	}
	return nil
}

func (c *Controller) refreshPreviews() error {
	previews, err := c.stager.DerivePreviews(c.record.Attachments)
	c.previews = previews
	if err != nil {
		c.logger.Warn("wizard previews", "attachments", len(c.record.Attachments), "error", err)
		return fmt.Errorf("%w: %w", ErrPreviews, err)
	}
	return nil
}

// Advance moves to the next included step when the current step validates.
// It returns the validation result of the step the wizard ends on and
// whether the step changed. On the confirmation step it is a no-op.
func (c *Controller) Advance() (steps.Result, bool) {
	from := c.record.Step
	next, result, err := Reduce(c.registry, c.record, Intent(EventAdvance))
	if err != nil {
		c.logger.Error("wizard advance", "step", from, "error", err)
		return c.result.Clone(), false
	}
	c.record, c.result = next, result
	moved := next.Step != from
	if moved {
		c.logger.Debug("wizard advanced", "from", from, "to", next.Step)
	} else {
		c.logger.Debug("wizard advance blocked", "step", from, "errors", result.Fields())
	}
	return result.Clone(), moved
}

// Retreat moves to the previous included step without validating. It
// reports whether the step changed. A submitted wizard stays put.
func (c *Controller) Retreat() bool {
	if c.submitted {
		return false
	}
	from := c.record.Step
	next, result, err := Reduce(c.registry, c.record, Intent(EventRetreat))
	if err != nil {
		c.logger.Error("wizard retreat", "step", from, "error", err)
		return false
	}
	c.record, c.result = next, result
	if next.Step != from {
		c.logger.Debug("wizard retreated", "from", from, "to", next.Step)
		return true
	}
	return false
}

// RemoveAttachment drops the attachment at index and regenerates previews.
func (c *Controller) RemoveAttachment(index int) error {
	if c.submitted {
		return ErrAlreadySubmitted
	}
	remaining, err := attachments.Remove(c.record.Attachments, index)
	if err != nil {
		return err
	}
	return c.SetField(listing.FieldAttachments, remaining)
}

// Submit finalizes the record. It must be on the confirmation step with a
// valid record; otherwise a *ValidationError is returned. The reporter, when
// set, is told about the record first and its failure leaves the wizard
// unsubmitted.
func (c *Controller) Submit(ctx context.Context) (listing.Record, error) {
	if c.submitted {
		return listing.Record{}, ErrAlreadySubmitted
	}

	final, err := c.registry.SchemaFor(steps.MaxSteps)
	if err != nil {
		return listing.Record{}, err
	}
	result := final.Validate(c.record)
	if c.record.Step != steps.MaxSteps || !result.Valid() {
		c.logger.Debug("wizard submit rejected", "step", c.record.Step, "errors", result.Fields())
		return listing.Record{}, &ValidationError{Step: c.record.Step, Errors: result.Clone().Errors}
	}

	rec := c.record.Clone()
	if c.reporter != nil {
		if err := c.reporter.ReportSubmission(ctx, rec.Clone()); err != nil {
			c.logger.Warn("wizard submission not reported", "error", err)
			return listing.Record{}, fmt.Errorf("wizard: report submission: %w", err)
		}
	}

	c.submitted = true
	c.logger.Info("wizard submitted", "category", rec.Category, "tier", string(rec.Tier), "attachments", len(rec.Attachments))
	return rec, nil
}

// Reset discards the record, releases the previews and starts over on
// step 1.
func (c *Controller) Reset() {
	c.stager.Release()
	c.init()
	c.logger.Debug("wizard reset")
}

// Dispatch routes ev to the matching operation. Advance and Retreat results
// are observable through View.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventSetField:
		return c.SetField(ev.Field, ev.Value)
	case EventAdvance:
		c.Advance()
		return nil
	case EventRetreat:
		c.Retreat()
		return nil
	case EventRemoveAttachment:
		return c.RemoveAttachment(ev.Index)
	case EventSubmit:
		_, err := c.Submit(ctx)
		return err
	case EventReset:
		c.Reset()
		return nil
	default:
		return fmt.Errorf("%w: unknown event %q", ErrInvalidArgument, ev.Kind)
	}
}

// Snapshot returns a copy of the current record.
func (c *Controller) Snapshot() listing.Record {
	return c.record.Clone()
}

// Step returns the current step.
func (c *Controller) Step() int {
	return c.record.Step
}

// Result returns the validation result for the current step.
func (c *Controller) Result() steps.Result {
	return c.result.Clone()
}

// Errors returns the field → message map for the current step.
func (c *Controller) Errors() map[string]string {
	return c.result.Clone().Errors
}

// Valid reports whether the current step's schema accepts the record.
func (c *Controller) Valid() bool {
	return c.result.Valid()
}

// IncludedSteps returns the steps of the flow for the current record.
func (c *Controller) IncludedSteps() []int {
	return c.registry.IncludedSteps(c.record)
}

// Previews returns the live attachment previews. It is empty after a failed
// derivation even when the record holds attachments.
func (c *Controller) Previews() []attachments.Preview {
	return append([]attachments.Preview(nil), c.previews...)
}

// Submitted reports whether Submit has succeeded since the last Reset.
func (c *Controller) Submitted() bool {
	return c.submitted
}

// Registry returns the step registry the controller validates against.
func (c *Controller) Registry() *steps.Registry {
	return c.registry
}
