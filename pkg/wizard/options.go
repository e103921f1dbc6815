package wizard

import (
	"log/slog"

	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/steps"
)

// Option configures a Controller.
type Option func(*Controller)

// WithRegistry swaps the step registry. Defaults to steps.Default().
func WithRegistry(reg *steps.Registry) Option {
	return func(c *Controller) {
		if reg != nil {
			c.registry = reg
		}
	}
}

// WithStager sets the attachment staging area, typically one bound to a
// shared preview store.
func WithStager(stager *attachments.Stager) Option {
	return func(c *Controller) {
		if stager != nil {
			c.stager = stager
		}
	}
}

// WithReporter sets the collaborator notified on successful submission.
func WithReporter(reporter Reporter) Option {
	return func(c *Controller) {
		c.reporter = reporter
	}
}

// WithLogger sets the logger used for transitions and submissions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}
