package wizard

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-formwizard/pkg/listing"
)

// Reporter receives the finalized record of a successful submission. An
// error keeps the wizard unsubmitted so the user can try again.
type Reporter interface {
	ReportSubmission(ctx context.Context, rec listing.Record) error
}

// ReporterFunc adapts a function into a Reporter.
type ReporterFunc func(ctx context.Context, rec listing.Record) error

// ReportSubmission calls fn.
func (fn ReporterFunc) ReportSubmission(ctx context.Context, rec listing.Record) error {
	return fn(ctx, rec)
}

// LogReporter writes each submission to logger at info level.
func LogReporter(logger *slog.Logger) Reporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return ReporterFunc(func(ctx context.Context, rec listing.Record) error {
		logger.InfoContext(ctx, "listing submitted",
			"category", rec.Category,
			"tier", string(rec.Tier),
			"title", rec.Title,
			"attachments", len(rec.Attachments),
		)
		return nil
	})
}
