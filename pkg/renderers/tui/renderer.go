package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Name is the registry identifier of the terminal renderer.
const Name = "tui"

// Renderer prints wizard views as plain text and drives interactive
// terminal sessions through a PromptDriver.
type Renderer struct {
	driver            PromptDriver
	out               io.Writer
	outputFormat      OutputFormat
	catalog           listing.Catalog
	readFile          FileReader
	submitTransformer SubmitTransformer
	theme             Theme
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output,
// embedded catalog).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		out:          os.Stdout,
		outputFormat: OutputFormatJSON,
		catalog:      listing.DefaultCatalog(),
		readFile:     os.ReadFile,
		theme:        DefaultTheme(),
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if _, ok := ParseOutputFormat(string(r.outputFormat)); !ok {
		return nil, fmt.Errorf("tui: unknown output format %q", r.outputFormat)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.out, r.theme)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format of submitted listings.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prints a plain text summary of view: the step heading, the values
// entered so far and any validation messages.
func (r *Renderer) Render(ctx context.Context, view wizard.View, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catalog := r.catalog
	if opts.Catalog != nil {
		catalog = *opts.Catalog
	}

	var b strings.Builder
	if view.Position > 0 {
		fmt.Fprintf(&b, "Step %d of %d: %s\n", view.Position, view.Total(), steps.Label(view.Step))
	} else {
		fmt.Fprintf(&b, "%s\n", steps.Label(view.Step))
	}
	writeSummary(&b, catalog, view.Record)

	mapping := render.MapErrors(view)
	var messages []string
	for _, field := range listing.Fields() {
		messages = append(messages, mapping.Fields[field]...)
	}
	messages = append(messages, render.MergeFormErrors(mapping.Form, opts.FormErrors...)...)
	for _, msg := range messages {
		fmt.Fprintf(&b, "%s%s\n", r.theme.ErrorPrefix, msg)
	}
	if opts.Notice != "" {
		fmt.Fprintf(&b, "%s%s\n", r.theme.InfoPrefix, opts.Notice)
	}
	return []byte(b.String()), nil
}

func writeSummary(b *strings.Builder, catalog listing.Catalog, rec listing.Record) {
	row := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		fmt.Fprintf(b, "  %-12s %s\n", label+":", value)
	}
	row("Category", catalog.CategoryLabel(rec.Category))
	row("Package", packageLabel(catalog, rec.Tier))
	row("Title", rec.Title)
	row("Description", strings.Join(strings.Fields(rec.Description), " "))

	names := make([]string, 0, len(rec.Attachments))
	for i, att := range rec.Attachments {
		names = append(names, fmt.Sprintf("[%d] %s", i+1, att.Name))
	}
	row("Images", strings.Join(names, ", "))
}

func packageLabel(catalog listing.Catalog, tier listing.Tier) string {
	pkg, ok := catalog.Package(tier)
	if !ok {
		return string(tier)
	}
	if pkg.Price == "" {
		return pkg.Label
	}
	return fmt.Sprintf("%s (%s)", pkg.Label, pkg.Price)
}
