// Package formwizard is the entry point for embedding the listing wizard:
// it builds controllers and step registries from plain settings and renders
// a single step without wiring the renderer registry by hand.
package formwizard

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/renderers/tui"
	"github.com/goliatone/go-formwizard/pkg/renderers/vanilla"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Version is reported by the CLI.
const Version = "0.1.0"

// Record is the listing being built.
type Record = listing.Record

// RenderOptions describes per-request values such as hidden fields, flash
// messages and the resolved theme.
type RenderOptions = render.RenderOptions

// NewController starts a wizard on step 1 with an empty record.
func NewController(options ...wizard.Option) *wizard.Controller {
	return wizard.New(options...)
}

// NewRegistry builds the step registry with custom validation messages and
// the inclusion rule of the details step. An empty rule includes the details
// step for every package.
func NewRegistry(messages map[string]string, detailsRule string) (*steps.Registry, error) {
	return steps.New(
		steps.WithMessages(messages),
		steps.WithStepCondition(2, detailsRule),
	)
}

// LoadCatalog reads a catalog file from disk. An empty path returns the
// embedded catalog.
func LoadCatalog(path string) (listing.Catalog, error) {
	if path == "" {
		return listing.DefaultCatalog(), nil
	}
	return listing.LoadCatalog(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// RenderStep renders the current step of c with the named renderer, either
// "vanilla" for HTML or "tui" for plain text.
func RenderStep(ctx context.Context, c *wizard.Controller, rendererName string, opts RenderOptions) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: controller is nil", wizard.ErrInvalidArgument)
	}
	catalog := listing.DefaultCatalog()
	if opts.Catalog != nil {
		catalog = *opts.Catalog
	}

	html, err := vanilla.New()
	if err != nil {
		return nil, err
	}
	text, err := tui.New(tui.WithOutput(io.Discard), tui.WithCatalog(catalog), tui.WithOutputFormat(tui.OutputFormatPrettyText))
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewRegistry(html, text).Get(rendererName)
	if err != nil {
		return nil, err
	}
	return renderer.Render(ctx, c.View(), opts)
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can copy
// and override them through the templates directory setting.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsFS exposes the stylesheet served under /assets/.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formwizard.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
