package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formwizard/pkg/listing"
)

// RenderOptions carry per-request data a renderer needs besides the wizard
// view itself.
type RenderOptions struct {
	// Action is the URL the rendered form posts to.
	Action string
	// Method defaults to POST.
	Method string
	// Catalog supplies category and package labels. Renderers fall back to
	// listing.DefaultCatalog() when nil.
	Catalog *listing.Catalog
	// Hidden fields are emitted verbatim, e.g. a CSRF token.
	Hidden map[string]string
	// FormErrors are shown above the form in addition to the errors derived
	// from the view.
	FormErrors []string
	// Notice is a one-off message such as the submission confirmation.
	Notice string
	// Theme is the resolved theme configuration, when one was selected.
	Theme *theme.RendererConfig
}

// CatalogOrDefault returns opts.Catalog or the embedded catalog.
func (opts RenderOptions) CatalogOrDefault() listing.Catalog {
	if opts.Catalog != nil {
		return *opts.Catalog
	}
	return listing.DefaultCatalog()
}
