package render

import (
	"context"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Renderer turns a wizard view into a byte representation (HTML, terminal
// text, JSON).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view wizard.View, options RenderOptions) ([]byte, error)
}
