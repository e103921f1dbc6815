package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/render"
	rendertemplate "github.com/goliatone/go-formwizard/pkg/render/template"
	"github.com/goliatone/go-formwizard/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formwizard/pkg/steps"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

// Name is the registry name of the renderer.
const Name = "vanilla"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templatesDir     string
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	inlineStyles     bool
	stylesheets      []string
	theme            *theme.RendererConfig
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk first. Names
// missing from the directory fall back to the bundled templates.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templatesDir = strings.TrimSpace(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithDefaultStyles inlines the embedded stylesheet into every page.
func WithDefaultStyles() Option {
	return func(cfg *config) {
		cfg.inlineStyles = true
	}
}

// WithStylesheet links an extra stylesheet.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		if href = strings.TrimSpace(href); href != "" {
			cfg.stylesheets = append(cfg.stylesheets, href)
		}
	}
}

// WithTheme sets the theme used when RenderOptions.Theme is nil.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// Renderer renders the wizard as a server-driven HTML form.
type Renderer struct {
	templates    rendertemplate.TemplateRenderer
	inlineStyles bool
	stylesheets  []string
	theme        *theme.RendererConfig
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := gotemplate.New(gotemplate.WithBaseDir(cfg.templatesDir), gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		templates = engine
	}

	return &Renderer{
		templates:    templates,
		inlineStyles: cfg.inlineStyles,
		stylesheets:  cfg.stylesheets,
		theme:        cfg.theme,
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render renders the current step inside the page layout.
func (r *Renderer) Render(_ context.Context, view wizard.View, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	themeCfg := opts.Theme
	if themeCfg == nil {
		themeCfg = r.theme
	}

	data := r.pageData(view, opts, themeCfg)

	step, err := r.templates.RenderTemplate(partial(themeCfg, StepPartial(view.Step), fmt.Sprintf("step%d", view.Step)), data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render step %d: %w", view.Step, err)
	}
	data["body"] = step

	page, err := r.templates.RenderTemplate(partial(themeCfg, ThemeLayoutPartial, "layout"), data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render layout: %w", err)
	}
	return []byte(page), nil
}

func partial(cfg *theme.RendererConfig, key, fallback string) string {
	if cfg != nil {
		if name := strings.TrimSpace(cfg.Partials[key]); name != "" {
			return name
		}
	}
	return fallback
}

func (r *Renderer) pageData(view wizard.View, opts render.RenderOptions, themeCfg *theme.RendererConfig) map[string]any {
	catalog := opts.CatalogOrDefault()
	errs := render.MapErrors(view)
	rec := view.Record

	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = "POST"
	}
	hidden := render.MergeHiddenFields(opts.Hidden, render.StepField(view.Step))
	hiddenList := make([]map[string]any, 0, len(hidden))
	for _, field := range render.SortedHiddenFields(hidden) {
		hiddenList = append(hiddenList, map[string]any{"name": field.Name, "value": field.Value})
	}

	categories := make([]map[string]any, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		categories = append(categories, map[string]any{
			"label":    c.Label,
			"value":    c.Value,
			"selected": c.Value == rec.Category,
		})
	}

	packages := make([]map[string]any, 0, len(catalog.Packages))
	for _, p := range catalog.Packages {
		packages = append(packages, map[string]any{
			"tier":        string(p.Tier),
			"label":       p.Label,
			"description": p.Description,
			"price":       p.Price,
			"icon":        sanitizeIcon(p.Icon),
			"selected":    p.Tier == rec.Tier,
		})
	}

	previews := make([]map[string]any, 0, len(view.Previews))
	for _, p := range view.Previews {
		previews = append(previews, map[string]any{
			"index":  p.Index,
			"url":    p.URL,
			"name":   plainText(p.Name),
			"size":   p.Size,
			"action": fmt.Sprintf("remove:%d", p.Index),
		})
	}

	packageLabel := string(rec.Tier)
	if pkg, ok := catalog.Package(rec.Tier); ok {
		packageLabel = pkg.Label
	}

	progress := make([]map[string]any, 0, len(view.IncludedSteps))
	for i, step := range view.IncludedSteps {
		progress = append(progress, map[string]any{
			"number":  i + 1,
			"label":   steps.Label(step),
			"current": step == view.Step,
		})
	}

	stylesheets := append([]string(nil), r.stylesheets...)
	themeData := map[string]any{}
	if themeCfg != nil {
		themeData["name"] = themeCfg.Theme
		themeData["variant"] = themeCfg.Variant
		themeData["style"] = cssVarsStyle(themeCfg.CSSVars)
		if themeCfg.AssetURL != nil {
			if href := themeCfg.AssetURL(ThemeStylesheetAsset); href != "" {
				stylesheets = append(stylesheets, href)
			}
		}
	}
	inline := ""
	if r.inlineStyles {
		inline = defaultStylesheet()
	}

	fieldErrors := make(map[string]any, len(listing.Fields()))
	for _, field := range listing.Fields() {
		fieldErrors[field] = strings.Join(errs.Fields[field], " ")
	}

	return map[string]any{
		"chrome": chromeClasses(),
		"form": map[string]any{
			"action": opts.Action,
			"method": method,
			"hidden": hiddenList,
		},
		"view": map[string]any{
			"step":       view.Step,
			"stepLabel":  steps.Label(view.Step),
			"position":   view.Position,
			"total":      view.Total(),
			"steps":      progress,
			"canRetreat": view.CanRetreat,
			"canAdvance": view.CanAdvance,
			"valid":      view.Valid,
			"isLast":     view.IsLast,
			"submitted":  view.Submitted,
			"hasInputs":  len(view.Inputs) > 0,
		},
		"fieldErrors": fieldErrors,
		"formErrors":  render.MergeFormErrors(opts.FormErrors, errs.Form...),
		"record": map[string]any{
			"category":      rec.Category,
			"categoryLabel": catalog.CategoryLabel(rec.Category),
			"tier":          string(rec.Tier),
			"packageLabel":  packageLabel,
			"title":         rec.Title,
			"description":   rec.Description,
			"titleText":     plainText(rec.Title),
			"descText":      plainText(rec.Description),
			"attachments":   len(rec.Attachments),
		},
		"categories":   categories,
		"packages":     packages,
		"selectedIcon": sanitizeIcon(catalog.SelectedIcon),
		"previews":     previews,
		"notice":       strings.TrimSpace(opts.Notice),
		"theme":        themeData,
		"stylesheets":  stylesheets,
		"inlineStyles": inline,
	}
}

