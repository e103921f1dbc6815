package vanilla_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/renderers/vanilla"
	"github.com/goliatone/go-formwizard/pkg/testsupport"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func renderView(t *testing.T, r *vanilla.Renderer, view wizard.View, opts render.RenderOptions) string {
	t.Helper()
	out, err := r.Render(testsupport.Context(), view, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return string(out)
}

func newRenderer(t *testing.T, opts ...vanilla.Option) *vanilla.Renderer {
	t.Helper()
	r, err := vanilla.New(opts...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func assertContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(html, fragment) {
			t.Fatalf("output missing %q\n%s", fragment, html)
		}
	}
}

func assertNotContains(t *testing.T, html string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if strings.Contains(html, fragment) {
			t.Fatalf("output unexpectedly contains %q\n%s", fragment, html)
		}
	}
}

func TestRenderCategoryStep(t *testing.T) {
	c := wizard.New()
	_ = c.SetField(listing.FieldCategory, "Car")
	_ = c.SetField(listing.FieldTier, listing.TierSilver)

	html := renderView(t, newRenderer(t), c.View(), render.RenderOptions{
		Action: "/wizard",
		Hidden: map[string]string{"_csrf": "tok"},
	})

	assertContains(t, html,
		`action="/wizard"`,
		`method="POST"`,
		`enctype="multipart/form-data"`,
		`<input type="hidden" name="_csrf" value="tok">`,
		`<input type="hidden" name="_step" value="1">`,
		`<option value="Car" selected>Car</option>`,
		`Electronics &amp; Gadgets`,
		`value="silver" checked`,
		`Only $29/month; Most used`,
		`<svg`,
		`value="next" data-valid="true"`,
	)
	assertNotContains(t, html, `value="back"`, `value="submit"`, `aria-invalid`)
}

func TestRenderInlineErrorsOnFirstStep(t *testing.T) {
	c := wizard.New()
	c.Advance()

	html := renderView(t, newRenderer(t), c.View(), render.RenderOptions{})
	assertContains(t, html,
		`value="next" data-valid="false"`,
		`aria-invalid="true"`,
		`Please select a category.`,
		`Please select a package.`,
	)
	assertNotContains(t, html, `role="alert"`)
}

func TestRenderReviewShowsEarlierErrorsAtFormLevel(t *testing.T) {
	c := wizard.New()
	rec := testsupport.PaidRecord()
	rec.Title, rec.Description = "", ""
	testsupport.Drive(t, c, rec, 3)
	c.Advance()

	html := renderView(t, newRenderer(t), c.View(), render.RenderOptions{})
	assertContains(t, html,
		`data-section="review"`,
		`role="alert"`,
		`<li>Title is required.</li>`,
		`<li>Description is required.</li>`,
		`<dd>Gold</dd>`,
		`value="back"`,
	)
	assertNotContains(t, html, `name="title"`)
}

func TestRenderDetailsStepWithPreviews(t *testing.T) {
	store := attachments.NewMemoryStore()
	c := wizard.New(wizard.WithStager(attachments.NewStager(store)))
	rec := testsupport.FreeRecord()
	rec.Attachments = testsupport.Images(2)
	testsupport.Drive(t, c, rec, 2)

	html := renderView(t, newRenderer(t), c.View(), render.RenderOptions{})
	previews := c.Previews()
	assertContains(t, html,
		`data-section="details"`,
		`value="Nice flat"`,
		`>Spacious</textarea>`,
		`accept="image/*" multiple`,
		`src="`+previews[0].URL+`"`,
		`value="remove:1"`,
		`Step 2 of 4`,
	)
}

func TestRenderConfirmationSanitisesUserText(t *testing.T) {
	c := wizard.New()
	rec := testsupport.PaidRecord()
	rec.Title = "<b>Family</b> estate"
	testsupport.Drive(t, c, rec, 4)
	if c.Step() != 4 {
		t.Fatalf("expected confirmation step, got %d", c.Step())
	}

	html := renderView(t, newRenderer(t), c.View(), render.RenderOptions{Notice: "Almost there"})
	assertContains(t, html,
		`data-section="confirmation"`,
		`<dd>Family estate</dd>`,
		`value="submit">Submit</button>`,
		`Almost there`,
	)
	assertNotContains(t, html, `&lt;b&gt;`, `value="next"`, ` disabled`)
}

func TestRenderSanitisesCatalogIcons(t *testing.T) {
	catalog := listing.DefaultCatalog()
	catalog.Packages[0].Icon = `<svg><script>alert(1)</script><circle r="4"/></svg><img src=x onerror=alert(1)>`

	html := renderView(t, newRenderer(t), wizard.New().View(), render.RenderOptions{Catalog: &catalog})
	assertContains(t, html, `<circle r="4"`)
	assertNotContains(t, html, `<script>`, `onerror`)
}

func TestRenderWithThemeAndStyles(t *testing.T) {
	manifest := vanilla.DefaultManifest()
	manifest.Assets = theme.Assets{
		Prefix: "/assets/themes/formwizard",
		Files:  map[string]string{vanilla.ThemeStylesheetAsset: "theme.css"},
	}
	cfg, err := vanilla.ResolveTheme(vanilla.NewStaticSelector(manifest), "formwizard", "dark")
	if err != nil {
		t.Fatalf("resolve theme: %v", err)
	}
	if cfg.Tokens["accent"] != "#60a5fa" || cfg.CSSVars["--danger"] != "#b91c1c" {
		t.Fatalf("variant tokens not merged: %v", cfg.Tokens)
	}

	r := newRenderer(t, vanilla.WithDefaultStyles(), vanilla.WithStylesheet("/assets/custom.css"), vanilla.WithTheme(cfg))
	html := renderView(t, r, wizard.New().View(), render.RenderOptions{})
	assertContains(t, html,
		`<link rel="stylesheet" href="/assets/custom.css">`,
		`<link rel="stylesheet" href="/assets/themes/formwizard/theme.css">`,
		`data-theme="formwizard"`,
		`--accent: #60a5fa;`,
		`.formwizard-form {`,
	)
}

func TestResolveThemeErrors(t *testing.T) {
	selector := vanilla.NewStaticSelector(vanilla.DefaultManifest())
	if _, err := vanilla.ResolveTheme(selector, "missing", ""); err == nil {
		t.Fatalf("expected unknown theme error")
	}
	if _, err := vanilla.ResolveTheme(selector, "", "sepia"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
	cfg, err := vanilla.ResolveTheme(nil, "", "")
	if err != nil || cfg != nil {
		t.Fatalf("nil selector should resolve to no theme, got %v %v", cfg, err)
	}
}

func TestThemePartialOverridesStepTemplate(t *testing.T) {
	files := fstest.MapFS{}
	for _, name := range []string{"layout.tpl", "step1.tpl", "step2.tpl", "step3.tpl", "step4.tpl", "previews.tpl"} {
		data, err := fs.ReadFile(vanilla.TemplatesFS(), name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		files[name] = &fstest.MapFile{Data: data}
	}
	files["custom/step1.tpl"] = &fstest.MapFile{Data: []byte(`<p>custom step {{ view.step }}</p>`)}

	cfg := &theme.RendererConfig{
		Theme:    "custom",
		Partials: map[string]string{vanilla.StepPartial(1): "custom/step1.tpl"},
	}
	r := newRenderer(t, vanilla.WithTemplatesFS(files))
	html := renderView(t, r, wizard.New().View(), render.RenderOptions{Theme: cfg})
	assertContains(t, html, `<p>custom step 1</p>`)
	assertNotContains(t, html, `name="category"`)
}

func TestTemplatesDirOverridesWithFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "step1.tpl"), []byte(`<p>local step {{ view.step }}</p>`), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}

	r := newRenderer(t, vanilla.WithTemplatesDir(dir))
	html := renderView(t, r, wizard.New().View(), render.RenderOptions{})
	assertContains(t, html, `<p>local step 1</p>`, `data-step="1"`)

	if _, err := vanilla.New(vanilla.WithTemplatesDir(filepath.Join(dir, "missing"))); err == nil {
		t.Fatalf("expected an error for a missing templates directory")
	}
}
