package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func TestMapErrorsSplitsInlineAndFormLevel(t *testing.T) {
	view := wizard.View{
		Step:   2,
		Inputs: []string{"title", "description", "attachments"},
		Errors: map[string]string{
			"description": "Description is required.",
			"category":    "Please select a category.",
			"tier":        "Please select a package.",
			"title":       "  ",
		},
	}

	mapped := render.MapErrors(view)

	wantFields := map[string][]string{
		"description": {"Description is required."},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	wantForm := []string{"Please select a category.", "Please select a package."}
	if diff := cmp.Diff(wantForm, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if !mapped.Has("description") || mapped.Has("title") {
		t.Fatalf("unexpected Has results")
	}
}

func TestMapErrorsOnReviewStepIsFormLevel(t *testing.T) {
	c := wizard.New()
	_ = c.SetField(listing.FieldCategory, "Car")
	_ = c.SetField(listing.FieldTier, listing.TierGold)
	c.Advance()
	c.Advance()

	mapped := render.MapErrors(c.View())
	if mapped.Fields != nil {
		t.Fatalf("review step has no inputs, got %v", mapped.Fields)
	}
	want := []string{"Title is required.", "Description is required."}
	if diff := cmp.Diff(want, mapped.Form); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}

	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.CSRFToken("", "token123"),
		render.StepField(3),
		render.Hidden("  ", "skip"),
	)

	wantMerged := map[string]string{
		"existing": "keep",
		"_csrf":    "token123",
		"_step":    "3",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "_step", Value: "3"},
		{Name: "existing", Value: "keep"},
	}
	if diff := cmp.Diff(wantSorted, render.SortedHiddenFields(merged)); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, wizard.View, render.RenderOptions) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistry(t *testing.T) {
	reg := render.NewRegistry(namedRenderer("tui"), namedRenderer("vanilla"))

	if diff := cmp.Diff([]string{"tui", "vanilla"}, reg.List()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if err := reg.Register(namedRenderer("tui")); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := reg.Register(namedRenderer("")); err == nil {
		t.Fatalf("expected empty name error")
	}
	if _, err := reg.Get("preact"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("Get error = %v", err)
	}
	got, err := reg.Get("vanilla")
	if err != nil || got.Name() != "vanilla" {
		t.Fatalf("Get(vanilla) = %v, %v", got, err)
	}
}
