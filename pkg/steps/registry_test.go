package steps

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/visibility"
)

func TestSchemaForRequiredFields(t *testing.T) {
	t.Parallel()

	reg := Default()
	want := map[int][]string{
		1: {"category", "tier"},
		2: {"category", "tier", "title", "description"},
		3: {"category", "tier", "title", "description"},
		4: {"category", "tier", "title", "description"},
	}

	for step, fields := range want {
		schema, err := reg.SchemaFor(step)
		if err != nil {
			t.Fatalf("SchemaFor(%d): %v", step, err)
		}
		if schema.Step() != step {
			t.Fatalf("schema step = %d, want %d", schema.Step(), step)
		}
		if diff := cmp.Diff(fields, schema.Required()); diff != "" {
			t.Fatalf("SchemaFor(%d) required mismatch (-want +got):\n%s", step, diff)
		}
	}
}

func TestSchemaForUnknownStep(t *testing.T) {
	t.Parallel()

	for _, step := range []int{0, -1, MaxSteps + 1} {
		if _, err := Default().SchemaFor(step); !errors.Is(err, ErrUnknownStep) {
			t.Fatalf("SchemaFor(%d) error = %v, want ErrUnknownStep", step, err)
		}
	}
}

func TestValidateReportsEveryFailingField(t *testing.T) {
	t.Parallel()

	schema, err := Default().SchemaFor(3)
	if err != nil {
		t.Fatalf("SchemaFor: %v", err)
	}

	rec := listing.Record{Step: 3, Category: "Car", Tier: listing.TierGold, Title: "   "}
	result := schema.Validate(rec)

	if result.Valid() {
		t.Fatalf("expected invalid result")
	}
	want := map[string]string{
		"title":       "Title is required.",
		"description": "Description is required.",
	}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"title", "description"}, result.Fields()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsUnknownTier(t *testing.T) {
	t.Parallel()

	schema, _ := Default().SchemaFor(1)

	result := schema.Validate(listing.Record{Step: 1, Category: "Job", Tier: "platinum"})
	msg, ok := result.Message("tier")
	if !ok || msg != "Please select a package." {
		t.Fatalf("tier message = %q (%v)", msg, ok)
	}

	result = schema.Validate(listing.Record{Step: 1, Category: "Job", Tier: listing.TierBronze})
	if !result.Valid() {
		t.Fatalf("expected valid, got %s", result)
	}
}

func TestWithMessagesOverridesDefaults(t *testing.T) {
	t.Parallel()

	reg, err := New(WithMessages(map[string]string{
		"category": "Pick one",
		"unknown":  "ignored",
		"title":    "",
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := reg.Validate(listing.Record{Step: 2, Tier: listing.TierFree})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := map[string]string{
		"category":    "Pick one",
		"title":       "Title is required.",
		"description": "Description is required.",
	}
	if diff := cmp.Diff(want, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestIncludedStepsByTier(t *testing.T) {
	t.Parallel()

	cases := map[listing.Tier][]int{
		listing.TierFree:   {1, 2, 3, 4},
		listing.TierGold:   {1, 3, 4},
		listing.TierSilver: {1, 3, 4},
		listing.TierBronze: {1, 3, 4},
		"":                 {1, 3, 4},
	}
	for tier, want := range cases {
		if diff := cmp.Diff(want, IncludedSteps(tier)); diff != "" {
			t.Fatalf("IncludedSteps(%q) mismatch (-want +got):\n%s", tier, diff)
		}
	}
}

func TestNextAndPrevious(t *testing.T) {
	t.Parallel()

	reg := Default()
	gold := listing.Record{Step: 1, Tier: listing.TierGold}
	free := listing.Record{Step: 1, Tier: listing.TierFree}

	cases := []struct {
		name string
		got  int
		want int
	}{
		{"gold next from 1", reg.Next(gold, 1), 3},
		{"free next from 1", reg.Next(free, 1), 2},
		{"next from last", reg.Next(gold, 4), 4},
		{"gold previous from 3", reg.Previous(gold, 3), 1},
		{"free previous from 3", reg.Previous(free, 3), 2},
		{"previous from first", reg.Previous(free, 1), 1},
		{"gold next from excluded 2", reg.Next(gold, 2), 3},
		{"gold previous from excluded 2", reg.Previous(gold, 2), 1},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, tc.got, tc.want)
		}
	}

	if reg.Includes(gold, 2) || !reg.Includes(free, 2) {
		t.Fatalf("unexpected Includes result for step 2")
	}
}

func TestNewRejectsConditionsOnEndpoints(t *testing.T) {
	t.Parallel()

	if _, err := New(WithStepCondition(1, "tier == gold")); err == nil {
		t.Fatalf("expected error for condition on step 1")
	}
	if _, err := New(WithStepCondition(MaxSteps, "tier == gold")); err == nil {
		t.Fatalf("expected error for condition on last step")
	}
	if _, err := New(WithStepCondition(3, "tier = gold")); err == nil {
		t.Fatalf("expected compile error for malformed rule")
	}
}

func TestCustomConditionsAndEvaluator(t *testing.T) {
	t.Parallel()

	reg, err := New(WithStepCondition(2, ""), WithStepCondition(3, `category != ""`))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := reg.IncludedSteps(listing.Record{Tier: listing.TierGold})
	if diff := cmp.Diff([]int{1, 2, 4}, got); diff != "" {
		t.Fatalf("included mismatch (-want +got):\n%s", diff)
	}

	failing := visibility.EvaluatorFunc(func(string, string, visibility.Context) (bool, error) {
		return false, errors.New("boom")
	})
	reg, err = New(WithEvaluator(failing))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if diff := cmp.Diff([]int{1, 3, 4}, reg.IncludedSteps(listing.Record{Tier: listing.TierFree})); diff != "" {
		t.Fatalf("evaluator errors should exclude the step (-want +got):\n%s", diff)
	}
}

func TestCumulativeValidationProperty(t *testing.T) {
	t.Parallel()

	reg := Default()
	text := rapid.SampledFrom([]string{"", " ", "Car", "Nice flat", "\t"})
	tiers := rapid.SampledFrom([]listing.Tier{"", listing.TierFree, listing.TierGold, listing.TierSilver, listing.TierBronze, "platinum"})

	rapid.Check(t, func(t *rapid.T) {
		rec := listing.Record{
			Category:    text.Draw(t, "category"),
			Tier:        tiers.Draw(t, "tier"),
			Title:       text.Draw(t, "title"),
			Description: text.Draw(t, "description"),
		}
		for k := 2; k <= MaxSteps; k++ {
			upper, _ := reg.SchemaFor(k)
			lower, _ := reg.SchemaFor(k - 1)
			if upper.Validate(rec).Valid() && !lower.Validate(rec).Valid() {
				t.Fatalf("schema %d accepts %+v but schema %d rejects it", k, rec, k-1)
			}
		}
	})
}

func TestInputs(t *testing.T) {
	t.Parallel()

	if diff := cmp.Diff([]string{"category", "tier"}, Inputs(1)); diff != "" {
		t.Fatalf("Inputs(1) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"title", "description", "attachments"}, Inputs(2)); diff != "" {
		t.Fatalf("Inputs(2) mismatch (-want +got):\n%s", diff)
	}
	if Inputs(3) != nil || Inputs(4) != nil {
		t.Fatalf("review and confirmation steps have no inputs")
	}
}

func TestLabel(t *testing.T) {
	t.Parallel()

	if got := Label(MaxSteps); got != "Confirmation" {
		t.Fatalf("Label(MaxSteps) = %q", got)
	}
	if got := Label(9); got != "Step 9" {
		t.Fatalf("Label(9) = %q", got)
	}
}
