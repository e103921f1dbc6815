package steps

import (
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/visibility"
	"github.com/goliatone/go-formwizard/pkg/visibility/expr"
)

// MaxSteps is the number of steps in the wizard; the last one is the
// confirmation step where the record is submitted.
const MaxSteps = 4

// ErrUnknownStep is returned when a schema is requested for a step outside
// [1, MaxSteps].
var ErrUnknownStep = errors.New("steps: unknown step")

// FreeTierRule is the inclusion rule of the details step.
const FreeTierRule = `tier == "free"`

// DefaultMessages are shown when a field fails validation. Only non-emptiness
// is enforced, so the messages say exactly that.
var DefaultMessages = map[string]string{
	listing.FieldCategory:    "Please select a category.",
	listing.FieldTier:        "Please select a package.",
	listing.FieldTitle:       "Title is required.",
	listing.FieldDescription: "Description is required.",
}

// Option configures a Registry.
type Option func(*config)

type config struct {
	messages   map[string]string
	conditions map[int]string
	evaluator  visibility.Evaluator
}

// WithMessages overrides validation messages by field name. Blank messages
// and unknown fields are ignored.
func WithMessages(messages map[string]string) Option {
	return func(cfg *config) {
		for field, msg := range messages {
			if _, known := DefaultMessages[field]; known && msg != "" {
				cfg.messages[field] = msg
			}
		}
	}
}

// WithStepCondition sets the inclusion rule for step. An empty rule makes the
// step unconditional.
func WithStepCondition(step int, rule string) Option {
	return func(cfg *config) {
		if rule == "" {
			delete(cfg.conditions, step)
			return
		}
		cfg.conditions[step] = rule
	}
}

// WithEvaluator swaps the visibility evaluator used for inclusion rules.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(cfg *config) {
		if evaluator != nil {
			cfg.evaluator = evaluator
		}
	}
}

// Registry resolves step schemas and the ordered set of included steps.
type Registry struct {
	schemas    [MaxSteps + 1]Schema
	conditions map[int]string
	evaluator  visibility.Evaluator
}

// New builds a registry. Conditions on the first or last step are rejected
// because the flow must always start and finish somewhere.
func New(options ...Option) (*Registry, error) {
	cfg := config{
		messages:   make(map[string]string, len(DefaultMessages)),
		conditions: map[int]string{2: FreeTierRule},
	}
	for field, msg := range DefaultMessages {
		cfg.messages[field] = msg
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	for step, rule := range cfg.conditions {
		if step <= 1 || step >= MaxSteps {
			return nil, fmt.Errorf("steps: step %d cannot be conditional", step)
		}
		if cfg.evaluator == nil {
			if _, err := expr.Compile(rule); err != nil {
				return nil, fmt.Errorf("steps: step %d condition: %w", step, err)
			}
		}
	}
	if cfg.evaluator == nil {
		cfg.evaluator = expr.New()
	}

	r := &Registry{
		conditions: cfg.conditions,
		evaluator:  cfg.evaluator,
	}
	r.build(stepRules(cfg.messages))
	return r, nil
}

// MustNew is New for package-level wiring; it panics on error.
func MustNew(options ...Option) *Registry {
	r, err := New(options...)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = MustNew()

// Default returns the registry with the built-in rules and messages.
func Default() *Registry {
	return defaultRegistry
}

// stepRules lists the rules each step introduces. Steps 3 and 4 add none.
func stepRules(messages map[string]string) map[int][]FieldRule {
	tiers := make([]any, 0, len(listing.Tiers()))
	for _, tier := range listing.Tiers() {
		tiers = append(tiers, string(tier))
	}

	return map[int][]FieldRule{
		1: {
			{Field: listing.FieldCategory, Schema: openapi3.NewStringSchema().WithMinLength(1), Message: messages[listing.FieldCategory]},
			{Field: listing.FieldTier, Schema: openapi3.NewStringSchema().WithEnum(tiers...), Message: messages[listing.FieldTier]},
		},
		2: {
			{Field: listing.FieldTitle, Schema: openapi3.NewStringSchema().WithMinLength(1), Message: messages[listing.FieldTitle]},
			{Field: listing.FieldDescription, Schema: openapi3.NewStringSchema().WithMinLength(1), Message: messages[listing.FieldDescription]},
		},
	}
}

// build folds the per-step rules over 1..k for every k.
func (r *Registry) build(perStep map[int][]FieldRule) {
	var acc []FieldRule
	for step := 1; step <= MaxSteps; step++ {
		for _, rule := range perStep[step] {
			rule.Step = step
			acc = append(acc, rule)
		}
		r.schemas[step] = Schema{step: step, rules: append([]FieldRule(nil), acc...)}
	}
}

// SchemaFor returns the cumulative schema for step.
func (r *Registry) SchemaFor(step int) (Schema, error) {
	if step < 1 || step > MaxSteps {
		return Schema{}, fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	return r.schemas[step], nil
}

// Validate is shorthand for validating rec against the schema of its own
// step.
func (r *Registry) Validate(rec listing.Record) (Result, error) {
	schema, err := r.SchemaFor(rec.Step)
	if err != nil {
		return Result{}, err
	}
	return schema.Validate(rec), nil
}

// Condition returns the inclusion rule registered for step.
func (r *Registry) Condition(step int) (string, bool) {
	rule, ok := r.conditions[step]
	return rule, ok
}

// IncludedSteps returns the ascending list of steps that are part of the flow
// for rec. A condition that fails to evaluate excludes its step.
func (r *Registry) IncludedSteps(rec listing.Record) []int {
	ctx := visibility.Context{Values: snapshotValues(rec)}
	out := make([]int, 0, MaxSteps)
	for step := 1; step <= MaxSteps; step++ {
		rule, conditional := r.conditions[step]
		if !conditional {
			out = append(out, step)
			continue
		}
		ok, err := r.evaluator.Eval(fmt.Sprintf("step%d", step), rule, ctx)
		if err == nil && ok {
			out = append(out, step)
		}
	}
	return out
}

// Includes reports whether step is part of the flow for rec.
func (r *Registry) Includes(rec listing.Record, step int) bool {
	included := r.IncludedSteps(rec)
	idx := sort.SearchInts(included, step)
	return idx < len(included) && included[idx] == step
}

// Next returns the first included step after from, or from itself when there
// is none.
func (r *Registry) Next(rec listing.Record, from int) int {
	for _, step := range r.IncludedSteps(rec) {
		if step > from {
			return step
		}
	}
	return from
}

// Previous returns the last included step before from, or from itself when
// there is none.
func (r *Registry) Previous(rec listing.Record, from int) int {
	included := r.IncludedSteps(rec)
	for i := len(included) - 1; i >= 0; i-- {
		if included[i] < from {
			return included[i]
		}
	}
	return from
}

// Inputs lists the fields a user edits on step. The review and confirmation
// steps edit nothing.
func Inputs(step int) []string {
	switch step {
	case 1:
		return []string{listing.FieldCategory, listing.FieldTier}
	case 2:
		return []string{listing.FieldTitle, listing.FieldDescription, listing.FieldAttachments}
	default:
		return nil
	}
}

// IncludedSteps returns the steps of the default flow for tier.
func IncludedSteps(tier listing.Tier) []int {
	rec := listing.NewRecord()
	rec.Tier = tier
	return defaultRegistry.IncludedSteps(rec)
}

func snapshotValues(rec listing.Record) map[string]any {
	return map[string]any{
		listing.FieldStep:        rec.Step,
		listing.FieldCategory:    rec.Category,
		listing.FieldTier:        string(rec.Tier),
		listing.FieldTitle:       rec.Title,
		listing.FieldDescription: rec.Description,
		listing.FieldAttachments: len(rec.Attachments),
	}
}
