// Package visibility decides whether an optional piece of the wizard (a step
// today) is part of the flow, based on a rule string evaluated against the
// current record snapshot.
package visibility

// Evaluator determines whether the target identified by name is included for
// the supplied rule and context.
type Evaluator interface {
	Eval(name, rule string, ctx Context) (bool, error)
}

// Context carries the values a rule may reference. Values is usually a record
// snapshot keyed by field name; Extras lets callers expose flags under the
// `extras.` prefix.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(name, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(name, rule string, ctx Context) (bool, error) {
	return fn(name, rule, ctx)
}

// Always includes every target regardless of the rule.
var Always Evaluator = EvaluatorFunc(func(string, string, Context) (bool, error) {
	return true, nil
})
