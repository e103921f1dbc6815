// Package wizard drives a listing record through the four-step submission
// flow: category and package, details (free tier only), review, and
// confirmation.
//
// Every transition is computed by Reduce, a pure function of the step
// registry, the current record and an Event. The Controller wraps Reduce with
// the state a presentation needs between events: the derived validation
// result, the live attachment previews and whether the record has already
// been submitted. Validation failures are data; only an out-of-contract
// Submit returns a validation error.
//
// A Controller is not safe for concurrent use. Transports that share one
// across requests must serialise access themselves.
package wizard
