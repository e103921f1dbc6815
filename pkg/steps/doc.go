// Package steps holds one validation schema per wizard step. Schemas are
// cumulative: the schema for step k is the ordered union of the field rules
// introduced by steps 1..k, so advancing past the review step still re-checks
// everything entered on the first two steps. Each rule pairs a field with a
// kin-openapi schema describing its constraint and a fixed message shown when
// the constraint fails.
//
// The registry also owns step inclusion. Optional steps carry a visibility
// rule (step 2 is only part of the flow when `tier == "free"`), evaluated
// against a snapshot of the record, and navigation walks the resulting
// ordered step list.
package steps
