// Package template defines the seam between HTML renderers and a concrete
// template engine.
package template
