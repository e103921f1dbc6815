package tui

import "errors"

var (
	// ErrAborted signals the user left the wizard (Ctrl+C or Quit).
	ErrAborted = errors.New("tui: aborted")
	// ErrBadSelection is returned when a driver answers a select prompt with
	// an index outside its options.
	ErrBadSelection = errors.New("tui: selection out of range")
)
