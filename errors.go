package postladim

import "errors"

// Error conditions reported by the selection engine. Value-based lookups
// that find nothing (time, pid, variable name) are distinct from index
// ranges that are simply out of bounds, so callers can tell "no such
// value" apart from "bad index".
var (
	ErrOutOfBounds     = errors.New("index out of bounds")
	ErrTimeNotFound    = errors.New("no data for time")
	ErrPidNotFound     = errors.New("no data for pid")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrUnsupportedStep = errors.New("time slice step != 1 is not allowed")
	ErrMissingArgument = errors.New("need pid or time argument")
	ErrInvalidCount    = errors.New("negative particle count")
)
