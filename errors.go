package reel

import "errors"

// Sentinel errors returned by the property graph, expression engine, and
// scene resolver. Callers discriminate with errors.Is; messages produced by
// the package wrap these with the offending path, token, or time range.
//
// The clip resolver never returns these: a time with no covering clip is a
// normal nil result, not an error.
var (
	// ErrPropertyNotFound is returned when a property path has no
	// registered driver.
	ErrPropertyNotFound = errors.New("reel: property not found")

	// ErrInvalidPropertyType is returned when a path resolves to a driver
	// of the wrong shape, e.g. asking for a vector from a scalar driver.
	ErrInvalidPropertyType = errors.New("reel: invalid property type")

	// ErrCircularDependency is returned when linked properties form a
	// cycle. Detection is per-call via a visited-path set, so cycles are
	// caught even when links are rewired at runtime.
	ErrCircularDependency = errors.New("reel: circular property dependency")

	// ErrUnknownFunction is returned when an expression calls a function
	// that is not in the built-in table.
	ErrUnknownFunction = errors.New("reel: unknown function")

	// ErrUnknownVariable is returned when an expression references an
	// identifier that is neither an override, a constant, nor a context
	// binding.
	ErrUnknownVariable = errors.New("reel: unknown variable")

	// ErrDivisionByZero is returned for division or modulo by zero during
	// expression evaluation.
	ErrDivisionByZero = errors.New("reel: division by zero")

	// ErrInvalidArguments is returned when a built-in function is called
	// with the wrong number of arguments.
	ErrInvalidArguments = errors.New("reel: invalid arguments")

	// ErrSyntax is returned for any malformed expression source: an
	// unknown token, an unexpected token, or trailing input.
	ErrSyntax = errors.New("reel: syntax error")

	// ErrInvalidTimeRange is returned by the scene resolver for queries
	// with a non-positive or reversed time range.
	ErrInvalidTimeRange = errors.New("reel: invalid time range")
)
