package types

import "errors"

// Domain errors shared by the core packages
var (
	// ErrAnonymousBundle is returned when a bundle without a namespace is
	// asked to read its snapshot and no explicit path is given.
	ErrAnonymousBundle = errors.New("unnamed bundles have no default snapshot path")

	// ErrInvalidOperand is returned when a set operation receives an
	// operand that is not a usable bundle.
	ErrInvalidOperand = errors.New("invalid set operand")

	// ErrNoDeriver is returned when a rebuild is requested without a
	// metadata derivation capability.
	ErrNoDeriver = errors.New("no metadata deriver configured")

	// ErrInvalidQuery is returned when a search pattern cannot be compiled.
	ErrInvalidQuery = errors.New("invalid search query")
)
