package engine

import "errors"

var (
	// ErrUnknownField is returned when a QuerySpec references a column the
	// dataset does not have, or uses a column in the wrong role.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidQuery is returned for QuerySpecs outside the allow-listed
	// operation set (unknown aggregation, operator, sort mode, ...).
	ErrInvalidQuery = errors.New("invalid query")
)
