package stat

import "errors"

// Sentinel errors for data model validation.
var (
	ErrEmptyDimension = errors.New("stat: dimension is empty")
	ErrEmptySystem    = errors.New("stat: system id is empty")
	ErrEmptyKind      = errors.New("stat: cap kind is empty")
	ErrInvalidKind    = errors.New("stat: cap kind must be \"min\" or \"max\"")
	ErrNonFiniteValue = errors.New("stat: value is not finite")
	ErrInvalidCaps    = errors.New("stat: caps min exceeds max")
)
