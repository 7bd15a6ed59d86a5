package registry

import "errors"

// Sentinel errors for registry operations.
var (
	ErrNilSubsystem      = errors.New("registry: subsystem is nil")
	ErrEmptySystemID     = errors.New("registry: system id is empty")
	ErrDuplicateSystemID = errors.New("registry: system id already registered")
	ErrUnknownSystemID   = errors.New("registry: system id not registered")
	ErrEmptyDimension    = errors.New("registry: dimension is empty")
	ErrEmptyLayerOrder   = errors.New("registry: layer order is empty")
	ErrDuplicateLayer    = errors.New("registry: duplicate layer name")
	ErrInvalidClampRange = errors.New("registry: clamp range min exceeds max")
)
