package models

import "errors"

// Sentinel errors for configuration problems detected before any network call.
var (
	ErrLabelSpec     = errors.New("label spec must have the form prefix:kind")
	ErrMissingRoot   = errors.New("root entity id is required")
	ErrInvalidEntity = errors.New("not an entity id")
	ErrNoMembership  = errors.New("at least one membership property is required")
)

// ErrUnknownProperty reports a property id missing from the property catalog.
var ErrUnknownProperty = errors.New("unknown property")
