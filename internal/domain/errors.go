package domain

import "errors"

// Sentinel errors carried from the service layer to the HTTP boundary.
// Handlers map these onto status codes; anything unwrapped is a 500.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)
