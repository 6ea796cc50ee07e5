package services

import "errors"

// Sentinel errors shared by all services. Controllers translate these to
// HTTP statuses; anything else maps to 500.
var (
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)
