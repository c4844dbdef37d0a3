package domain

import "errors"

// ErrNotFound is returned by service functions when a positional index does
// not address an existing trip or expense.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing destination, negative amount, empty question).
// Handlers should map this to HTTP 422 Unprocessable Entity, or 400 for the
// assistant endpoints.
var ErrValidation = errors.New("validation error")

// ErrStorageCorruption is returned by repo Load implementations when the
// persisted document exists but cannot be decoded as a trip collection.
// The accompanying collection is always empty; the service logs the
// condition and carries on with it.
var ErrStorageCorruption = errors.New("storage corruption")
