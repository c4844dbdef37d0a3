// Package repo contains all persistence logic for the Trip Ledger API.
// The whole trip collection is stored as one JSON document; each backend
// reads and rewrites that document in full.
// No business logic lives here — only storage and encoding.
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// CollectionRepo defines the persistence operations for the trip collection.
// The service layer depends on this interface, not a concrete backend,
// which allows the service to be unit-tested with a mock.
type CollectionRepo interface {
	// Load returns the full persisted collection. A missing document yields an
	// empty collection and a nil error. A document that cannot be decoded
	// yields an empty collection and an error wrapping
	// domain.ErrStorageCorruption.
	Load(ctx context.Context) ([]domain.Trip, error)

	// Save replaces the persisted collection with trips. Implementations never
	// leave a partially written document behind.
	Save(ctx context.Context, trips []domain.Trip) error
}

// decodeCollection parses a persisted document into trips.
// Trips stored without an expenses key come back with an empty, non-nil slice
// so they re-encode as [] rather than null.
func decodeCollection(data []byte) ([]domain.Trip, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return []domain.Trip{}, fmt.Errorf("%w: document is null", domain.ErrStorageCorruption)
	}

	var trips []domain.Trip
	if err := json.Unmarshal(data, &trips); err != nil {
		return []domain.Trip{}, fmt.Errorf("%w: %v", domain.ErrStorageCorruption, err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	for i := range trips {
		if trips[i].Expenses == nil {
			trips[i].Expenses = []domain.Expense{}
		}
	}
	return trips, nil
}

// encodeCollection renders trips as an indented JSON array with a trailing
// newline. A nil collection is written as [].
func encodeCollection(trips []domain.Trip) ([]byte, error) {
	if trips == nil {
		trips = []domain.Trip{}
	}
	b, err := json.MarshalIndent(trips, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
