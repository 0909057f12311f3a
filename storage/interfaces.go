package storage

import (
	"context"
	"errors"

	"idealista-watcher/models"
	"idealista-watcher/utils"
)

// ErrCorrupt marks a backing store whose content could not be decoded.
// Loads that fail this way still return a usable empty value.
var ErrCorrupt = errors.New("storage: corrupt store")

// SeenStore persists the set of links that have already been notified.
type SeenStore interface {
	// Load always returns a non-nil set. A missing store yields an empty set
	// and a nil error; an unreadable or corrupt one yields an empty set and
	// the error so the caller can log it.
	Load(ctx context.Context) (*utils.URLSet, error)
	// Persist replaces the stored set with set.
	Persist(ctx context.Context, set *utils.URLSet) error
}

// ErrorStateStore persists the last fetch error that already raised an alert.
type ErrorStateStore interface {
	// Load returns the zero ErrorStatus, possibly with an error, when the
	// store is missing or unreadable.
	Load(ctx context.Context) (models.ErrorStatus, error)
	RecordError(ctx context.Context, code int) error
	Clear(ctx context.Context) error
}

// ListingWriter is the interface any archive of qualifying listings must satisfy.
type ListingWriter interface {
	Write(listings []*models.Listing) error
	Close() error
}
