package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// DocumentStore abstracts the document database the migrator scans and
// rewrites. Implementations classify failures using the shared errors
// package so callers can distinguish query from update failures.
type DocumentStore interface {
	// FindCandidates returns the documents in collection where any of the
	// given fields contains oldPrefix as a case-insensitive substring.
	// Each call issues a fresh query; result ordering is whatever the
	// store returns.
	FindCandidates(ctx context.Context, collection string, fields []string, oldPrefix string) ([]bson.M, error)

	// UpdateDocument sets the given fields on the single document with the
	// given identifier. It reports whether the store actually modified the
	// document; a matched-but-unmodified update is not an error.
	UpdateDocument(ctx context.Context, collection string, id interface{}, set bson.M) (bool, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store handle.
	Close(ctx context.Context) error
}
