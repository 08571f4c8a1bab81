// Package service defines the backend-agnostic document store contract.
package service

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by Update when the document's revision no
	// longer matches the one the caller read.
	ErrConflict = errors.New("revision conflict")
)

// Store defines the interface for document store operations.
// All Firestore and SQLite calls go through this interface.
// The repository never imports a backend directly.
type Store interface {
	// Subscribe delivers the complete set of documents matching q every time
	// it changes. The first snapshot is delivered as soon as it is read.
	// The channel is closed when ctx is cancelled.
	Subscribe(ctx context.Context, q Query) (<-chan Snapshot, error)

	// Create adds a document with a store-assigned id.
	Create(ctx context.Context, collection string, fields Fields) (DocRef, error)

	// Set writes a document at a client-chosen id, replacing any existing one.
	Set(ctx context.Context, ref DocRef, fields Fields) error

	// Update replaces the given top-level fields of an existing document.
	// If ifRevision is non-empty the write only succeeds when the stored
	// revision still equals it; otherwise ErrConflict is returned.
	Update(ctx context.Context, ref DocRef, fields Fields, ifRevision string) error

	// Get reads one document. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, ref DocRef) (Document, error)

	// GetAll reads every document in a collection.
	GetAll(ctx context.Context, collection string) ([]Document, error)
}
