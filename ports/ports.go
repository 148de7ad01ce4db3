// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// DocumentStore keeps whole serialized documents under string keys, the
// way browser session storage does. Put must be durable when it returns.
type DocumentStore interface {
	// Get returns the document stored under key. ok is false when absent.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Put replaces the document stored under key.
	Put(ctx context.Context, key string, data []byte) error

	// Delete removes the document. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Observer receives notifications about engine activity, typically to
// record metrics. All methods must be safe for concurrent use.
type Observer interface {
	// Mutation is called after every mutation attempt.
	// op is e.g. "create", partition is a built-in name or module slug.
	Mutation(op, partition string, err error)

	// Persisted is called after every document flush.
	Persisted(d time.Duration, bytes int, err error)

	// Searched is called after every search. status is "no_query", "matched" or "no_matches".
	Searched(status string, hits int)

	// Navigated is called after every route transition.
	Navigated(route string)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) Mutation(string, string, error)       {}
func (NopObserver) Persisted(time.Duration, int, error) {}
func (NopObserver) Searched(string, int)                {}
func (NopObserver) Navigated(string)                    {}
