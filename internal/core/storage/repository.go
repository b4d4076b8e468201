package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an artifact or source object does not exist.
var ErrNotFound = errors.New("object not found")

// ContentTypeJSON is the content type summary artifacts are written with.
const ContentTypeJSON = "application/json"

// ArtifactStore reads and writes named byte blobs in a durable object store.
// It holds the raw CSV sources as well as the JSON summaries.
type ArtifactStore interface {
	// Get returns the object stored under key. Returns an error wrapping
	// ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// BucketScoped is implemented by stores that can address a different
// bucket/container than the one they were configured with.
type BucketScoped interface {
	WithBucket(bucket string) ArtifactStore
}

// HealthChecker is implemented by stores that can report backend reachability.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// ForBucket returns a store addressing bucket when store supports it and bucket
// is non-empty; otherwise store itself.
func ForBucket(store ArtifactStore, bucket string) ArtifactStore {
	if bucket == "" {
		return store
	}
	if scoped, ok := store.(BucketScoped); ok {
		return scoped.WithBucket(bucket)
	}
	return store
}
