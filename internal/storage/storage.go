// Package storage abstracts the object store that holds listing images.
//
// The service layer depends on this interface, not on a concrete backend,
// so tests run against an in-memory fake and production runs against any
// S3-compatible store (MinIO, AWS, a hosted bucket).
package storage

import (
	"context"
	"io"
)

// ObjectStore uploads binary objects and resolves their public URLs.
type ObjectStore interface {
	// Upload stores body under key with the given content type. It must
	// refuse to overwrite an existing object — colliding keys are a bug in
	// key generation, not something to paper over.
	Upload(ctx context.Context, key, contentType string, body io.Reader) error

	// PublicURL returns the stable, publicly resolvable URL for key.
	// It does not check that the object exists.
	PublicURL(key string) string
}
