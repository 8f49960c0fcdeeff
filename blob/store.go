// Package blob abstracts the external object store used for image hosting.
package blob

import "context"

type Store interface {
	// Upload stores data under objectPath and returns a publicly fetchable
	// URL for the object.
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}
