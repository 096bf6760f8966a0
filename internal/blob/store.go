// Package blob persists generated documents and issues time-limited retrieval
// URLs for them.
package blob

import "context"

// Store is the output side of document generation. Paths are generated
// per-request and collision-resistant, so Upload never needs to coordinate
// with concurrent generations.
type Store interface {
	Upload(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
}
