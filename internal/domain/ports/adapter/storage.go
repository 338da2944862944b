package adapter

import "context"

// ArtifactStore is an opaque blob store for configuration files: upload bytes
// under a key, get back a public URL.
type ArtifactStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
