// Package artifacts stores encrypted artifacts under their generated
// identifier. An artifact, once written, is never overwritten.
package artifacts

import (
	"context"
)

// Ext is the file extension of encrypted artifacts.
const Ext = ".enc"

// Name returns the artifact name for a generated identifier.
func Name(id string) string {
	return id + Ext
}

// Sink writes and reads encrypted artifacts.
type Sink interface {
	// Put stores data as {id}.enc and returns the location written
	// (a filesystem path or an object URI). It fails with
	// common.ErrArtifactExists instead of replacing an existing artifact.
	Put(ctx context.Context, id string, data []byte) (string, error)

	// Get returns the stored bytes of {id}.enc.
	Get(ctx context.Context, id string) ([]byte, error)
}
