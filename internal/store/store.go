// Package store persists trained face-space models. The model contents
// are defined by the eigenface package; this package only owns the
// encodings (a versioned gob file, or PostgreSQL in the postgres
// subpackage).
package store

import (
	"context"
	"time"

	"github.com/kozaktomas/face-id/internal/eigenface"
)

// Metadata describes a stored model without loading its vectors.
type Metadata struct {
	Version int       `json:"version"`
	K       int       `json:"k"`
	Images  int       `json:"images"`
	People  int       `json:"people"`
	BuiltAt time.Time `json:"built_at"`
}

// ModelStore is the persistence contract for trained models. A load
// after a save must hand back a model whose recognition output matches
// the saved one (bit-exact for lossless encodings, tolerance-bounded
// otherwise).
type ModelStore interface {
	Save(ctx context.Context, m *eigenface.Model) error
	Load(ctx context.Context) (*eigenface.Model, error)
}
