package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/face-id/internal/eigenface"
)

// gobFormatVersion guards against loading files written by an
// incompatible build.
const gobFormatVersion = 1

// FileStore persists a model as a single versioned gob file. Gob keeps
// float64 values bit-exact, so a round-trip reproduces recognition
// output exactly.
type FileStore struct {
	Path string
}

// NewFileStore creates a store writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

type gobEnvelope struct {
	Version int
	Meta    Metadata
	Model   *eigenface.Model
}

// Save writes the model to the store's path. The file is written to a
// temp name first and renamed into place, so a crash mid-write never
// leaves a truncated model behind.
func (s *FileStore) Save(_ context.Context, m *eigenface.Model) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid model: %w", err)
	}

	envelope := gobEnvelope{
		Version: gobFormatVersion,
		Meta: Metadata{
			Version: gobFormatVersion,
			K:       m.K(),
			Images:  len(m.Labels),
			People:  len(m.People()),
			BuiltAt: time.Now().UTC(),
		},
		Model: m,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming model file: %w", err)
	}
	return nil
}

// Load reads and validates the model from the store's path.
func (s *FileStore) Load(_ context.Context) (*eigenface.Model, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	var envelope gobEnvelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding model file: %w", err)
	}
	if envelope.Version != gobFormatVersion {
		return nil, fmt.Errorf("model file version %d not supported (want %d)", envelope.Version, gobFormatVersion)
	}
	if envelope.Model == nil {
		return nil, fmt.Errorf("model file carries no model")
	}
	if err := envelope.Model.Validate(); err != nil {
		return nil, fmt.Errorf("stored model is invalid: %w", err)
	}
	return envelope.Model, nil
}

// ReadMetadata returns the stored metadata without validating vectors.
func (s *FileStore) ReadMetadata() (Metadata, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Metadata{}, fmt.Errorf("reading model file: %w", err)
	}
	var envelope gobEnvelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&envelope); err != nil {
		return Metadata{}, fmt.Errorf("decoding model file: %w", err)
	}
	return envelope.Meta, nil
}
