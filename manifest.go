package raid6

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/keyplay/RAID6-implementation/internal/erasure"
)

// Manifest records what the array currently stores and the geometry it was
// written with. It is what lets a later process strip the zero padding and
// decompress correctly, and it guards against reopening an array with a
// mismatched configuration.
type Manifest struct {
	FileName    string
	FileSize    int64 // original file bytes
	PayloadSize int64 // bytes after compression, before padding
	StripeCount int
	ChunkSize   int
	DataDisks   int
	FieldDegree uint
	Compression string
}

func (a *Array) manifestPath() string {
	return filepath.Join(a.config.Root, "manifest")
}

func (a *Array) writeManifest(m Manifest) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(a.manifestPath(), buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func (a *Array) loadManifest() (Manifest, error) {
	data, err := os.ReadFile(a.manifestPath())
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if m.ChunkSize != a.config.ChunkSize ||
		m.DataDisks != a.config.DataDisks ||
		m.FieldDegree != a.config.FieldDegree {
		return Manifest{}, fmt.Errorf("%w: manifest geometry (N=%d chunk=%d w=%d) does not match configuration (N=%d chunk=%d w=%d)",
			erasure.ErrInvalidConfiguration,
			m.DataDisks, m.ChunkSize, m.FieldDegree,
			a.config.DataDisks, a.config.ChunkSize, a.config.FieldDegree)
	}
	return m, nil
}
