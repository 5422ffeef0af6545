package bulk

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const manifestVersion = "1.0.0"

// RunManifest tracks which pages have been processed, keyed by file
// path, so interrupted batch runs can resume without redoing work.
type RunManifest struct {
	Version   string                      `json:"version"`
	UpdatedAt time.Time                   `json:"updated_at"`
	Processed map[string]*ProcessedRecord `json:"processed"`
}

// ProcessedRecord tracks a single completed page.
type ProcessedRecord struct {
	Path        string    `json:"path"`
	DocumentID  string    `json:"document_id"`
	RunID       string    `json:"run_id"`
	SizeBytes   int64     `json:"size_bytes"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewRunManifest creates an empty manifest.
func NewRunManifest() *RunManifest {
	return &RunManifest{
		Version:   manifestVersion,
		UpdatedAt: time.Now().UTC(),
		Processed: make(map[string]*ProcessedRecord),
	}
}

// LoadManifest reads a run manifest from disk. A missing file yields an
// empty manifest rather than an error, since a fresh run has none.
func LoadManifest(manifestPath string) (*RunManifest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRunManifest(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	manifest := &RunManifest{}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if manifest.Processed == nil {
		manifest.Processed = make(map[string]*ProcessedRecord)
	}

	return manifest, nil
}

// Save writes the manifest to disk.
func (manifest *RunManifest) Save(manifestPath string) error {
	manifest.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}
