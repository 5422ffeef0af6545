package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	manifestFileName = "library.json"
	documentsDir     = "documents"
	manifestVersion  = "1.0.0"
)

// Library manages a persistent collection of reconstructed documents.
type Library struct {
	mu       sync.RWMutex
	path     string
	manifest *Manifest
}

// Init creates a new library at the given path. The directory and an
// empty manifest are created immediately.
func Init(libraryPath string) (*Library, error) {
	documentsPath := filepath.Join(libraryPath, documentsDir)
	if err := os.MkdirAll(documentsPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library directory: %w", err)
	}

	manifest := &Manifest{
		Version:   manifestVersion,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Documents: []*ManifestEntry{},
	}

	lib := &Library{
		path:     libraryPath,
		manifest: manifest,
	}

	if err := lib.saveManifest(); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	return lib, nil
}

// Open loads an existing library from disk.
func Open(libraryPath string) (*Library, error) {
	manifestPath := filepath.Join(libraryPath, manifestFileName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read library manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse library manifest: %w", err)
	}

	return &Library{
		path:     libraryPath,
		manifest: &manifest,
	}, nil
}

// OpenOrInit opens the library at the given path, creating it when the
// manifest does not exist yet.
func OpenOrInit(libraryPath string) (*Library, error) {
	lib, err := Open(libraryPath)
	if err == nil {
		return lib, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return Init(libraryPath)
	}
	return nil, err
}

// Put stores a document, replacing any existing document with the same ID.
func (lib *Library) Put(document *Document) error {
	if document == nil {
		return fmt.Errorf("document is nil")
	}
	if document.ID == "" {
		return fmt.Errorf("document has no ID")
	}

	data, err := SerializeDocument(document)
	if err != nil {
		return err
	}

	lib.mu.Lock()
	defer lib.mu.Unlock()

	documentPath := lib.documentPath(document.ID)
	if err := os.WriteFile(documentPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document %s: %w", document.ID, err)
	}

	entry := &ManifestEntry{
		ID:           document.ID,
		Title:        document.Title,
		Jurisdiction: document.Jurisdiction,
		Status:       document.Status(),
		Stats:        document.Stats(),
		StoredAt:     time.Now().UTC(),
	}

	replaced := false
	for i, existing := range lib.manifest.Documents {
		if existing.ID == document.ID {
			lib.manifest.Documents[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		lib.manifest.Documents = append(lib.manifest.Documents, entry)
	}
	sort.Slice(lib.manifest.Documents, func(i, j int) bool {
		return lib.manifest.Documents[i].ID < lib.manifest.Documents[j].ID
	})

	lib.manifest.UpdatedAt = time.Now().UTC()
	return lib.saveManifest()
}

// Get loads a document by ID.
func (lib *Library) Get(id string) (*Document, error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	data, err := os.ReadFile(lib.documentPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document %s not found", id)
		}
		return nil, fmt.Errorf("failed to read document %s: %w", id, err)
	}

	return DeserializeDocument(data)
}

// Has reports whether a document with the given ID is in the manifest.
func (lib *Library) Has(id string) bool {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	for _, entry := range lib.manifest.Documents {
		if entry.ID == id {
			return true
		}
	}
	return false
}

// List returns the manifest entries sorted by ID.
func (lib *Library) List() []*ManifestEntry {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	entries := make([]*ManifestEntry, len(lib.manifest.Documents))
	copy(entries, lib.manifest.Documents)
	return entries
}

// Remove deletes a document and its manifest entry.
func (lib *Library) Remove(id string) error {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	found := false
	remaining := lib.manifest.Documents[:0]
	for _, entry := range lib.manifest.Documents {
		if entry.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, entry)
	}
	if !found {
		return fmt.Errorf("document %s not found", id)
	}
	lib.manifest.Documents = remaining

	if err := os.Remove(lib.documentPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove document %s: %w", id, err)
	}

	lib.manifest.UpdatedAt = time.Now().UTC()
	return lib.saveManifest()
}

// Path returns the library's root directory.
func (lib *Library) Path() string {
	return lib.path
}

func (lib *Library) documentPath(id string) string {
	return filepath.Join(lib.path, documentsDir, id+".json")
}

func (lib *Library) saveManifest() error {
	data, err := json.MarshalIndent(lib.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	manifestPath := filepath.Join(lib.path, manifestFileName)
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

var idUnsafePattern = regexp.MustCompile(`[^a-z0-9]+`)

// MakeID derives a stable document ID from a title, lowercasing and
// replacing runs of unsafe characters with hyphens.
func MakeID(title string) string {
	id := idUnsafePattern.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(id, "-")
}
