// Package library manages a persistent collection of reconstructed
// legislation documents on disk. Each document stores its hierarchy
// tree, diagnostics and completeness report as schema-validated JSON,
// and a manifest indexes the collection.
package library

import (
	"time"

	"github.com/coolbeans/lexstruct/pkg/hierarchy"
)

// DocumentStatus represents the state of a document in the library.
type DocumentStatus string

const (
	// StatusReady indicates reconstruction succeeded and the tree is complete.
	StatusReady DocumentStatus = "ready"

	// StatusDegraded indicates the document was stored but its
	// reconstruction carries diagnostics worth reviewing.
	StatusDegraded DocumentStatus = "degraded"
)

// Document is one stored legislation document: the reconstructed tree
// plus everything needed to audit how it was produced.
type Document struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`
	RunID        string `json:"run_id,omitempty"`

	Tree         []*hierarchy.Node            `json:"parts"`
	Diagnostics  hierarchy.Diagnostics        `json:"diagnostics,omitempty"`
	Completeness hierarchy.CompletenessReport `json:"completeness"`

	FetchedAt       time.Time `json:"fetched_at,omitempty"`
	ReconstructedAt time.Time `json:"reconstructed_at"`
}

// Status derives the document's state from its reconstruction results.
func (document *Document) Status() DocumentStatus {
	if len(document.Diagnostics) == 0 && document.Completeness.Clean() {
		return StatusReady
	}
	return StatusDegraded
}

// Stats summarizes the document's reconstructed structure.
func (document *Document) Stats() DocumentStats {
	stats := DocumentStats{}
	var walk func(nodes []*hierarchy.Node, topLevel bool)
	walk = func(nodes []*hierarchy.Node, topLevel bool) {
		for _, node := range nodes {
			if topLevel {
				if node.Label == hierarchy.UnassignedLabel {
					stats.Unassigned += len(node.Sections)
				} else {
					stats.Parts++
				}
			} else {
				stats.Chapters++
			}
			stats.Sections += len(node.Sections)
			walk(node.Children, false)
		}
	}
	walk(document.Tree, true)
	return stats
}

// DocumentStats holds structural statistics for a single document.
type DocumentStats struct {
	Parts      int `json:"parts"`
	Chapters   int `json:"chapters"`
	Sections   int `json:"sections"`
	Unassigned int `json:"unassigned"`
}

// Manifest is the top-level index of all documents in the library.
type Manifest struct {
	Version   string           `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Documents []*ManifestEntry `json:"documents"`
}

// ManifestEntry indexes a single stored document.
type ManifestEntry struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Jurisdiction string         `json:"jurisdiction,omitempty"`
	Status       DocumentStatus `json:"status"`
	Stats        DocumentStats  `json:"stats"`
	StoredAt     time.Time      `json:"stored_at"`
}
