// Package bulk processes directories of downloaded legislation pages in
// batch: each page is extracted, reconstructed and stored in a library,
// with a manifest for resumable runs and a summary report at the end.
package bulk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coolbeans/lexstruct/pkg/hierarchy"
	"github.com/coolbeans/lexstruct/pkg/htmldoc"
	"github.com/coolbeans/lexstruct/pkg/library"
	"github.com/coolbeans/lexstruct/pkg/pattern"
)

// manifestFileName is the resumability manifest kept next to the pages.
const manifestFileName = "run-manifest.json"

// RunConfig controls a batch run.
type RunConfig struct {
	// Workers is the number of pages processed concurrently.
	Workers int

	// Pattern selects the outline pattern set, nil for the default.
	Pattern *pattern.OutlinePattern

	// Resume skips pages already recorded in the run manifest.
	Resume bool
}

// Runner processes a directory of HTML pages into a library.
type Runner struct {
	config RunConfig
	lib    *library.Library
}

// NewRunner creates a batch runner storing into the given library.
func NewRunner(config RunConfig, lib *library.Library) *Runner {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &Runner{config: config, lib: lib}
}

// Run processes every .html file under pagesDir. Failures on individual
// pages are recorded in the report and do not stop the run; only setup
// problems (unreadable directory, broken manifest) abort it.
func (runner *Runner) Run(ctx context.Context, pagesDir string) (*RunReport, error) {
	pagePaths, err := listPages(pagesDir)
	if err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(pagesDir, manifestFileName)
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	report := &RunReport{RunID: runID, StartedAt: time.Now().UTC()}

	type job struct {
		path string
	}
	jobs := make(chan job)
	results := make(chan PageResult)

	var workerGroup sync.WaitGroup
	for i := 0; i < runner.config.Workers; i++ {
		workerGroup.Add(1)
		go func() {
			defer workerGroup.Done()
			for j := range jobs {
				results <- runner.processPage(runID, j.path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, pagePath := range pagePaths {
			if runner.config.Resume {
				if _, done := manifest.Processed[pagePath]; done {
					continue
				}
			}
			select {
			case jobs <- job{path: pagePath}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workerGroup.Wait()
		close(results)
	}()

	for result := range results {
		report.Pages = append(report.Pages, result)
		switch {
		case result.Err != "":
			report.Failed++
		case result.Degraded:
			report.Degraded++
			fallthrough
		default:
			report.Succeeded++
			info, statErr := os.Stat(result.Path)
			var size int64
			if statErr == nil {
				size = info.Size()
			}
			manifest.Processed[result.Path] = &ProcessedRecord{
				Path:        result.Path,
				DocumentID:  result.DocumentID,
				RunID:       runID,
				SizeBytes:   size,
				ProcessedAt: time.Now().UTC(),
			}
		}
	}

	sort.Slice(report.Pages, func(i, j int) bool {
		return report.Pages[i].Path < report.Pages[j].Path
	})
	report.FinishedAt = time.Now().UTC()

	if err := manifest.Save(manifestPath); err != nil {
		return report, err
	}
	if ctx.Err() != nil {
		return report, fmt.Errorf("batch run interrupted: %w", ctx.Err())
	}
	return report, nil
}

// processPage extracts and reconstructs one page and stores the result.
func (runner *Runner) processPage(runID, pagePath string) PageResult {
	result := PageResult{Path: pagePath}

	file, err := os.Open(pagePath)
	if err != nil {
		result.Err = fmt.Sprintf("opening page: %v", err)
		return result
	}
	defer file.Close()

	extracted, err := htmldoc.NewExtractor(runner.config.Pattern).Extract(file)
	if err != nil {
		result.Err = fmt.Sprintf("extracting page: %v", err)
		return result
	}

	title := extracted.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(pagePath), ".html")
	}

	reconstruction := hierarchy.NewEngine(runner.config.Pattern).
		Reconstruct(extracted.OutlineText, extracted.Sections)

	document := &library.Document{
		ID:              library.MakeID(title),
		Title:           title,
		RunID:           runID,
		Tree:            reconstruction.Tree,
		Diagnostics:     reconstruction.Diagnostics,
		Completeness:    reconstruction.Completeness,
		ReconstructedAt: time.Now().UTC(),
	}

	if err := runner.lib.Put(document); err != nil {
		result.Err = fmt.Sprintf("storing document: %v", err)
		return result
	}

	result.DocumentID = document.ID
	result.Sections = document.Stats().Sections
	result.Degraded = document.Status() == library.StatusDegraded
	return result
}

// listPages returns the sorted .html files directly under pagesDir.
func listPages(pagesDir string) ([]string, error) {
	entries, err := os.ReadDir(pagesDir)
	if err != nil {
		return nil, fmt.Errorf("reading pages directory %s: %w", pagesDir, err)
	}

	var pagePaths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		pagePaths = append(pagePaths, filepath.Join(pagesDir, entry.Name()))
	}
	sort.Strings(pagePaths)
	return pagePaths, nil
}
