package bulk

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coolbeans/lexstruct/pkg/library"
)

const goodPage = `<html>
<head><title>%s</title></head>
<body>
<input type="hidden" name="hdnToc" value="PART I
1. First
2. Second">
<b>1. First</b><p>Text of the first section.</p>
<b>2. Second</b><p>Text of the second section.</p>
</body>
</html>`

func writePage(t *testing.T, dir, name, title string) string {
	t.Helper()
	pagePath := filepath.Join(dir, name)
	content := strings.Replace(goodPage, "%s", title, 1)
	if err := os.WriteFile(pagePath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing page: %v", err)
	}
	return pagePath
}

func newTestLibrary(t *testing.T) *library.Library {
	t.Helper()
	lib, err := library.Init(t.TempDir())
	if err != nil {
		t.Fatalf("library init: %v", err)
	}
	return lib
}

func TestRunProcessesDirectory(t *testing.T) {
	pagesDir := t.TempDir()
	writePage(t, pagesDir, "cap1.html", "Penal Code")
	writePage(t, pagesDir, "cap2.html", "Evidence Ordinance")

	lib := newTestLibrary(t)
	runner := NewRunner(RunConfig{Workers: 2}, lib)

	report, err := runner.Run(context.Background(), pagesDir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Succeeded != 2 || report.Failed != 0 {
		t.Errorf("report: %+v", report)
	}
	if report.RunID == "" {
		t.Error("run ID not assigned")
	}
	if !lib.Has("penal-code") || !lib.Has("evidence-ordinance") {
		t.Errorf("library entries: %v", lib.List())
	}

	document, err := lib.Get("penal-code")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if document.RunID != report.RunID {
		t.Errorf("document run ID: got %q, want %q", document.RunID, report.RunID)
	}
	if got := document.Stats().Sections; got != 2 {
		t.Errorf("sections: got %d, want 2", got)
	}
}

func TestRunRecordsFailuresAndContinues(t *testing.T) {
	pagesDir := t.TempDir()
	writePage(t, pagesDir, "good.html", "Good Ordinance")

	// A dangling symlink makes the open fail regardless of who runs
	// the tests.
	badPath := filepath.Join(pagesDir, "bad.html")
	if err := os.Symlink(filepath.Join(pagesDir, "missing-target"), badPath); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	runner := NewRunner(RunConfig{Workers: 1}, newTestLibrary(t))
	report, err := runner.Run(context.Background(), pagesDir)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Succeeded != 1 || report.Failed != 1 {
		t.Errorf("report counts: %+v", report)
	}
	if !strings.Contains(report.Summary(), "FAIL") {
		t.Errorf("summary should list the failure:\n%s", report.Summary())
	}
}

func TestRunResumeSkipsProcessedPages(t *testing.T) {
	pagesDir := t.TempDir()
	writePage(t, pagesDir, "cap1.html", "Penal Code")

	lib := newTestLibrary(t)
	runner := NewRunner(RunConfig{Workers: 1, Resume: true}, lib)

	first, err := runner.Run(context.Background(), pagesDir)
	if err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if first.Succeeded != 1 {
		t.Fatalf("first run: %+v", first)
	}

	writePage(t, pagesDir, "cap2.html", "Evidence Ordinance")

	second, err := runner.Run(context.Background(), pagesDir)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if len(second.Pages) != 1 {
		t.Errorf("second run should only process the new page, got %d", len(second.Pages))
	}
	if second.Pages[0].DocumentID != "evidence-ordinance" {
		t.Errorf("second run page: %+v", second.Pages[0])
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	runner := NewRunner(RunConfig{}, newTestLibrary(t))

	report, err := runner.Run(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Pages) != 0 || report.Succeeded != 0 {
		t.Errorf("empty run report: %+v", report)
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	manifest, err := LoadManifest(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if len(manifest.Processed) != 0 {
		t.Errorf("expected empty manifest, got %+v", manifest)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "run-manifest.json")

	manifest := NewRunManifest()
	manifest.Processed["/pages/cap1.html"] = &ProcessedRecord{
		Path:       "/pages/cap1.html",
		DocumentID: "penal-code",
		RunID:      "run-1",
	}
	if err := manifest.Save(manifestPath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	record, ok := loaded.Processed["/pages/cap1.html"]
	if !ok || record.DocumentID != "penal-code" {
		t.Errorf("loaded manifest: %+v", loaded)
	}
}
