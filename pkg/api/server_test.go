package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coolbeans/lexstruct/pkg/hierarchy"
	"github.com/coolbeans/lexstruct/pkg/library"
)

func newTestServer(t *testing.T) (*Server, *library.Library) {
	t.Helper()

	lib, err := library.Init(t.TempDir())
	if err != nil {
		t.Fatalf("library init: %v", err)
	}

	err = lib.Put(&library.Document{
		ID:    "penal-code",
		Title: "Penal Code",
		Tree: []*hierarchy.Node{
			{
				Label: "PART I",
				Sections: []hierarchy.Section{
					{Number: "1", Heading: "Short title", Body: "May be cited as the Penal Code."},
					{Number: "2", Heading: "Interpretation", Body: "Definitions."},
				},
			},
		},
		Completeness:    hierarchy.CompletenessReport{InputCount: 2, TreeCount: 2},
		ReconstructedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seeding library: %v", err)
	}

	return NewServer(lib, slog.New(slog.NewTextHandler(io.Discard, nil))), lib
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	response := get(t, server, "/healthz")
	if response.Code != http.StatusOK {
		t.Fatalf("status: got %d", response.Code)
	}
	if !strings.Contains(response.Body.String(), `"ok"`) {
		t.Errorf("body: %s", response.Body.String())
	}
}

func TestListDocuments(t *testing.T) {
	server, _ := newTestServer(t)

	response := get(t, server, "/documents")
	if response.Code != http.StatusOK {
		t.Fatalf("status: got %d", response.Code)
	}

	var payload struct {
		Documents []*library.ManifestEntry `json:"documents"`
	}
	if err := json.Unmarshal(response.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Documents) != 1 || payload.Documents[0].ID != "penal-code" {
		t.Errorf("documents: %+v", payload.Documents)
	}
}

func TestGetDocument(t *testing.T) {
	server, _ := newTestServer(t)

	response := get(t, server, "/documents/penal-code")
	if response.Code != http.StatusOK {
		t.Fatalf("status: got %d", response.Code)
	}

	var document library.Document
	if err := json.Unmarshal(response.Body.Bytes(), &document); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if document.Title != "Penal Code" || len(document.Tree) != 1 {
		t.Errorf("document: %+v", document)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	response := get(t, server, "/documents/no-such-doc")
	if response.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", response.Code)
	}
	if !strings.Contains(response.Body.String(), "not found") {
		t.Errorf("body: %s", response.Body.String())
	}
}

func TestDocumentHTML(t *testing.T) {
	server, _ := newTestServer(t)

	response := get(t, server, "/documents/penal-code/html")
	if response.Code != http.StatusOK {
		t.Fatalf("status: got %d", response.Code)
	}
	if contentType := response.Header().Get("Content-Type"); !strings.HasPrefix(contentType, "text/html") {
		t.Errorf("content type: %s", contentType)
	}
	if !strings.Contains(response.Body.String(), "<h2>PART I</h2>") {
		t.Errorf("page body:\n%s", response.Body.String())
	}
}

func TestDocumentAnalysis(t *testing.T) {
	server, _ := newTestServer(t)

	response := get(t, server, "/documents/penal-code/analysis")
	if response.Code != http.StatusOK {
		t.Fatalf("status: got %d", response.Code)
	}

	var payload struct {
		TotalFound   int     `json:"total_sections_found"`
		Completeness float64 `json:"completeness_percentage"`
	}
	if err := json.Unmarshal(response.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.TotalFound != 2 || payload.Completeness != 100.0 {
		t.Errorf("analysis: %+v", payload)
	}
}
