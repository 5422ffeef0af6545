// Package api serves a read-only HTTP view of a document library:
// manifest listings, stored documents as JSON, and rendered HTML pages.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coolbeans/lexstruct/pkg/analysis"
	"github.com/coolbeans/lexstruct/pkg/library"
	"github.com/coolbeans/lexstruct/pkg/render"
)

// Server is the HTTP server over a library.
type Server struct {
	router chi.Router
	lib    *library.Library
	log    *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(lib *library.Library, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	server := &Server{lib: lib, log: log}
	server.setupRoutes()
	return server
}

func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server.router.ServeHTTP(w, r)
}

func (server *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(server.log))

	r.Get("/healthz", server.handleHealth)
	r.Get("/documents", server.handleListDocuments)
	r.Get("/documents/{docID}", server.handleGetDocument)
	r.Get("/documents/{docID}/html", server.handleDocumentHTML)
	r.Get("/documents/{docID}/analysis", server.handleDocumentAnalysis)

	server.router = r
}

func (server *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (server *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": server.lib.List()})
}

func (server *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	document, ok := server.loadDocument(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(document)
}

func (server *Server) handleDocumentHTML(w http.ResponseWriter, r *http.Request) {
	document, ok := server.loadDocument(w, r)
	if !ok {
		return
	}

	page, err := render.ToHTML(document)
	if err != nil {
		server.log.Error("rendering document", "id", document.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to render document")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (server *Server) handleDocumentAnalysis(w http.ResponseWriter, r *http.Request) {
	document, ok := server.loadDocument(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(analysis.AnalyzeDocument(document.ID, document.Title, document.Tree))
}

// loadDocument fetches the document named in the route, writing a 404
// and returning false when it does not exist.
func (server *Server) loadDocument(w http.ResponseWriter, r *http.Request) (*library.Document, bool) {
	docID := chi.URLParam(r, "docID")
	if !server.lib.Has(docID) {
		writeError(w, http.StatusNotFound, "document not found")
		return nil, false
	}

	document, err := server.lib.Get(docID)
	if err != nil {
		server.log.Error("loading document", "id", docID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load document")
		return nil, false
	}
	return document, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
