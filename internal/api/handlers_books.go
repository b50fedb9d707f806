package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/simplebook/internal/book"
	"github.com/dgallion1/simplebook/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
)

// handleListBooks lists all cached conversions, newest first.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	entries, err := s.orchestrator.BookStore().List(r.Context())
	if err != nil {
		jsonError(w, "failed to list books: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"books": entries})
}

// handleGetBook returns the full serialized book, or the structural preview
// when ?preview=true.
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.loadPayload(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("preview") == "true" {
		b, err := book.Deserialize(payload)
		if err != nil {
			jsonError(w, "stored payload unreadable: "+err.Error(), http.StatusInternalServerError)
			return
		}
		payload, err = b.Serialize(true)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// handleBookMarkdown renders the book as a markdown document.
func (s *Server) handleBookMarkdown(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBook(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(b.ExportMarkdown()))
}

// handleBookPreviewHTML renders the markdown export as HTML for in-browser
// review.
func (s *Server) handleBookPreviewHTML(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBook(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(b.ExportMarkdown()), &buf); err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleDeleteBook removes a cached conversion.
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	err := s.orchestrator.BookStore().Delete(r.Context(), hash)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "delete failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"deleted": hash})
}

func (s *Server) loadPayload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	hash := chi.URLParam(r, "hash")
	payload, err := s.orchestrator.BookStore().Get(r.Context(), hash)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "book not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, "load failed: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return payload, true
}

func (s *Server) loadBook(w http.ResponseWriter, r *http.Request) (*book.Book, bool) {
	payload, ok := s.loadPayload(w, r)
	if !ok {
		return nil, false
	}
	b, err := book.Deserialize(payload)
	if err != nil {
		jsonError(w, "stored payload unreadable: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return b, true
}
