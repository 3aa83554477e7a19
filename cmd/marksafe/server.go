package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/CTAG07/marksafe/pkg/render"
)

// Server wires the snippet store and the render engine behind an HTTP API.
type Server struct {
	config *Config
	logger *slog.Logger
	engine *render.Engine
	store  *SnippetStore
	mux    *http.ServeMux
}

// NewServer creates the server object and registers all routes on its mux.
func NewServer(config *Config, logger *slog.Logger, db *sql.DB) (*Server, error) {
	engine, err := render.NewEngine(logger, config.Render, filepath.Join(config.Server.DataDir, "templates"))
	if err != nil {
		return nil, fmt.Errorf("failed to create render engine: %w", err)
	}

	s := &Server{
		config: config,
		logger: logger,
		engine: engine,
		store:  NewSnippetStore(db),
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/snippets", s.handleSnippets)
	s.mux.HandleFunc("/api/snippets/", s.handleSnippet)
	s.mux.HandleFunc("/api/templates/refresh", s.handleRefresh)
	s.mux.HandleFunc("/render/", s.handleRender)

	return s, nil
}

// snippetRequest is the JSON body for snippet create and update calls.
type snippetRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Trusted bool   `json:"trusted"`
}

// handleSnippets serves the collection endpoint: list and create.
func (s *Server) handleSnippets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		snippets, err := s.store.List(r.Context())
		if err != nil {
			s.logger.Error("Failed to list snippets", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to list snippets")
			return
		}
		respondWithJSON(w, http.StatusOK, snippets)
	case http.MethodPost:
		var req snippetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
		if req.Name == "" {
			respondWithError(w, http.StatusBadRequest, "Snippet name is required")
			return
		}
		snippet, err := s.store.Insert(r.Context(), req.Name, req.Content, req.Trusted)
		if err != nil {
			s.logger.Error("Failed to insert snippet", "name", req.Name, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to insert snippet")
			return
		}
		s.logger.Info("Snippet created", "id", snippet.ID, "name", snippet.Name, "trusted", snippet.Trusted)
		respondWithJSON(w, http.StatusCreated, snippet)
	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSnippet serves the item endpoint: get, update and delete by id.
func (s *Server) handleSnippet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/snippets/")
	if id == "" || strings.Contains(id, "/") {
		respondWithError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		snippet, err := s.store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrSnippetNotFound) {
				respondWithError(w, http.StatusNotFound, "Snippet not found")
				return
			}
			s.logger.Error("Failed to get snippet", "id", id, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to get snippet")
			return
		}
		respondWithJSON(w, http.StatusOK, snippet)
	case http.MethodPut:
		var req snippetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
		if err := s.store.Update(r.Context(), id, req.Content, req.Trusted); err != nil {
			if errors.Is(err, ErrSnippetNotFound) {
				respondWithError(w, http.StatusNotFound, "Snippet not found")
				return
			}
			s.logger.Error("Failed to update snippet", "id", id, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to update snippet")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := s.store.Delete(r.Context(), id); err != nil {
			if errors.Is(err, ErrSnippetNotFound) {
				respondWithError(w, http.StatusNotFound, "Snippet not found")
				return
			}
			s.logger.Error("Failed to delete snippet", "id", id, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to delete snippet")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleRefresh triggers a manual reload of templates from disk.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if err := s.engine.Refresh(); err != nil {
		s.logger.Error("API triggered refresh failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to refresh templates: %v", err))
		return
	}
	s.logger.Info("Templates refreshed via API")
	w.WriteHeader(http.StatusNoContent)
}

// handleRender executes a named template with the resolved snippet set
// as data. Untrusted snippet content reaches the page escaped; trusted
// fragments are emitted verbatim.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/render/")
	if name == "" {
		respondWithError(w, http.StatusNotFound, "Template name is required")
		return
	}

	snippets, err := s.store.ResolveAll(r.Context())
	if err != nil {
		s.logger.Error("Failed to resolve snippets", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to resolve snippets")
		return
	}

	var buf bytes.Buffer
	err = s.engine.Execute(&buf, name, map[string]any{"Snippets": snippets})
	if err != nil {
		if errors.Is(err, render.ErrOutputLimit) {
			s.logger.Warn("Render aborted by output limit", "template", name)
			respondWithError(w, http.StatusInsufficientStorage, "Rendered output too large")
			return
		}
		s.logger.Error("Failed to execute template", "template", name, "error", err)
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template execution failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}
