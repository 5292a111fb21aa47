package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/NickMickmlnn/GameTracking/internal/middleware"
	"github.com/NickMickmlnn/GameTracking/internal/service"
	"github.com/rs/zerolog"
)

// CatalogServer exposes the catalog over plain JSON HTTP.
type CatalogServer struct {
	searchSvc  *service.SearchService
	refreshSvc *service.RefreshService
	logger     zerolog.Logger
}

func NewCatalogServer(searchSvc *service.SearchService, refreshSvc *service.RefreshService, logger zerolog.Logger) *CatalogServer {
	return &CatalogServer{searchSvc: searchSvc, refreshSvc: refreshSvc, logger: logger}
}

type searchResponse struct {
	Query   string                 `json:"query"`
	Results []service.SearchResult `json:"results"`
}

type refreshResponse struct {
	Status string         `json:"status"`
	Counts map[string]int `json:"counts"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Register attaches all routes to mux.
func (s *CatalogServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/refresh", s.handleRefresh)
}

func (s *CatalogServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{OK: true})
}

func (s *CatalogServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, r, http.StatusBadRequest, "missing query parameter q")
		return
	}

	results, err := s.searchSvc.Search(r.Context(), query)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("search failed")
		s.writeError(w, r, http.StatusInternalServerError, "search failed")
		return
	}

	if results == nil {
		results = []service.SearchResult{}
	}
	s.writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

// handleRefresh always answers 200 once the cycle completes. A source
// outage shows up as a low count, not as an HTTP failure.
func (s *CatalogServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	counts := s.refreshSvc.RefreshAll(r.Context())
	s.writeJSON(w, http.StatusOK, refreshResponse{Status: "ok", Counts: counts})
}

func (s *CatalogServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn().Err(err).Msg("writing response failed")
	}
}

func (s *CatalogServer) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg, RequestID: middleware.GetRequestID(r.Context())})
}
