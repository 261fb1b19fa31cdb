// Package chi exposes the query pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atelierlabs/stylequery/internal/domain"
	"github.com/atelierlabs/stylequery/internal/logger"
	healthuc "github.com/atelierlabs/stylequery/internal/usecase/health"
	productuc "github.com/atelierlabs/stylequery/internal/usecase/product"
)

// Error codes returned to clients. Upstream failures surface a generic
// message with no internal detail.
const (
	codeBadRequest    = "bad_request"
	codeNotFound      = "not_found"
	codeUpstreamError = "upstream_error"
)

const genericSearchFailure = "Something went wrong while searching. Please try again."

// Searcher runs the query pipeline for one prompt (ISP consumer interface).
type Searcher interface {
	Search(ctx context.Context, prompt string) (domain.SearchResponse, error)
}

// ProductGetter fetches a single catalog item.
type ProductGetter interface {
	Get(ctx context.Context, parentASIN string) (domain.Product, error)
}

// HealthChecker reports component readiness.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server wires the usecases to HTTP routes.
type Server struct {
	search   Searcher
	products ProductGetter
	health   HealthChecker
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, products ProductGetter, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{search: search, products: products, health: health, logger: logger}
}

// Routes registers all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.handleSearch)
	r.Get("/items/{parentASIN}", s.handleGetItem)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.NotFound(s.handleNotFound)
}

type searchRequest struct {
	Prompt string `json:"prompt"`
}

// handleSearch handles POST /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Prompt is required")
		return
	}

	resp, err := s.search.Search(r.Context(), req.Prompt)
	if err != nil {
		// Genuine upstream failure: log the detail, leak nothing.
		logger.FromContext(r.Context()).Error("search pipeline failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, codeUpstreamError, genericSearchFailure)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetItem handles GET /items/{parentASIN}.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	parentASIN := chi.URLParam(r, "parentASIN")

	p, err := s.products.Get(r.Context(), parentASIN)
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, fmt.Sprintf("Item %q not found", parentASIN))
		return
	case errors.Is(err, productuc.ErrEmptyID):
		writeError(w, http.StatusBadRequest, codeBadRequest, "Parent ASIN is required")
		return
	case err != nil:
		logger.FromContext(r.Context()).Error("get item failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, codeUpstreamError, "Could not load the item. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReadyz is the readiness probe: store + model service.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// handleNotFound answers any undefined route with a JSON 404.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, codeNotFound,
		fmt.Sprintf("Path %q not found. Please check the documentation for the correct path.", r.URL.Path))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
