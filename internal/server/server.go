// Package server exposes the discovery pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/scoutlabs/brandscout/internal/models"
	"github.com/scoutlabs/brandscout/internal/pipeline"
)

// Server wires the HTTP routes to the pipeline service.
type Server struct {
	pipeline *pipeline.Service
	router   *mux.Router
}

func New(pipelineService *pipeline.Service) *Server {
	s := &Server{
		pipeline: pipelineService,
		router:   mux.NewRouter(),
	}

	s.router.Use(requestLogging)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
	s.router.HandleFunc("/api/discover", s.handleDiscover).Methods("POST")
	s.router.HandleFunc("/api/discover/{platform}/{handle}", s.handleCachePeek).Methods("GET")

	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler { return s.router }

type discoverRequest struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
	Niche    string `json:"niche,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	platform := models.Platform(strings.ToLower(req.Platform))
	if !platform.Valid() {
		writeError(w, http.StatusBadRequest, "platform must be instagram, tiktok or youtube")
		return
	}
	if strings.TrimSpace(req.Handle) == "" {
		writeError(w, http.StatusBadRequest, "handle is required")
		return
	}

	result, err := s.pipeline.RunDiscovery(r.Context(), pipeline.Request{
		Platform: platform,
		Handle:   req.Handle,
		ClientID: clientID(r),
		Niche:    req.Niche,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
		case errors.Is(err, models.ErrProfileNotFound):
			writeError(w, http.StatusNotFound, "profile not found")
		default:
			logrus.Errorf("Discovery failed for @%s on %s: %v", req.Handle, platform, err)
			writeError(w, http.StatusInternalServerError, "discovery failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCachePeek returns the cached result for a handle without running the
// pipeline or counting against the rate limit.
func (s *Server) handleCachePeek(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	platform := models.Platform(strings.ToLower(vars["platform"]))
	if !platform.Valid() {
		writeError(w, http.StatusBadRequest, "platform must be instagram, tiktok or youtube")
		return
	}

	result, err := s.pipeline.CachedResult(r.Context(), platform, vars["handle"])
	if err != nil {
		logrus.Errorf("Cache peek failed for @%s on %s: %v", vars["handle"], platform, err)
		writeError(w, http.StatusInternalServerError, "cache lookup failed")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "no cached result")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.pipeline.Metrics().Snapshot()))
}

// clientID identifies the requester for rate limiting: the first
// X-Forwarded-For hop when present, the remote address otherwise.
func clientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
			"client":   clientID(r),
		}).Debug("Handled request")
	})
}
