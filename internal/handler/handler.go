// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ninjainc/waitlist/internal/handler/dto"
)

// Version is reported by the info endpoint.
const Version = "1.0.0"

// Features lists the optional backends the process was started with.
type Features struct {
	DatabaseConfigured bool
	CacheEnabled       bool
	MetricsEnabled     bool
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Database  string   `json:"database"`
	ListCache string   `json:"list_cache"`
	Endpoints []string `json:"endpoints"`
}

// Handler serves the root document and the fallback error responses.
type Handler struct {
	info InfoResponse
}

// New builds the handler. The info document is fixed for the life of the
// process, so it is rendered once here.
func New(f Features) *Handler {
	info := InfoResponse{
		Service:   "waitlist",
		Version:   Version,
		Database:  "not configured",
		ListCache: "disabled",
		Endpoints: []string{
			"POST /subscribe",
			"GET /subscribers",
			"POST /api/subscribe",
			"GET /api/subscribers",
			"GET /healthz",
			"GET /readyz",
		},
	}
	if f.DatabaseConfigured {
		info.Database = "configured"
	}
	if f.CacheEnabled {
		info.ListCache = "enabled"
	}
	if f.MetricsEnabled {
		info.Endpoints = append(info.Endpoints, "GET /metrics")
	}
	return &Handler{info: info}
}

// Info describes the deployment. It reports whether backends are wired,
// not whether they are reachable; /readyz does that.
//
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}

// NotFound handles unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.ErrorResponse{
		Error:   "resource not found",
		Details: r.Method + " " + r.URL.Path,
	})
}

// MethodNotAllowed handles known routes hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{
		Error:   "method not allowed",
		Details: r.Method + " " + r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Warn("failed to encode response", "error", err)
	}
}
