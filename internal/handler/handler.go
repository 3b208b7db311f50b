package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"railviz/internal/domain"
	"railviz/internal/service"
	"railviz/internal/session"
)

// maxPayloadBytes bounds an uploaded graph payload
const maxPayloadBytes = 10 << 20

// RenderHandler handles render session API requests
type RenderHandler struct {
	svc *service.RenderService
}

// NewRenderHandler creates a new render handler
func NewRenderHandler(svc *service.RenderService) *RenderHandler {
	return &RenderHandler{svc: svc}
}

// Register adds the session routes to mux
func (h *RenderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/sessions", h.ListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/render", h.Rerender)
	mux.HandleFunc("GET /api/sessions/{id}/svg", h.GetSVG)
	mux.HandleFunc("GET /api/sessions/{id}/scene", h.GetScene)
	mux.HandleFunc("PUT /api/sessions/{id}/toggles", h.SetToggle)
	mux.HandleFunc("POST /api/sessions/{id}/viewport", h.Viewport)
	mux.HandleFunc("GET /api/sessions/{id}/graph", h.DownloadGraph)
	mux.HandleFunc("GET /api/graphs", h.ListGraphs)
	mux.HandleFunc("GET /healthz", h.Health)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ToggleRequest flips one toggle
type ToggleRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// CreateSession uploads a graph payload, JSON or YAML by Content-Type
func (h *RenderHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	st, err := h.svc.Import(r.Context(), r.URL.Query().Get("name"), r.Header.Get("Content-Type"), body)
	if err != nil {
		h.writeServiceError(w, "Failed to load graph", err)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+st.ID)
	writeJSON(w, st, http.StatusCreated)
}

// ListSessions returns every live session
func (h *RenderHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.List(), http.StatusOK)
}

// GetSession returns the state of one session
func (h *RenderHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Get(r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get session", err)
		return
	}
	writeJSON(w, st, http.StatusOK)
}

// DeleteSession closes a session and cancels its simulation
func (h *RenderHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, "Failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rerender runs a full re-render of the stored payload
func (h *RenderHandler) Rerender(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Rerender(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to re-render", err)
		return
	}
	writeJSON(w, st, http.StatusOK)
}

// GetSVG returns the current frame
func (h *RenderHandler) GetSVG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.WriteSVG(r.PathValue("id"), &buf); err != nil {
		h.writeServiceError(w, "Failed to render SVG", err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Failed to write SVG: %v", err)
	}
}

// GetScene returns the current primitives as JSON
func (h *RenderHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Scene(r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get scene", err)
		return
	}
	writeJSON(w, view, http.StatusOK)
}

// SetToggle applies a toggle transition
func (h *RenderHandler) SetToggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	state, err := h.svc.SetToggle(r.PathValue("id"), req.Name, req.Enabled)
	if err != nil {
		h.writeServiceError(w, "Failed to set toggle", err)
		return
	}
	writeJSON(w, state, http.StatusOK)
}

// Viewport applies a zoom, pan or reset gesture
func (h *RenderHandler) Viewport(w http.ResponseWriter, r *http.Request) {
	var req service.ViewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	tr, err := h.svc.Viewport(r.PathValue("id"), req)
	if err != nil {
		h.writeServiceError(w, "Failed to update viewport", err)
		return
	}
	writeJSON(w, tr, http.StatusOK)
}

// DownloadGraph returns the last loaded payload as JSON or YAML
func (h *RenderHandler) DownloadGraph(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format := r.URL.Query().Get("format")

	data, contentType, err := h.svc.Export(id, format)
	if err != nil {
		h.writeServiceError(w, "Failed to export graph", err)
		return
	}

	ext := "json"
	if format == "yaml" || format == "yml" {
		ext = "yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=graph-%s.%s", id, ext))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Failed to write export: %v", err)
	}
}

// ListGraphs returns the stored payloads without their bodies
func (h *RenderHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.StoredGraphs(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to list graphs", err)
		return
	}
	writeJSON(w, records, http.StatusOK)
}

// Health reports liveness
func (h *RenderHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":   "ok",
		"sessions": len(h.svc.List()),
	}, http.StatusOK)
}

// writeServiceError maps service errors to status codes
func (h *RenderHandler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrMalformedGraph):
		writeError(w, msg, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &tooLarge):
		writeError(w, msg, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, domain.ErrInvalidGraph), errors.Is(err, service.ErrInvalidInput):
		writeError(w, msg, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrNotFound):
		writeError(w, "Not found", err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrNotLoaded):
		writeError(w, msg, err.Error(), http.StatusConflict)
	default:
		log.Printf("%s: %v", msg, err)
		writeError(w, msg, err.Error(), http.StatusInternalServerError)
	}
}

// Helper methods

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, error, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Details: details,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
