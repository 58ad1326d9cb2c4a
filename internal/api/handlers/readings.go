// Package handlers contains the HTTP handler implementations for the VitaLink
// ingestion API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vitalink/internal/core"
	"vitalink/internal/readings"
	"vitalink/internal/types"
)

// ReadingsService defines the service contract for the readings handler.
// Matches the readings.Service API but is defined locally to avoid tight
// coupling per the handler injection pattern.
type ReadingsService interface {
	Ingest(ctx context.Context, req readings.IngestRequest) (*readings.IngestResult, error)
}

// ReadingsHandler maps HTTP requests to the ingestion pipeline.
type ReadingsHandler struct {
	service   ReadingsService
	validator *core.Validator
	logger    *slog.Logger
}

// NewReadingsHandler creates a new ReadingsHandler with the provided dependencies.
func NewReadingsHandler(svc ReadingsService, val *core.Validator, logger *slog.Logger) *ReadingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingsHandler{
		service:   svc,
		validator: val,
		logger:    logger,
	}
}

// RegisterRoutes mounts the readings endpoints onto the mux.
//
// The route accepts POST only. A custom MethodNotAllowed handler advertises
// that via the Allow header before any body parsing happens, matching the
// contract embedded devices are coded against.
func (h *ReadingsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/readings", func(r chi.Router) {
		r.MethodNotAllowed(h.handleMethodNotAllowed)
		r.Post("/", h.HandleIngest)
	})
}

// HandleIngest handles POST /v1/readings.
//
//  1. Decode the JSON body (unknown fields tolerated).
//  2. Validate required-field presence.
//  3. Run the pipeline: prediction relay, then latest-document overwrite.
//  4. Return {"success": true, "prediction": "<level>"}.
func (h *ReadingsHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req readings.IngestRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.service.Ingest(r.Context(), req)
	if err != nil {
		// Upstream detail stays server-side; the device gets the mapped
		// status and the safe AppError message.
		h.logger.ErrorContext(r.Context(), "reading ingestion failed", "error", err)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.IngestResponse{
		Success:    true,
		Prediction: result.Prediction,
	})
}

// handleMethodNotAllowed writes the 405 contract for the readings route.
func (h *ReadingsHandler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	core.Error(w, r, types.NewAppError(
		types.ErrCodeMethodNotAllowed,
		"method not allowed; use POST",
		nil,
	))
}
