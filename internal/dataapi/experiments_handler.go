package dataapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/rafaeljc/bifrost/internal/logger"
)

// handleListExperiments processes GET /api/v1/experiments.
func (a *API) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	defs := a.engine.Registry().List()

	data := make([]ExperimentResponse, len(defs))
	for i, d := range defs {
		data[i] = ExperimentResponse{
			ID:       d.ID,
			Enabled:  d.Enabled,
			Variants: d.Variants,
			Exposed:  a.engine.Exposed(d.ID),
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ListResponse{Data: data, Total: len(data)})
}

// handleGetAssignment processes GET /api/v1/experiments/{id}/assignment.
// It never emits events; exposure is tracked explicitly.
func (a *API) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	assignment, ok := a.engine.Assign(r.Context(), id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "ERR_NOT_FOUND", "Experiment not found")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, AssignmentResponse{
		ExperimentID: assignment.ExperimentID,
		Variant:      assignment.Variant,
		UserID:       assignment.UserID,
		Degraded:     assignment.UserID == "",
	})
}

// handleTrackExposure processes POST /api/v1/experiments/{id}/exposure.
// Repeated calls succeed but only the first one emits.
func (a *API) handleTrackExposure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, known := a.engine.Registry().Lookup(id); !known {
		writeError(w, r, http.StatusNotFound, "ERR_NOT_FOUND", "Experiment not found")
		return
	}

	exposure, _ := a.engine.TrackExposure(r.Context(), id)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, ExposureResponse{
		ExperimentID: id,
		Variant:      exposure.Variant,
		Emitted:      exposure.Emitted,
	})
}

// handleTrackConversion processes POST /api/v1/experiments/{id}/conversions.
func (a *API) handleTrackConversion(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	if _, known := a.engine.Registry().Lookup(id); !known {
		writeError(w, r, http.StatusNotFound, "ERR_NOT_FOUND", "Experiment not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxBodyBytes)

	var req ConversionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "ERR_TOO_LARGE", "Request body too large")
			return
		}
		log.Warn("invalid json payload", slog.String("error", err.Error()))
		writeError(w, r, http.StatusBadRequest, "ERR_INVALID_JSON", "Invalid JSON payload: "+err.Error())
		return
	}

	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "ERR_INVALID_INPUT", err.Error())
		return
	}

	a.engine.TrackConversion(r.Context(), id, req.Event, req.Params)

	log.Debug("conversion tracked", slog.String("experiment_id", id), slog.String("event", req.Event))
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "accepted"})
}
