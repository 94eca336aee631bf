package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/history"
	"github.com/starford/dagaz/internal/trackservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *trackservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *trackservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListTrackers handles GET /api/trackers.
//
//	@Summary		List loaded tracker definitions
//	@Tags			trackers
//	@Produce		json
//	@Success		200	{object}	TrackerListResponse
//	@Security		BearerAuth
//	@Router			/trackers [get]
func (h *Handler) ListTrackers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TrackerListResponse{Trackers: h.svc.List()})
}

// RunTracker handles POST /api/trackers/{name}/run.
//
// Aggregation failures that stem from the vault contents (no matching notes,
// an impossible date range) come back as 422 with the engine's message, so a
// client can show it verbatim.
//
//	@Summary		Run one tracker against the vault now
//	@Tags			trackers
//	@Produce		json
//	@Param			name	path		string	true	"Tracker name"
//	@Success		200		{object}	RunResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trackers/{name}/run [post]
func (h *Handler) RunTracker(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := h.svc.Run(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "tracker not found")
		case errors.Is(err, engine.ErrNoData), errors.Is(err, engine.ErrInvalidRange):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.Error("run tracker failed", slog.String("tracker", name), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := RunResponse{
		RunID:       res.RunID,
		Tracker:     res.Tracker,
		WindowStart: engine.FormatDate(res.Window.Start, "YYYY-MM-DD"),
		WindowEnd:   engine.FormatDate(res.Window.End, "YYYY-MM-DD"),
		Datasets:    make([]DatasetDTO, 0, len(res.Datasets)),
	}
	for _, ds := range res.Datasets {
		resp.Datasets = append(resp.Datasets, datasetFromEngine(ds))
	}
	writeJSON(w, http.StatusOK, resp)
}

// LatestDatasets handles GET /api/trackers/{name}/latest.
//
//	@Summary		Get the newest stored run and its datasets
//	@Tags			trackers
//	@Produce		json
//	@Param			name	path		string	true	"Tracker name"
//	@Success		200		{object}	LatestResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trackers/{name}/latest [get]
func (h *Handler) LatestDatasets(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	run, series, err := h.svc.Latest(name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no runs for tracker")
		} else {
			slog.Error("latest datasets failed", slog.String("tracker", name), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := LatestResponse{Run: *run, Datasets: make([]DatasetDTO, 0, len(series))}
	for _, s := range series {
		resp.Datasets = append(resp.Datasets, datasetFromSeries(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListRuns handles GET /api/trackers/{name}/runs.
//
//	@Summary		List stored runs of a tracker, newest first
//	@Tags			trackers
//	@Produce		json
//	@Param			name	path		string	true	"Tracker name"
//	@Param			limit	query		int		false	"Max runs to return"
//	@Success		200		{object}	RunListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trackers/{name}/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.svc.Runs(name, limit)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tracker not found")
		} else {
			slog.Error("list runs failed", slog.String("tracker", name), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}
