package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/invest-sim/internal/model"
	"github.com/sells-group/invest-sim/internal/simulation"
	"github.com/sells-group/invest-sim/internal/store"
)

const (
	dayLayout    = "2006-01-02"
	maxBodyBytes = 1 << 16
)

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) createSimulation(w http.ResponseWriter, r *http.Request) {
	var req model.InvestmentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "client_id is required")
		return
	}

	result, err := h.svc.Run(r.Context(), req)
	switch {
	case errors.Is(err, simulation.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, simulation.ErrNoCandidateProducts):
		writeError(w, http.StatusUnprocessableEntity, "no products available for simulation")
	case err != nil:
		internalError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, result)
	}
}

func (h *handler) listSimulations(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	size, err := intParam(r, "page_size")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.history.ListSimulations(r.Context(), store.SimulationFilter{Page: page, PageSize: size})
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) productDailySummary(w http.ResponseWriter, r *http.Request) {
	rows, err := h.history.ProductDailySummary(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

func (h *handler) clientSimulations(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	records, err := h.history.ListSimulationsByClient(r.Context(), clientID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

func (h *handler) clientProfile(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	cp, err := h.svc.ClientProfile(r.Context(), clientID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if cp == nil {
		writeError(w, http.StatusNotFound, "no simulations recorded for client")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{ClientProfile: *cp, Description: cp.Profile.Description()})
}

type profileResponse struct {
	model.ClientProfile
	Description string `json:"description"`
}

func (h *handler) recommendedProducts(w http.ResponseWriter, r *http.Request) {
	profile, err := model.ParseRiskProfile(chi.URLParam(r, "profile"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown risk profile")
		return
	}
	products, err := h.svc.Recommended(r.Context(), profile)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(products))
}

func (h *handler) telemetry(w http.ResponseWriter, r *http.Request) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	from, err := dayParam(r, "from", today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := dayParam(r, "to", today)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	if h.recorder != nil {
		if err := h.recorder.Flush(r.Context()); err != nil {
			internalError(w, r, err)
			return
		}
	}

	stats, err := h.history.ListTelemetry(r.Context(), from, to)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, telemetryResponse{
		From:      from.Format(dayLayout),
		To:        to.Format(dayLayout),
		Endpoints: toEndpointViews(stats),
	})
}

type telemetryResponse struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Endpoints []endpointView `json:"endpoints"`
}

type endpointView struct {
	model.EndpointStat
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

func toEndpointViews(stats []model.EndpointStat) []endpointView {
	out := make([]endpointView, 0, len(stats))
	for _, s := range stats {
		out = append(out, endpointView{EndpointStat: s, AvgDurationMs: s.AvgDuration()})
	}
	return out
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.New(name + " must be an integer")
	}
	return n, nil
}

func dayParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		return time.Time{}, eris.New(name + " must be YYYY-MM-DD")
	}
	return t, nil
}

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
