package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nfhs-dash/internal/etl"
	"github.com/nfhs-dash/internal/overrides"
	"github.com/nfhs-dash/internal/views"
)

// Config represents the web server configuration (simplified)
type Config struct {
	Features struct {
		RefreshEnabled        bool
		ManualOverrideEnabled bool
	}
}

// Store is the snapshot holder the handlers read from
type Store interface {
	Current() *etl.Snapshot
	Refresh(ctx context.Context) (*etl.Snapshot, error)
	Correct(ctx context.Context, manual *overrides.Table) (*etl.Snapshot, error)
}

// APIHandler handles general API endpoints
type APIHandler struct {
	Store  Store
	Config *Config
}

// HealthResponse reports liveness and the snapshot being served
type HealthResponse struct {
	Status   string     `json:"status"`
	Snapshot string     `json:"snapshot,omitempty"`
	BuiltAt  *time.Time `json:"built_at,omitempty"`
}

// ScopesResponse lists the choices of the map and scatter views
type ScopesResponse struct {
	Scopes  []string `json:"scopes"`
	Regions []string `json:"regions"`
}

// IndicatorsResponse lists the indicator choices of every view
type IndicatorsResponse struct {
	District      []string `json:"district"`
	InverseScale  []string `json:"inverse_scale"`
	Types         []string `json:"types"`
	Trend         []string `json:"trend,omitempty"`
	TrendStates   []string `json:"trend_states"`
	EquityStates  []string `json:"equity_states"`
	EquityGroups  []string `json:"equity_groups"`
	SelectedTypes []string `json:"selected_types,omitempty"`
}

// Health returns 200 while the process runs; the snapshot is reported
// when one is loaded
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if snap := h.Store.Current(); snap != nil {
		resp.Snapshot = snap.ID
		builtAt := snap.BuiltAt
		resp.BuiltAt = &builtAt
	} else {
		resp.Status = "starting"
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSnapshot returns the summary of the current snapshot
func (h *APIHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, h.Store)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Summary())
}

// GetScopes returns the map scopes and scatter regions
func (h *APIHandler) GetScopes(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, h.Store)
	if !ok {
		return
	}
	b := snap.Views()
	writeJSON(w, http.StatusOK, ScopesResponse{Scopes: b.Scopes(), Regions: b.Regions()})
}

// GetIndicators returns the indicator lists; ?type= narrows the trend
// indicators to the given indicator types
func (h *APIHandler) GetIndicators(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, h.Store)
	if !ok {
		return
	}
	b := snap.Views()

	resp := IndicatorsResponse{
		District:     b.Indicators(),
		InverseScale: b.Config().InverseScale,
		Types:        b.IndicatorTypes(),
		TrendStates:  b.TrendStates(),
		EquityStates: b.EquityStates(),
		EquityGroups: views.EquityGroupNames(),
	}
	if types := r.URL.Query()["type"]; len(types) > 0 {
		resp.SelectedTypes = types
		resp.Trend = b.IndicatorsByType(types)
	}
	writeJSON(w, http.StatusOK, resp)
}

// current writes 503 and returns false before the first snapshot
func current(w http.ResponseWriter, store Store) (*etl.Snapshot, bool) {
	snap := store.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no snapshot has been built yet")
		return nil, false
	}
	return snap, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
