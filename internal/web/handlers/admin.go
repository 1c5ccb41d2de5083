package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nfhs-dash/internal/etl"
	"github.com/nfhs-dash/internal/overrides"
)

// AdminHandler rebuilds snapshots on request
type AdminHandler struct {
	Store  Store
	Config *Config
	Logger *zap.Logger
}

// TriggerRefresh reloads every source and swaps in the new snapshot. A
// failed build leaves the previous snapshot in place.
func (h *AdminHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Features.RefreshEnabled {
		writeError(w, http.StatusForbidden, "refresh is disabled")
		return
	}

	snap, err := h.Store.Refresh(r.Context())
	if err != nil {
		h.Logger.Warn("refresh failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap.Summary())
}

// ApplyOverrides merges a JSON override table into the current one and
// rebuilds
func (h *AdminHandler) ApplyOverrides(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Features.ManualOverrideEnabled {
		writeError(w, http.StatusForbidden, "manual overrides are disabled")
		return
	}

	var manual overrides.Table
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&manual); err != nil {
		writeError(w, http.StatusBadRequest, "invalid override table: "+err.Error())
		return
	}
	if err := manual.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	manual.Source = "api"

	snap, err := h.Store.Correct(r.Context(), &manual)
	switch {
	case errors.Is(err, etl.ErrNoSnapshot):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.Logger.Warn("override rebuild failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Logger.Info("manual overrides applied",
		zap.Int("entries", manual.Len()),
		zap.String("snapshot", snap.ID),
	)
	writeJSON(w, http.StatusOK, snap.Summary())
}
