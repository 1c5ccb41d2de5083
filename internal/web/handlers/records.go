package handlers

import (
	"net/http"

	"github.com/nfhs-dash/internal/reconcile"
	"github.com/nfhs-dash/internal/validation"
)

// RecordsHandler serves the reconciliation and cleaning reports
type RecordsHandler struct {
	Store Store
}

// ReconciliationResponse is the match table and anomaly report
type ReconciliationResponse struct {
	Snapshot   string                     `json:"snapshot"`
	Stats      reconcile.Stats            `json:"stats"`
	Regions    []reconcile.RegionMatch    `json:"regions"`
	SubRegions []reconcile.SubRegionMatch `json:"sub_regions"`
	Anomalies  []reconcile.Anomaly        `json:"anomalies"`
}

// RejectionsResponse lists rejected indicator cells
type RejectionsResponse struct {
	Snapshot string                        `json:"snapshot"`
	Total    int                           `json:"total"`
	Summary  map[string]validation.Summary `json:"summary"`
	Rejected []validation.Rejection        `json:"rejected"`
}

// GetReconciliation returns the reconciliation result; ?kind= filters the
// anomalies and ?unresolved=true keeps only pairs without a join key
func (h *RecordsHandler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, h.Store)
	if !ok {
		return
	}
	rec := snap.Reconciliation
	q := r.URL.Query()

	resp := ReconciliationResponse{
		Snapshot:   snap.ID,
		Stats:      rec.Stats(),
		Regions:    rec.Regions,
		SubRegions: rec.SubRegions,
		Anomalies:  rec.Report.Anomalies,
	}
	if kind := q.Get("kind"); kind != "" {
		resp.Anomalies = rec.Report.Of(reconcile.AnomalyKind(kind))
	}
	if q.Get("unresolved") == "true" {
		resp.SubRegions = nil
		for _, m := range rec.SubRegions {
			if _, keyed := m.GeoKey(); !keyed {
				resp.SubRegions = append(resp.SubRegions, m)
			}
		}
	}
	if resp.Anomalies == nil {
		resp.Anomalies = []reconcile.Anomaly{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRejections returns rejected cells; ?source= and ?reason= filter them
func (h *RecordsHandler) GetRejections(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, h.Store)
	if !ok {
		return
	}
	q := r.URL.Query()
	source, reason := q.Get("source"), validation.Reason(q.Get("reason"))

	resp := RejectionsResponse{
		Snapshot: snap.ID,
		Summary:  map[string]validation.Summary{"districts": snap.District.Summary},
		Rejected: []validation.Rejection{},
	}
	if snap.Trend != nil {
		resp.Summary["trend"] = snap.Trend.Summary
	}
	if snap.Equity != nil {
		resp.Summary["equity"] = snap.Equity.Summary
	}

	for _, rej := range snap.Rejections() {
		if source != "" && rej.Source != source {
			continue
		}
		if reason != "" && rej.Reason != reason {
			continue
		}
		resp.Rejected = append(resp.Rejected, rej)
	}
	resp.Total = len(resp.Rejected)
	writeJSON(w, http.StatusOK, resp)
}
