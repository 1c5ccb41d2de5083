package handlers

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"

	"github.com/nfhs-dash/internal/etl"
)

// MapsHandler serves the comparison views. Responses are cached per
// snapshot, so a refresh never serves stale views.
type MapsHandler struct {
	Store Store
	Cache *cache.Cache
}

// GetMap returns the choropleth comparison; ?indicator= is required and
// ?scope= defaults to the all scope
func (h *MapsHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, h.Store)
	if !ok {
		return
	}
	q := r.URL.Query()
	indicator := q.Get("indicator")
	if indicator == "" {
		writeError(w, http.StatusBadRequest, "indicator is required")
		return
	}
	scope := q.Get("scope")
	if scope == "" {
		scope = snap.Views().Config().AllScope
	}

	h.cached(w, snap, "map", q, func() (interface{}, error) {
		return snap.Views().Map(scope, indicator), nil
	})
}

// GetScatter returns the two-indicator comparison for ?region= values
func (h *MapsHandler) GetScatter(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, h.Store)
	if !ok {
		return
	}
	q := r.URL.Query()
	x, y := q.Get("x"), q.Get("y")
	if x == "" || y == "" {
		writeError(w, http.StatusBadRequest, "x and y are required")
		return
	}

	h.cached(w, snap, "scatter", q, func() (interface{}, error) {
		return snap.Views().Scatter(q["region"], x, y), nil
	})
}

// GetTrend returns the trend series for ?state= and ?indicator= values
func (h *MapsHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, h.Store)
	if !ok {
		return
	}
	q := r.URL.Query()

	h.cached(w, snap, "trend", q, func() (interface{}, error) {
		return snap.Views().Trend(q["state"], q["indicator"]), nil
	})
}

// GetEquity returns the disaggregated bars for ?state= and ?group=
func (h *MapsHandler) GetEquity(w http.ResponseWriter, r *http.Request) {
	snap, ok := current(w, h.Store)
	if !ok {
		return
	}
	q := r.URL.Query()
	state, group := q.Get("state"), q.Get("group")
	if state == "" || group == "" {
		writeError(w, http.StatusBadRequest, "state and group are required")
		return
	}

	h.cached(w, snap, "equity", q, func() (interface{}, error) {
		return snap.Views().Equity(state, group)
	})
}

// cached serves a view from the cache or builds and stores it. Build
// errors are client errors and are not cached.
func (h *MapsHandler) cached(w http.ResponseWriter, snap *etl.Snapshot, view string, q url.Values, build func() (interface{}, error)) {
	key := cacheKey(snap.ID, view, q)
	if h.Cache != nil {
		if v, found := h.Cache.Get(key); found {
			w.Header().Set("X-Cache", "HIT")
			writeJSON(w, http.StatusOK, v)
			return
		}
	}

	v, err := build()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.Cache != nil {
		h.Cache.SetDefault(key, v)
		w.Header().Set("X-Cache", "MISS")
	}
	writeJSON(w, http.StatusOK, v)
}

// cacheKey is independent of query parameter order
func cacheKey(snapshot, view string, q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(snapshot)
	b.WriteString("|")
	b.WriteString(view)
	for _, k := range keys {
		for _, v := range q[k] {
			b.WriteString("|")
			b.WriteString(url.QueryEscape(k))
			b.WriteString("=")
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
