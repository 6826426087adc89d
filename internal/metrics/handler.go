package metrics

import (
	"encoding/json"
	"net/http"
)

// Handler serves the current snapshot as JSON. entries, if set, reports the
// number of cached domains.
func (c *Collector) Handler(entries func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := c.metrics.Snapshot()
		if entries != nil {
			snap.CacheEntries = entries()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}
