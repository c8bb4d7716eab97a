package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/samber/lo"
)

// HealthHandler reports liveness plus the state of each named dependency
// (database, cache). Any failing check turns the response into a 503.
type HealthHandler struct {
	Checks map[string]func(ctx context.Context) error
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	res := map[string]string{"status": "ok"}
	status := http.StatusOK
	for _, name := range lo.Keys(h.Checks) {
		if err := h.Checks[name](ctx); err != nil {
			res[name] = err.Error()
			res["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res[name] = "ok"
	}

	writeJSON(w, r, status, res)
}
