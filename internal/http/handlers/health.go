package handlers

import (
	"net/http"

	"server/internal/sqlinline"
)

// Health handles GET /v1/healthz. Liveness only; no dependencies are touched.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /v1/readyz and verifies the database is reachable.
func (a *App) Ready(w http.ResponseWriter, r *http.Request) {
	var one int
	if err := a.SQL.QueryRow(r.Context(), sqlinline.QHealthcheck).Scan(&one); err != nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ready"})
}
