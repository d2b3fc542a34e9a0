package handlers

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"server/internal/sqlinline"
)

// CreditBalance handles GET /v1/credits.
func (a *App) CreditBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}

	var balance int
	err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectCreditBalance, userID).Scan(&balance)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load balance")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"balance": balance})
}
