package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/regen"
)

// RegenerationService is the single-view regeneration pipeline contract.
type RegenerationService interface {
	RegenerateView(ctx context.Context, req regen.Request) (*regen.Result, error)
}

// App bundles handler dependencies.
type App struct {
	SQL    infra.SQLExecutor
	Regen  RegenerationService
	Logger zerolog.Logger
}

// NewApp constructs the handler container.
func NewApp(sql infra.SQLExecutor, svc RegenerationService, logger zerolog.Logger) *App {
	return &App{SQL: sql, Regen: svc, Logger: logger}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// requireUser resolves the caller identity or writes the 401 envelope.
func (a *App) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", domain.ErrUnauthorized.Error())
		return "", false
	}
	return userID, true
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{"success": false, "code": code, "error": message})
}
