package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/sqlinline"
)

const defaultHistoryLimit = 100

type viewItem struct {
	ViewType     string    `json:"view_type"`
	ImageURL     string    `json:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	EditPrompt   string    `json:"edit_prompt,omitempty"`
	ModelUsed    string    `json:"model_used,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type batchItem struct {
	BatchID        string     `json:"batch_id"`
	RevisionNumber int        `json:"revision_number"`
	IsActive       bool       `json:"is_active"`
	Views          []viewItem `json:"views"`
}

// RevisionHistory handles GET /v1/products/{product_id}/revisions.
func (a *App) RevisionHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireUser(w, r); !ok {
		return
	}
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "product_id required")
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectRevisionHistory, productID, limit)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load revisions")
		return
	}
	defer rows.Close()

	var batches []batchItem
	index := map[string]int{}
	for rows.Next() {
		var batchID string
		var revision int
		var active bool
		var view viewItem
		if err := rows.Scan(&batchID, &revision, &active, &view.ViewType, &view.ImageURL, &view.ThumbnailURL, &view.EditPrompt, &view.ModelUsed, &view.CreatedAt); err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to read revisions")
			return
		}
		pos, ok := index[batchID]
		if !ok {
			pos = len(batches)
			index[batchID] = pos
			batches = append(batches, batchItem{BatchID: batchID, RevisionNumber: revision, IsActive: active})
		}
		batches[pos].Views = append(batches[pos].Views, view)
	}
	if err := rows.Err(); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to read revisions")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"items": batches})
}

// ActiveRevision handles GET /v1/products/{product_id}/revisions/active.
func (a *App) ActiveRevision(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireUser(w, r); !ok {
		return
	}
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "product_id required")
		return
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QSelectActiveBatchViews, productID)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load active revision")
		return
	}
	defer rows.Close()

	var batch *batchItem
	for rows.Next() {
		var batchID string
		var revision int
		var view viewItem
		if err := rows.Scan(&batchID, &revision, &view.ViewType, &view.ImageURL, &view.ThumbnailURL, &view.EditPrompt, &view.ModelUsed, &view.CreatedAt); err != nil {
			a.error(w, http.StatusInternalServerError, "internal", "failed to read active revision")
			return
		}
		if batch == nil {
			batch = &batchItem{BatchID: batchID, RevisionNumber: revision, IsActive: true}
		}
		batch.Views = append(batch.Views, view)
	}
	if err := rows.Err(); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to read active revision")
		return
	}
	if batch == nil {
		a.error(w, http.StatusNotFound, "no_active_revision", "product has no active revision")
		return
	}

	a.json(w, http.StatusOK, batch)
}
