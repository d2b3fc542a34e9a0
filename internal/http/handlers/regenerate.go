package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/regen"
	"server/internal/sqlinline"
)

type chatLogoPayload struct {
	URL      string `json:"url"`
	ToolType string `json:"tool_type"`
}

type regenerateRequest struct {
	ViewType       string            `json:"view_type"`
	RevisionID     string            `json:"revision_id"`
	EditPrompt     string            `json:"edit_prompt"`
	ReferenceViews map[string]string `json:"reference_views"`
	ChatLogo       *chatLogoPayload  `json:"chat_logo,omitempty"`
}

type regenerateResponse struct {
	Success           bool   `json:"success"`
	NewViewURL        string `json:"new_view_url,omitempty"`
	NewRevisionID     string `json:"new_revision_id,omitempty"`
	NewRevisionNumber int    `json:"new_revision_number,omitempty"`
	CreditsUsed       int    `json:"credits_used,omitempty"`
	Error             string `json:"error,omitempty"`
}

// RegenerateView handles POST /v1/products/{product_id}/views/regenerate.
func (a *App) RegenerateView(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "product_id required")
		return
	}

	var req regenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	view, ok := domain.ParseViewType(req.ViewType)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported view_type")
		return
	}

	references := make(map[domain.ViewType]string, len(req.ReferenceViews))
	for raw, url := range req.ReferenceViews {
		if vt, ok := domain.ParseViewType(raw); ok {
			references[vt] = url
		}
	}
	svcReq := regen.Request{
		ProductID:      productID,
		UserID:         userID,
		RevisionID:     req.RevisionID,
		View:           view,
		EditPrompt:     req.EditPrompt,
		ReferenceViews: references,
	}
	if req.ChatLogo != nil {
		svcReq.ChatLogo = &domain.ChatAttachment{URL: req.ChatLogo.URL, ToolType: req.ChatLogo.ToolType}
	}

	start := time.Now()
	result, err := a.Regen.RegenerateView(r.Context(), svcReq)
	latency := time.Since(start)

	if err != nil {
		status, code := regenerateFailure(err)
		a.recordUsage(r, userID, productID, string(view), false, latency, "", code)
		a.error(w, status, code, err.Error())
		return
	}

	a.recordUsage(r, userID, productID, string(view), true, latency, result.ModelUsed, "")
	a.json(w, http.StatusOK, regenerateResponse{
		Success:           true,
		NewViewURL:        result.NewViewURL,
		NewRevisionID:     result.NewBatchID,
		NewRevisionNumber: result.NewRevisionNumber,
		CreditsUsed:       result.CreditsUsed,
	})
}

func (a *App) recordUsage(r *http.Request, userID, productID, view string, success bool, latency time.Duration, model, errorCode string) {
	_, err := a.SQL.Exec(r.Context(), sqlinline.QInsertUsageEvent,
		userID, productID, view, success, int(latency.Milliseconds()), model, errorCode)
	if err != nil {
		a.Logger.Warn().Err(err).Str("product_id", productID).Msg("usage event insert failed")
	}
}

func regenerateFailure(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrInvalidPrompt):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrInsufficientCredit):
		return http.StatusPaymentRequired, "insufficient_credit"
	case errors.Is(err, domain.ErrNoActiveRevision):
		return http.StatusNotFound, "no_active_revision"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrGenerationRejected):
		return http.StatusUnprocessableEntity, "generation_rejected"
	case errors.Is(err, domain.ErrGenerationUnavailable):
		return http.StatusBadGateway, "generation_unavailable"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusBadGateway, "upload_failed"
	case errors.Is(err, domain.ErrCorruptRevisionState), errors.Is(err, domain.ErrPartialInsert):
		return http.StatusInternalServerError, "revision_integrity"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
