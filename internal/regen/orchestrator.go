package regen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/imagegen"
	"server/internal/providers/image"
	"server/internal/storage"
)

// Generator is the gateway contract the orchestrator sequences.
type Generator interface {
	EditView(ctx context.Context, req image.EditRequest) (image.EditResult, error)
}

// Request carries one single-view regeneration attempt.
type Request struct {
	ProductID      string
	UserID         string
	RevisionID     string
	View           domain.ViewType
	EditPrompt     string
	ReferenceViews map[domain.ViewType]string
	ChatLogo       *domain.ChatAttachment
}

// Result is returned on a committed regeneration.
type Result struct {
	NewViewURL        string
	NewBatchID        string
	NewRevisionNumber int
	CreditsUsed       int
	ModelUsed         string
}

// Deps wires the orchestrator's collaborators.
type Deps struct {
	Ledger          domain.CreditLedger
	Revisions       domain.RevisionRepository
	Logos           domain.LogoRepository
	Gateway         Generator
	Uploader        storage.Uploader
	FallbackEnabled bool
	UploadPreset    string
	Logger          zerolog.Logger
}

// Orchestrator runs the regeneration pipeline: reserve credit, resolve
// context, compose the prompt, generate, upload, commit the revision. Every
// failure after a successful reserve triggers exactly one refund.
type Orchestrator struct {
	ledger          domain.CreditLedger
	revisions       domain.RevisionRepository
	logos           domain.LogoRepository
	gateway         Generator
	uploader        storage.Uploader
	fallbackEnabled bool
	uploadPreset    string
	logger          zerolog.Logger
}

// New constructs an orchestrator from its dependencies.
func New(d Deps) *Orchestrator {
	return &Orchestrator{
		ledger:          d.Ledger,
		revisions:       d.Revisions,
		logos:           d.Logos,
		gateway:         d.Gateway,
		uploader:        d.Uploader,
		fallbackEnabled: d.FallbackEnabled,
		uploadPreset:    d.UploadPreset,
		logger:          d.Logger,
	}
}

// RegenerateView executes one attempt end to end. The attempt is strictly
// sequential; retries happen only inside the gateway's tier policy, never
// here. The caller retries as a brand-new attempt with a new reservation.
func (o *Orchestrator) RegenerateView(ctx context.Context, req Request) (result *Result, err error) {
	view, ok := domain.ParseViewType(string(req.View))
	if !ok {
		return nil, fmt.Errorf("unsupported view %q: %w", req.View, domain.ErrInvalidPrompt)
	}
	req.View = view
	if strings.TrimSpace(req.EditPrompt) == "" {
		return nil, fmt.Errorf("edit prompt is required: %w", domain.ErrInvalidPrompt)
	}
	if req.ProductID == "" || req.UserID == "" {
		return nil, fmt.Errorf("product and user are required: %w", domain.ErrInvalidPrompt)
	}

	reservationID, err := o.ledger.Reserve(ctx, req.UserID, domain.RegenerationCost)
	if err != nil {
		return nil, err
	}

	// Compensation guard: every exit after this point that does not commit a
	// revision batch refunds the reservation exactly once. The refund runs on
	// a detached context so request cancellation cannot strand the hold.
	committed := false
	defer func() {
		if committed {
			return
		}
		refundCtx := context.WithoutCancel(ctx)
		if refundErr := o.ledger.Refund(refundCtx, req.UserID, reservationID, domain.RegenerationCost); refundErr != nil {
			o.logger.Error().Err(refundErr).
				Str("reservation_id", reservationID).
				Str("product_id", req.ProductID).
				Msg("credit refund failed, reservation left unresolved")
		}
	}()

	active, err := o.revisions.ActiveBatch(ctx, req.ProductID)
	if err != nil {
		o.flagIntegrity(err, req.ProductID)
		return nil, err
	}

	reference := strings.TrimSpace(req.ReferenceViews[req.View])
	if reference == "" {
		record := active.View(req.View)
		if record == nil {
			return nil, fmt.Errorf("view %q absent from active batch: %w", req.View, domain.ErrNotFound)
		}
		reference = record.ImageURL
	}

	productLogo, brandLogo, err := o.logos.ProductLogos(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("resolve product logos: %w", err)
	}
	logo := imagegen.EffectiveLogo(domain.LogoCandidates{
		ChatUploaded: req.ChatLogo,
		ProductLogo:  productLogo,
		BrandLogo:    brandLogo,
	}, req.EditPrompt)

	prompt, err := imagegen.BuildEditInstruction(req.View, req.EditPrompt, logo)
	if err != nil {
		return nil, err
	}

	genReq := image.EditRequest{
		View:              req.View,
		Prompt:            prompt,
		ReferenceImageURL: reference,
		FallbackEnabled:   o.fallbackEnabled,
	}
	if logo != nil {
		genReq.LogoURL = logo.URL
	}
	generated, err := o.gateway.EditView(ctx, genReq)
	if err != nil {
		return nil, err
	}

	uploaded, err := o.uploader.Upload(ctx, generated.URL, storage.UploadOptions{
		ProjectID:        req.ProductID,
		Preset:           o.uploadPreset,
		PreserveOriginal: true,
	})
	if err != nil {
		return nil, err
	}

	batch, err := o.revisions.CommitRevision(ctx, domain.RevisionCommit{
		ProductID:    req.ProductID,
		UserID:       req.UserID,
		TargetView:   req.View,
		NewImageURL:  uploaded,
		ThumbnailURL: uploaded,
		EditPrompt:   req.EditPrompt,
		EditType:     "single_view_regeneration",
		ModelUsed:    generated.ModelUsed,
	})
	if err != nil {
		o.flagIntegrity(err, req.ProductID)
		return nil, err
	}
	committed = true

	if err := o.ledger.Commit(ctx, reservationID); err != nil {
		// The balance was debited at reserve time; a failed status update is
		// bookkeeping, not a failed attempt.
		o.logger.Warn().Err(err).Str("reservation_id", reservationID).Msg("reservation commit failed")
	}

	return &Result{
		NewViewURL:        uploaded,
		NewBatchID:        batch.BatchID,
		NewRevisionNumber: batch.RevisionNumber,
		CreditsUsed:       domain.RegenerationCost,
		ModelUsed:         generated.ModelUsed,
	}, nil
}

// flagIntegrity escalates data-integrity failures: they imply a prior bug,
// not a bad request, and need an operator looking at them.
func (o *Orchestrator) flagIntegrity(err error, productID string) {
	switch {
	case errors.Is(err, domain.ErrCorruptRevisionState):
		o.logger.Error().Err(err).Str("product_id", productID).Msg("revision state corrupt")
	case errors.Is(err, domain.ErrPartialInsert):
		o.logger.Error().Err(err).Str("product_id", productID).Msg("partial revision insert")
	}
}
