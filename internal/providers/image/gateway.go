package image

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"server/internal/domain"
	"server/internal/providers/genai"
)

// ViewClass groups views by the model capability they warrant. Hero views
// (front, back) carry the product's primary presentation and get the Pro tier.
type ViewClass string

const (
	ViewClassHero     ViewClass = "hero"
	ViewClassStandard ViewClass = "standard"
)

// ClassOf maps a view to its model class.
func ClassOf(v domain.ViewType) ViewClass {
	switch v {
	case domain.ViewFront, domain.ViewBack:
		return ViewClassHero
	default:
		return ViewClassStandard
	}
}

// TierPolicy names the primary model for a view class, the model substituted
// when the primary fails, and the retry budget applied per model for
// transient errors. Fallback is one-directional: Flash is the baseline and is
// never escalated to Pro.
type TierPolicy struct {
	Primary  string
	Fallback string
	Retries  int
}

// Policy is the full class-to-tier table.
type Policy map[ViewClass]TierPolicy

// DefaultPolicy builds the standard two-tier table: hero views go to the Pro
// model with Flash as fallback, everything else runs on Flash directly.
func DefaultPolicy(proModel, flashModel string, retries int) Policy {
	return Policy{
		ViewClassHero:     {Primary: proModel, Fallback: flashModel, Retries: retries},
		ViewClassStandard: {Primary: flashModel, Retries: retries},
	}
}

// Invoker is the single-call contract against the generation service.
type Invoker interface {
	EditImage(ctx context.Context, req genai.EditRequest) (string, error)
}

// EditRequest is one gateway invocation for one view.
type EditRequest struct {
	View              domain.ViewType
	Prompt            string
	ReferenceImageURL string
	LogoURL           string
	FallbackEnabled   bool
}

// EditResult reports the generated image and which model produced it.
type EditResult struct {
	URL       string
	ModelUsed string
}

// Gateway applies the tier policy around the generation service: per-tier
// retries for transient failures, fail-fast on deterministic rejections, and
// a single Pro-to-Flash fallback hop. It performs no credit or storage side
// effects.
type Gateway struct {
	invoker Invoker
	policy  Policy
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewGateway constructs a gateway. rps throttles outbound generation calls;
// pass 0 to disable throttling.
func NewGateway(invoker Invoker, policy Policy, rps float64, logger zerolog.Logger) *Gateway {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Gateway{invoker: invoker, policy: policy, limiter: limiter, logger: logger}
}

// EditView generates the requested view, walking the tier ladder for its view
// class. The returned error wraps domain.ErrGenerationRejected or
// domain.ErrGenerationUnavailable once every tier is exhausted.
func (g *Gateway) EditView(ctx context.Context, req EditRequest) (EditResult, error) {
	tier, ok := g.policy[ClassOf(req.View)]
	if !ok || tier.Primary == "" {
		return EditResult{}, fmt.Errorf("no model policy for view %q", req.View)
	}

	models := []string{tier.Primary}
	if req.FallbackEnabled && tier.Fallback != "" && tier.Fallback != tier.Primary {
		models = append(models, tier.Fallback)
	}

	var lastErr error
	for _, model := range models {
		for attempt := 0; attempt <= tier.Retries; attempt++ {
			if err := g.wait(ctx); err != nil {
				return EditResult{}, err
			}
			url, err := g.invoker.EditImage(ctx, genai.EditRequest{
				Model:             model,
				Prompt:            req.Prompt,
				ReferenceImageURL: req.ReferenceImageURL,
				LogoURL:           req.LogoURL,
			})
			if err == nil {
				return EditResult{URL: url, ModelUsed: model}, nil
			}
			lastErr = err
			if errors.Is(err, domain.ErrGenerationRejected) {
				// Deterministic rejection: no point retrying this model.
				g.logger.Warn().Err(err).Str("model", model).Str("view", string(req.View)).Msg("generation rejected")
				break
			}
			if ctx.Err() != nil {
				return EditResult{}, fmt.Errorf("generation canceled: %w", domain.ErrGenerationUnavailable)
			}
			g.logger.Warn().Err(err).Str("model", model).Str("view", string(req.View)).Int("attempt", attempt+1).Msg("generation attempt failed")
		}
	}
	return EditResult{}, lastErr
}

func (g *Gateway) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("generation throttled: %v: %w", err, domain.ErrGenerationUnavailable)
	}
	return nil
}
