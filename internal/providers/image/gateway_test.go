package image

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/providers/genai"
)

type scriptedInvoker struct {
	calls   []genai.EditRequest
	respond func(call int, req genai.EditRequest) (string, error)
}

func (s *scriptedInvoker) EditImage(ctx context.Context, req genai.EditRequest) (string, error) {
	call := len(s.calls)
	s.calls = append(s.calls, req)
	return s.respond(call, req)
}

func testPolicy(retries int) Policy {
	return DefaultPolicy("pro-model", "flash-model", retries)
}

func newTestGateway(inv Invoker, retries int) *Gateway {
	return NewGateway(inv, testPolicy(retries), 0, zerolog.Nop())
}

func TestEditViewHeroUsesProFirst(t *testing.T) {
	inv := &scriptedInvoker{respond: func(call int, req genai.EditRequest) (string, error) {
		return "https://files.example.com/out.png", nil
	}}
	g := newTestGateway(inv, 2)

	res, err := g.EditView(context.Background(), EditRequest{
		View: domain.ViewFront, Prompt: "p", ReferenceImageURL: "ref", FallbackEnabled: true,
	})
	if err != nil {
		t.Fatalf("EditView error: %v", err)
	}
	if res.ModelUsed != "pro-model" {
		t.Fatalf("hero view must use the pro model, got %q", res.ModelUsed)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("expected a single call, got %d", len(inv.calls))
	}
}

func TestEditViewStandardUsesFlashOnly(t *testing.T) {
	inv := &scriptedInvoker{respond: func(call int, req genai.EditRequest) (string, error) {
		return "", fmt.Errorf("down: %w", domain.ErrGenerationUnavailable)
	}}
	g := newTestGateway(inv, 1)

	_, err := g.EditView(context.Background(), EditRequest{
		View: domain.ViewSide, Prompt: "p", ReferenceImageURL: "ref", FallbackEnabled: true,
	})
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
	// Standard views have no fallback tier: 1 + 1 retry on flash.
	if len(inv.calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(inv.calls))
	}
	for _, call := range inv.calls {
		if call.Model != "flash-model" {
			t.Fatalf("standard view must never escalate to pro, got %q", call.Model)
		}
	}
}

func TestEditViewRetriesThenFallsBack(t *testing.T) {
	inv := &scriptedInvoker{respond: func(call int, req genai.EditRequest) (string, error) {
		if req.Model == "pro-model" {
			return "", fmt.Errorf("overloaded: %w", domain.ErrGenerationUnavailable)
		}
		return "https://files.example.com/out.png", nil
	}}
	g := newTestGateway(inv, 2)

	res, err := g.EditView(context.Background(), EditRequest{
		View: domain.ViewBack, Prompt: "p", ReferenceImageURL: "ref", FallbackEnabled: true,
	})
	if err != nil {
		t.Fatalf("EditView error: %v", err)
	}
	if res.ModelUsed != "flash-model" {
		t.Fatalf("expected fallback to flash, got %q", res.ModelUsed)
	}
	// 3 pro attempts exhaust the budget, then flash succeeds first try.
	if len(inv.calls) != 4 {
		t.Fatalf("expected 4 calls, got %d", len(inv.calls))
	}
}

func TestEditViewRejectionSkipsRetries(t *testing.T) {
	inv := &scriptedInvoker{respond: func(call int, req genai.EditRequest) (string, error) {
		if req.Model == "pro-model" {
			return "", fmt.Errorf("blocked: %w", domain.ErrGenerationRejected)
		}
		return "https://files.example.com/out.png", nil
	}}
	g := newTestGateway(inv, 3)

	res, err := g.EditView(context.Background(), EditRequest{
		View: domain.ViewFront, Prompt: "p", ReferenceImageURL: "ref", FallbackEnabled: true,
	})
	if err != nil {
		t.Fatalf("EditView error: %v", err)
	}
	if res.ModelUsed != "flash-model" {
		t.Fatalf("expected the fallback model, got %q", res.ModelUsed)
	}
	// Rejection fails the pro tier immediately: one pro call, one flash call.
	if len(inv.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(inv.calls))
	}
}

func TestEditViewFallbackDisabled(t *testing.T) {
	inv := &scriptedInvoker{respond: func(call int, req genai.EditRequest) (string, error) {
		return "", fmt.Errorf("blocked: %w", domain.ErrGenerationRejected)
	}}
	g := newTestGateway(inv, 2)

	_, err := g.EditView(context.Background(), EditRequest{
		View: domain.ViewFront, Prompt: "p", ReferenceImageURL: "ref", FallbackEnabled: false,
	})
	if !errors.Is(err, domain.ErrGenerationRejected) {
		t.Fatalf("expected ErrGenerationRejected, got %v", err)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("expected a single pro call with fallback disabled, got %d", len(inv.calls))
	}
	if inv.calls[0].Model != "pro-model" {
		t.Fatalf("unexpected model %q", inv.calls[0].Model)
	}
}

func TestEditViewBothTiersRejected(t *testing.T) {
	inv := &scriptedInvoker{respond: func(call int, req genai.EditRequest) (string, error) {
		return "", fmt.Errorf("blocked on %s: %w", req.Model, domain.ErrGenerationRejected)
	}}
	g := newTestGateway(inv, 2)

	_, err := g.EditView(context.Background(), EditRequest{
		View: domain.ViewBack, Prompt: "p", ReferenceImageURL: "ref", FallbackEnabled: true,
	})
	if !errors.Is(err, domain.ErrGenerationRejected) {
		t.Fatalf("expected ErrGenerationRejected, got %v", err)
	}
	if len(inv.calls) != 2 {
		t.Fatalf("expected one call per tier, got %d", len(inv.calls))
	}
}

func TestEditViewForwardsLogo(t *testing.T) {
	inv := &scriptedInvoker{respond: func(call int, req genai.EditRequest) (string, error) {
		return "https://files.example.com/out.png", nil
	}}
	g := newTestGateway(inv, 0)

	if _, err := g.EditView(context.Background(), EditRequest{
		View: domain.ViewTop, Prompt: "p", ReferenceImageURL: "ref", LogoURL: "https://cdn.example.com/logo.png",
	}); err != nil {
		t.Fatalf("EditView error: %v", err)
	}
	if inv.calls[0].LogoURL != "https://cdn.example.com/logo.png" {
		t.Fatalf("logo URL not forwarded: %+v", inv.calls[0])
	}
}

func TestClassOf(t *testing.T) {
	if ClassOf(domain.ViewFront) != ViewClassHero || ClassOf(domain.ViewBack) != ViewClassHero {
		t.Fatal("front and back are hero views")
	}
	for _, v := range []domain.ViewType{domain.ViewSide, domain.ViewTop, domain.ViewBottom} {
		if ClassOf(v) != ViewClassStandard {
			t.Fatalf("%s should be standard", v)
		}
	}
}
