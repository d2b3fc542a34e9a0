package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"server/internal/sqlinline"
)

type creditsTestSQL struct {
	balance int
	noRows  bool
	scanErr error
}

func (s *creditsTestSQL) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *creditsTestSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	return NewSimpleRow(func(dest ...any) error {
		if query != sqlinline.QSelectCreditBalance {
			return errors.New("unexpected query")
		}
		if s.scanErr != nil {
			return s.scanErr
		}
		if s.noRows {
			return pgx.ErrNoRows
		}
		*(dest[0].(*int)) = s.balance
		return nil
	})
}

func (s *creditsTestSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("query not expected")
}

func creditsGet(app *App, withUser bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/credits", nil)
	if withUser {
		req.Header.Set("X-User-ID", "user-1")
	}
	return serveWithIdentity(app, req)
}

func TestCreditBalance(t *testing.T) {
	app := NewApp(&creditsTestSQL{balance: 12}, &stubRegenService{}, zerolog.Nop())

	rr := creditsGet(app, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var payload map[string]int
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["balance"] != 12 {
		t.Fatalf("expected balance 12, got %d", payload["balance"])
	}
}

func TestCreditBalanceNoAccountReadsZero(t *testing.T) {
	app := NewApp(&creditsTestSQL{noRows: true}, &stubRegenService{}, zerolog.Nop())

	rr := creditsGet(app, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var payload map[string]int
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["balance"] != 0 {
		t.Fatalf("expected zero balance, got %d", payload["balance"])
	}
}

func TestCreditBalanceScanFailure(t *testing.T) {
	app := NewApp(&creditsTestSQL{scanErr: errors.New("connection reset")}, &stubRegenService{}, zerolog.Nop())

	if rr := creditsGet(app, true); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestCreditBalanceRejectsAnonymous(t *testing.T) {
	app := NewApp(&creditsTestSQL{}, &stubRegenService{}, zerolog.Nop())

	if rr := creditsGet(app, false); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
