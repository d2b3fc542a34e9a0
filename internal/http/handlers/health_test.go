package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"server/internal/sqlinline"
)

type healthTestSQL struct {
	pingErr error
}

func (s *healthTestSQL) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *healthTestSQL) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	return NewSimpleRow(func(dest ...any) error {
		if query != sqlinline.QHealthcheck {
			return errors.New("unexpected query")
		}
		if s.pingErr != nil {
			return s.pingErr
		}
		*(dest[0].(*int)) = 1
		return nil
	})
}

func (s *healthTestSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("query not expected")
}

func TestHealth(t *testing.T) {
	app := NewApp(&healthTestSQL{}, &stubRegenService{}, zerolog.Nop())

	rr := httptest.NewRecorder()
	app.Health(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestReady(t *testing.T) {
	app := NewApp(&healthTestSQL{}, &stubRegenService{}, zerolog.Nop())

	rr := httptest.NewRecorder()
	app.Ready(rr, httptest.NewRequest(http.MethodGet, "/v1/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestReadyDatabaseDown(t *testing.T) {
	app := NewApp(&healthTestSQL{pingErr: errors.New("dial refused")}, &stubRegenService{}, zerolog.Nop())

	rr := httptest.NewRecorder()
	app.Ready(rr, httptest.NewRequest(http.MethodGet, "/v1/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
