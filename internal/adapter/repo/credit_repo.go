package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// CreditLedgerPG implements domain.CreditLedger backed by PostgreSQL. The
// balance row is the single shared mutable resource of the pipeline; the
// conditional debit makes reserve atomic without any application-side lock.
type CreditLedgerPG struct {
	pool *pgxpool.Pool
}

// NewCreditLedger creates a new CreditLedgerPG.
func NewCreditLedger(pool *pgxpool.Pool) *CreditLedgerPG {
	return &CreditLedgerPG{pool: pool}
}

// Reserve debits the user's balance and records a held reservation. Fails
// with domain.ErrInsufficientCredit when the balance cannot cover the amount.
func (l *CreditLedgerPG) Reserve(ctx context.Context, userID string, amount int) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("reserve amount must be positive, got %d", amount)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
UPDATE user_credits
SET balance = balance - $2, updated_at = NOW()
WHERE user_id = $1 AND balance >= $2;
`, userID, amount)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		return "", domain.ErrInsufficientCredit
	}

	reservationID := uuid.NewString()
	if _, err := tx.Exec(ctx, `
INSERT INTO credit_reservations (id, user_id, amount, status, created_at)
VALUES ($1, $2, $3, 'held', NOW());
`, reservationID, userID, amount); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return reservationID, nil
}

// Refund returns a held reservation's amount to the balance. A reservation
// can only be refunded once; a second call fails with
// domain.ErrReservationResolved instead of double-crediting.
func (l *CreditLedgerPG) Refund(ctx context.Context, userID, reservationID string, amount int) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
UPDATE credit_reservations
SET status = 'refunded', resolved_at = NOW()
WHERE id = $1 AND user_id = $2 AND status = 'held';
`, reservationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s: %w", reservationID, domain.ErrReservationResolved)
	}

	if _, err := tx.Exec(ctx, `
UPDATE user_credits
SET balance = balance + $2, updated_at = NOW()
WHERE user_id = $1;
`, userID, amount); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Commit marks a held reservation as consumed. The balance was already
// debited at reserve time.
func (l *CreditLedgerPG) Commit(ctx context.Context, reservationID string) error {
	tag, err := l.pool.Exec(ctx, `
UPDATE credit_reservations
SET status = 'committed', resolved_at = NOW()
WHERE id = $1 AND status = 'held';
`, reservationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s: %w", reservationID, domain.ErrReservationResolved)
	}
	return nil
}

// Balance returns the user's current credit balance. Users without a balance
// row have zero credit.
func (l *CreditLedgerPG) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := l.pool.QueryRow(ctx, `
SELECT balance FROM user_credits WHERE user_id = $1;
`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

var _ domain.CreditLedger = (*CreditLedgerPG)(nil)
