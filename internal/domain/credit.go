package domain

import "time"

// RegenerationCost is the credit price of one single-view regeneration.
const RegenerationCost = 1

// ReservationStatus tracks the terminal state of a credit hold. Every
// reservation must end up either committed or refunded, never dangling.
type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "held"
	ReservationCommitted ReservationStatus = "committed"
	ReservationRefunded  ReservationStatus = "refunded"
)

// CreditReservation is a provisional debit held while a generation attempt is
// in flight.
type CreditReservation struct {
	ID         string
	UserID     string
	Amount     int
	Status     ReservationStatus
	CreatedAt  time.Time
	ResolvedAt *time.Time
}
