package domain

import "context"

// RevisionRepository is the versioned store of product view batches.
type RevisionRepository interface {
	// ActiveBatch returns the currently active batch with its view records.
	// Returns ErrNoActiveRevision when the product has never been seeded and
	// ErrCorruptRevisionState when an active batch exists without views.
	ActiveBatch(ctx context.Context, productID string) (*RevisionBatch, error)

	// CommitRevision writes a new batch that swaps in the target view and
	// clones every other active view, then deactivates the prior batch.
	// The deactivate and insert run inside one transaction, deactivate first.
	CommitRevision(ctx context.Context, commit RevisionCommit) (*RevisionBatch, error)

	// SeedInitialBatch creates revision 1 for a product that has no history.
	SeedInitialBatch(ctx context.Context, productID, userID string, views map[ViewType]string) (*RevisionBatch, error)
}

// CreditLedger reserves and settles billable credit. Reserve debits the
// balance up front; exactly one of Commit or Refund must follow.
type CreditLedger interface {
	Reserve(ctx context.Context, userID string, amount int) (string, error)
	Refund(ctx context.Context, userID, reservationID string, amount int) error
	Commit(ctx context.Context, reservationID string) error
	Balance(ctx context.Context, userID string) (int, error)
}

// LogoRepository reads the persisted logo candidates for a product.
type LogoRepository interface {
	// ProductLogos returns the product's default logo URL and the logo of the
	// brand profile applied to the product. Either may be empty.
	ProductLogos(ctx context.Context, productID string) (productLogo, brandLogo string, err error)
}
