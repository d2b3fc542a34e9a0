package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// pgxQuerier is the slice of pgxpool.Pool the repository needs. Narrowing the
// dependency keeps the transaction logic reachable from tests.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RevisionRepositoryPG implements domain.RevisionRepository using PostgreSQL.
type RevisionRepositoryPG struct {
	pool pgxQuerier
}

// NewRevisionRepository constructs a new revision repository instance.
func NewRevisionRepository(pool *pgxpool.Pool) *RevisionRepositoryPG {
	return &RevisionRepositoryPG{pool: pool}
}

const viewColumns = `id, batch_id, product_id, user_id, view_type, image_url, thumbnail_url, edit_prompt, edit_type, model_used, revision_number, is_active, metadata, created_at`

// ActiveBatch returns the currently active batch for the product, views
// included.
func (r *RevisionRepositoryPG) ActiveBatch(ctx context.Context, productID string) (*domain.RevisionBatch, error) {
	var batchID string
	var revision int
	err := r.pool.QueryRow(ctx, `
SELECT batch_id, revision_number
FROM product_views
WHERE product_id = $1 AND is_active = true
LIMIT 1;
`, productID).Scan(&batchID, &revision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoActiveRevision
		}
		return nil, err
	}

	views, err := r.batchViews(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("active batch %s has no views: %w", batchID, domain.ErrCorruptRevisionState)
	}

	return &domain.RevisionBatch{
		BatchID:        batchID,
		ProductID:      productID,
		UserID:         views[0].UserID,
		RevisionNumber: revision,
		IsActive:       true,
		CreatedAt:      views[0].CreatedAt,
		Views:          views,
	}, nil
}

func (r *RevisionRepositoryPG) batchViews(ctx context.Context, batchID string) ([]domain.ViewRecord, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+viewColumns+`
FROM product_views
WHERE batch_id = $1
ORDER BY view_type ASC;
`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []domain.ViewRecord
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

// CommitRevision writes the next revision batch for the product: the target
// view gets the newly generated image, every other view is cloned verbatim
// from the active batch. The prior batch is deactivated and the new set
// inserted inside one transaction, deactivate first, so no reader ever
// observes two active batches. The revision number is always max-ever+1 for
// the product, never active+1, so regenerating from an older batch cannot
// collide with numbers handed out in between.
func (r *RevisionRepositoryPG) CommitRevision(ctx context.Context, commit domain.RevisionCommit) (*domain.RevisionBatch, error) {
	prior, err := r.ActiveBatch(ctx, commit.ProductID)
	if err != nil {
		return nil, err
	}
	if prior.View(commit.TargetView) == nil {
		return nil, fmt.Errorf("view %q absent from active batch: %w", commit.TargetView, domain.ErrNotFound)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
UPDATE product_views
SET is_active = false
WHERE product_id = $1 AND is_active = true;
`, commit.ProductID); err != nil {
		return nil, err
	}

	// The max scan runs inside the transaction, after the deactivate: a racing
	// commit for the same product blocks on the deactivate's row locks, so the
	// number read here already includes whatever the winner committed. Two
	// concurrent commits get consecutive numbers instead of colliding.
	var maxRevision int
	if err := tx.QueryRow(ctx, `
SELECT COALESCE(MAX(revision_number), 0)
FROM product_views
WHERE product_id = $1;
`, commit.ProductID).Scan(&maxRevision); err != nil {
		return nil, err
	}

	newBatch := buildRevisionBatch(prior, commit, maxRevision+1, time.Now().UTC())

	inserted := 0
	for _, view := range newBatch.Views {
		metadata, err := json.Marshal(view.Metadata)
		if err != nil {
			return nil, err
		}
		tag, err := tx.Exec(ctx, `
INSERT INTO product_views (`+viewColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`, view.ID, view.BatchID, view.ProductID, view.UserID, view.ViewType, view.ImageURL, view.ThumbnailURL,
			view.EditPrompt, view.EditType, view.ModelUsed, view.RevisionNumber, view.IsActive, metadata, view.CreatedAt)
		if err != nil {
			return nil, err
		}
		inserted += int(tag.RowsAffected())
	}
	if inserted != len(newBatch.Views) {
		return nil, fmt.Errorf("inserted %d of %d views: %w", inserted, len(newBatch.Views), domain.ErrPartialInsert)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return newBatch, nil
}

// buildRevisionBatch constructs the next batch from the active one: the target
// view carries the newly generated image and the commit's edit metadata, every
// other view is cloned verbatim. All records share the batch ID, revision
// number, active flag and parent lineage tags.
func buildRevisionBatch(prior *domain.RevisionBatch, commit domain.RevisionCommit, revisionNumber int, now time.Time) *domain.RevisionBatch {
	newBatch := &domain.RevisionBatch{
		BatchID:        uuid.NewString(),
		ProductID:      commit.ProductID,
		UserID:         commit.UserID,
		RevisionNumber: revisionNumber,
		IsActive:       true,
		CreatedAt:      now,
	}
	for _, priorView := range prior.Views {
		record := domain.ViewRecord{
			ID:             uuid.NewString(),
			BatchID:        newBatch.BatchID,
			ProductID:      commit.ProductID,
			UserID:         commit.UserID,
			ViewType:       priorView.ViewType,
			ImageURL:       priorView.ImageURL,
			ThumbnailURL:   priorView.ThumbnailURL,
			EditPrompt:     priorView.EditPrompt,
			EditType:       priorView.EditType,
			ModelUsed:      priorView.ModelUsed,
			RevisionNumber: revisionNumber,
			IsActive:       true,
			CreatedAt:      now,
			Metadata: map[string]any{
				"parent_batch_id": prior.BatchID,
				"parent_revision": prior.RevisionNumber,
				"regenerated":     false,
			},
		}
		if priorView.ViewType == commit.TargetView {
			record.ImageURL = commit.NewImageURL
			record.ThumbnailURL = commit.ThumbnailURL
			record.EditPrompt = commit.EditPrompt
			record.EditType = commit.EditType
			record.ModelUsed = commit.ModelUsed
			record.Metadata["regenerated"] = true
		}
		newBatch.Views = append(newBatch.Views, record)
	}
	return newBatch
}

// SeedInitialBatch writes revision 1 for a product with no history.
func (r *RevisionRepositoryPG) SeedInitialBatch(ctx context.Context, productID, userID string, views map[domain.ViewType]string) (*domain.RevisionBatch, error) {
	if len(views) == 0 {
		return nil, errors.New("at least one view is required")
	}

	var existing int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM product_views WHERE product_id = $1;
`, productID).Scan(&existing); err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("product %s already has revision history", productID)
	}

	batch := &domain.RevisionBatch{
		BatchID:        uuid.NewString(),
		ProductID:      productID,
		UserID:         userID,
		RevisionNumber: 1,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	for _, vt := range domain.AllViews() {
		url, ok := views[vt]
		if !ok {
			continue
		}
		batch.Views = append(batch.Views, domain.ViewRecord{
			ID:             uuid.NewString(),
			BatchID:        batch.BatchID,
			ProductID:      productID,
			UserID:         userID,
			ViewType:       vt,
			ImageURL:       url,
			RevisionNumber: 1,
			IsActive:       true,
			CreatedAt:      batch.CreatedAt,
			Metadata:       map[string]any{"seeded": true},
		})
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, view := range batch.Views {
		metadata, err := json.Marshal(view.Metadata)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO product_views (`+viewColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
`, view.ID, view.BatchID, view.ProductID, view.UserID, view.ViewType, view.ImageURL, view.ThumbnailURL,
			view.EditPrompt, view.EditType, view.ModelUsed, view.RevisionNumber, view.IsActive, metadata, view.CreatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return batch, nil
}

func scanView(row pgx.Row) (*domain.ViewRecord, error) {
	var v domain.ViewRecord
	var metadata []byte
	if err := row.Scan(&v.ID, &v.BatchID, &v.ProductID, &v.UserID, &v.ViewType, &v.ImageURL, &v.ThumbnailURL,
		&v.EditPrompt, &v.EditType, &v.ModelUsed, &v.RevisionNumber, &v.IsActive, &metadata, &v.CreatedAt); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &v.Metadata); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

var _ domain.RevisionRepository = (*RevisionRepositoryPG)(nil)
