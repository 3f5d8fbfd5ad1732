package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorbrands/directory/internal/models"
)

// ErrQueueItemNotPending is returned when a terminal transition is attempted
// on an item that is not pending. Terminal states never revert, so a second
// MarkCompleted/MarkError on the same item fails here.
var ErrQueueItemNotPending = errors.New("queue item is not pending")

// EmbeddingQueueRepository is the persisted work queue for embedding jobs.
// The table is append-only: items are created, transition once to
// completed or error, and are never deleted or re-enqueued.
type EmbeddingQueueRepository struct {
	db *pgxpool.Pool
}

// NewEmbeddingQueueRepository creates an embedding queue repository.
func NewEmbeddingQueueRepository(db *pgxpool.Pool) *EmbeddingQueueRepository {
	return &EmbeddingQueueRepository{db: db}
}

const queueColumns = `id, brand_id, text_for_embedding, status, error, claimed_at, processed_at, created_at`

func scanQueueItem(row pgx.Row) (*models.EmbeddingQueueItem, error) {
	var item models.EmbeddingQueueItem

	err := row.Scan(
		&item.ID, &item.BrandID, &item.TextForEmbedding, &item.Status,
		&item.Error, &item.ClaimedAt, &item.ProcessedAt, &item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan queue item: %w", err)
	}

	return &item, nil
}

// Enqueue creates a pending item carrying a snapshot of the text to embed.
// The snapshot is deliberate: processing must not recompute the text, or a
// concurrent brand edit could race the job.
func (r *EmbeddingQueueRepository) Enqueue(ctx context.Context, brandID int64, text string) (int64, error) {
	var id int64

	err := r.db.QueryRow(ctx,
		`INSERT INTO embedding_queue (brand_id, text_for_embedding) VALUES ($1, $2) RETURNING id`,
		brandID, text,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("enqueue embedding job: %w", err)
	}

	return id, nil
}

// ClaimPending atomically claims up to limit pending, unclaimed items and
// returns them oldest first. SKIP LOCKED plus the claimed_at stamp makes the
// claim exclusive, so concurrent processor invocations cannot double-process
// an item; the idempotent vector write remains the backstop if a claim is
// ever abandoned and re-issued operationally.
func (r *EmbeddingQueueRepository) ClaimPending(ctx context.Context, limit int) ([]models.EmbeddingQueueItem, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE embedding_queue
		SET claimed_at = now()
		WHERE id IN (
			SELECT id FROM embedding_queue
			WHERE status = 'pending' AND claimed_at IS NULL
			ORDER BY created_at, id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+queueColumns,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim pending items: %w", err)
	}
	defer rows.Close()

	var items []models.EmbeddingQueueItem

	for rows.Next() {
		var item models.EmbeddingQueueItem

		if err := rows.Scan(
			&item.ID, &item.BrandID, &item.TextForEmbedding, &item.Status,
			&item.Error, &item.ClaimedAt, &item.ProcessedAt, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan claimed item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating claimed items: %w", err)
	}

	return items, nil
}

// MarkCompleted transitions a pending item to completed.
func (r *EmbeddingQueueRepository) MarkCompleted(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE embedding_queue SET status = 'completed', processed_at = now()
		 WHERE id = $1 AND status = 'pending'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrQueueItemNotPending
	}

	return nil
}

// MarkError transitions a pending item to error, recording the last failure
// message. The item stays in the table as an audit record; retrying means
// enqueueing a fresh item.
func (r *EmbeddingQueueRepository) MarkError(ctx context.Context, id int64, message string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE embedding_queue SET status = 'error', error = $1, processed_at = now()
		 WHERE id = $2 AND status = 'pending'`,
		message, id,
	)
	if err != nil {
		return fmt.Errorf("mark error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrQueueItemNotPending
	}

	return nil
}

// GetByID returns a single queue item (used by tests and operational checks).
func (r *EmbeddingQueueRepository) GetByID(ctx context.Context, id int64) (*models.EmbeddingQueueItem, error) {
	return scanQueueItem(r.db.QueryRow(ctx,
		`SELECT `+queueColumns+` FROM embedding_queue WHERE id = $1`, id))
}
