package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorbrands/directory/internal/models"
	"github.com/creatorbrands/directory/internal/repository"
)

func TestEmbeddingQueueLifecycle(t *testing.T) {
	db := startTestDatabase(t)
	ctx := context.Background()

	brands := repository.NewBrandsRepository(db, 1536)
	queue := repository.NewEmbeddingQueueRepository(db)

	brand, err := brands.Create(ctx, &models.CreateBrandRequest{
		Name:        "Glow Lab",
		Creators:    "Ava Reed",
		Description: "Clean skincare line.",
	})
	require.NoError(t, err)

	t.Run("enqueue creates pending unclaimed item", func(t *testing.T) {
		id, err := queue.Enqueue(ctx, brand.ID, "Brand: Glow Lab")
		require.NoError(t, err)

		item, err := queue.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.QueueStatusPending, item.Status)
		assert.Nil(t, item.ClaimedAt)
		assert.Nil(t, item.ProcessedAt)
		assert.Equal(t, "Brand: Glow Lab", item.TextForEmbedding)
	})

	t.Run("claim stamps lease and excludes claimed items", func(t *testing.T) {
		items, err := queue.ClaimPending(ctx, 10)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].ClaimedAt)

		// A second claim sees nothing: the lease is exclusive.
		again, err := queue.ClaimPending(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, again)
	})

	t.Run("terminal transition happens exactly once", func(t *testing.T) {
		id, err := queue.Enqueue(ctx, brand.ID, "Brand: Glow Lab (edited)")
		require.NoError(t, err)

		require.NoError(t, queue.MarkCompleted(ctx, id))

		item, err := queue.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.QueueStatusCompleted, item.Status)
		require.NotNil(t, item.ProcessedAt)

		// Completed items never revert or transition again.
		assert.ErrorIs(t, queue.MarkCompleted(ctx, id), repository.ErrQueueItemNotPending)
		assert.ErrorIs(t, queue.MarkError(ctx, id, "late failure"), repository.ErrQueueItemNotPending)
	})

	t.Run("mark error records the message", func(t *testing.T) {
		id, err := queue.Enqueue(ctx, brand.ID, "Brand: Glow Lab (again)")
		require.NoError(t, err)

		require.NoError(t, queue.MarkError(ctx, id, "provider returned no embedding"))

		item, err := queue.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.QueueStatusError, item.Status)
		require.NotNil(t, item.Error)
		assert.Equal(t, "provider returned no embedding", *item.Error)

		assert.ErrorIs(t, queue.MarkCompleted(ctx, id), repository.ErrQueueItemNotPending)
	})

	t.Run("claim respects batch limit and age order", func(t *testing.T) {
		var ids []int64

		for range 3 {
			id, err := queue.Enqueue(ctx, brand.ID, "Brand: Glow Lab (batch)")
			require.NoError(t, err)

			ids = append(ids, id)
		}

		items, err := queue.ClaimPending(ctx, 2)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, ids[0], items[0].ID)
		assert.Equal(t, ids[1], items[1].ID)

		rest, err := queue.ClaimPending(ctx, 2)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, ids[2], rest[0].ID)
	})

	t.Run("deleting the brand cascades to its queue rows", func(t *testing.T) {
		victim, err := brands.Create(ctx, &models.CreateBrandRequest{
			Name:        "Short Lived",
			Creators:    "Nobody",
			Description: "Gone soon.",
		})
		require.NoError(t, err)

		id, err := queue.Enqueue(ctx, victim.ID, "Brand: Short Lived")
		require.NoError(t, err)

		require.NoError(t, brands.Delete(ctx, victim.ID))

		_, err = queue.GetByID(ctx, id)
		require.Error(t, err)
	})
}
