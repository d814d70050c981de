package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	"github.com/nutrisnap/nutrisnap/internal/storage"
)

func mealWithID(id string, calories int) domain.MealAnalysis {
	return domain.MealAnalysis{
		ID:            id,
		Timestamp:     time.Now().UnixMilli(),
		OriginalInput: "test meal " + id,
		TotalCalories: calories,
		FoodItems:     []domain.FoodItem{},
	}
}

func TestLedgerFetchMissingUserIsEmpty(t *testing.T) {
	ledger := NewLedgerService(storage.NewMemoryKV())

	meals, err := ledger.Fetch(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, meals)
	assert.NotNil(t, meals)
}

func TestLedgerUpsertPrependsNewRecords(t *testing.T) {
	ledger := NewLedgerService(storage.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("a", 100)))
	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("b", 200)))
	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("c", 300)))

	meals, err := ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, meals, 3)
	assert.Equal(t, "c", meals[0].ID)
	assert.Equal(t, "b", meals[1].ID)
	assert.Equal(t, "a", meals[2].ID)
}

func TestLedgerUpsertReplacesInPlace(t *testing.T) {
	ledger := NewLedgerService(storage.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("a", 100)))
	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("b", 200)))
	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("c", 300)))

	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("b", 999)))

	meals, err := ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, meals, 3)
	assert.Equal(t, "b", meals[1].ID, "updated record keeps its position")
	assert.Equal(t, 999, meals[1].TotalCalories)
}

func TestLedgerRemove(t *testing.T) {
	ledger := NewLedgerService(storage.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("a", 100)))
	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("b", 200)))

	require.NoError(t, ledger.Remove(ctx, "alice", "a"))

	meals, err := ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "b", meals[0].ID)

	// Removing an absent id is not an error.
	require.NoError(t, ledger.Remove(ctx, "alice", "no-such-id"))
}

func TestLedgerKeyIsCaseInsensitive(t *testing.T) {
	ledger := NewLedgerService(storage.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, ledger.Upsert(ctx, "Alice", mealWithID("a", 100)))

	meals, err := ledger.Fetch(ctx, "ALICE")
	require.NoError(t, err)
	assert.Len(t, meals, 1)
}

func TestLedgerCorruptBlobIsTreatedAsEmpty(t *testing.T) {
	kv := storage.NewMemoryKV()
	ledger := NewLedgerService(kv)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "nutrisnap_data_alice", "{not json"))

	meals, err := ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, meals)

	// The next write replaces the corrupt blob.
	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("a", 100)))
	meals, err = ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, meals, 1)
}

func TestLedgerReadsLegacyBareArrayAndAssignsIDs(t *testing.T) {
	kv := storage.NewMemoryKV()
	ledger := NewLedgerService(kv)
	ctx := context.Background()

	legacy := `[{"timestamp":1700000000000,"originalInput":"old meal","totalCalories":250,"proteinGrams":10,"carbsGrams":30,"fatGrams":8,"foodItems":[]}]`
	require.NoError(t, kv.Set(ctx, "nutrisnap_data_alice", legacy))

	meals, err := ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.NotEmpty(t, meals[0].ID)
	assert.Equal(t, "old meal", meals[0].OriginalInput)
	assert.Equal(t, 250, meals[0].TotalCalories)
}

func TestLedgerWritesVersionedEnvelope(t *testing.T) {
	kv := storage.NewMemoryKV()
	ledger := NewLedgerService(kv)
	ctx := context.Background()

	require.NoError(t, ledger.Upsert(ctx, "alice", mealWithID("a", 100)))

	raw, err := kv.Get(ctx, "nutrisnap_data_alice")
	require.NoError(t, err)
	assert.True(t, strings.Contains(raw, `"version":1`), "blob carries the envelope version: %s", raw)
}
