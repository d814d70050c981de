package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	"github.com/nutrisnap/nutrisnap/internal/storage"
)

type fakeEstimator struct {
	mealEstimate *domain.MealEstimate
	mealErr      error
	itemResult   *domain.FoodItem
	itemErr      error

	mealCalls int
	itemCalls int
}

func (f *fakeEstimator) EstimateMeal(ctx context.Context, text string) (*domain.MealEstimate, error) {
	f.mealCalls++
	if f.mealErr != nil {
		return nil, f.mealErr
	}
	estimate := *f.mealEstimate
	return &estimate, nil
}

func (f *fakeEstimator) EstimateItem(ctx context.Context, name, quantity string) (*domain.FoodItem, error) {
	f.itemCalls++
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	item := *f.itemResult
	item.Name = name
	item.Quantity = quantity
	return &item, nil
}

func breakfastEstimate() *domain.MealEstimate {
	return &domain.MealEstimate{
		TotalCalories: 300,
		ProteinGrams:  18,
		CarbsGrams:    26,
		FatGrams:      12,
		FoodItems: []domain.FoodItem{
			{Name: "eggs", Quantity: "2 large", Calories: 200, ProteinGrams: 14, CarbsGrams: 2, FatGrams: 10},
			{Name: "toast", Quantity: "1 slice", Calories: 100, ProteinGrams: 4, CarbsGrams: 24, FatGrams: 2},
		},
		HealthTip: "Add a vegetable for fiber.",
	}
}

func newTestService(estimator *fakeEstimator) (*MealService, *LedgerService) {
	ledger := NewLedgerService(storage.NewMemoryKV())
	svc := NewMealService(estimator, ledger)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("meal-%d", n)
	}
	return svc, ledger
}

func assertTotalsMatchItems(t *testing.T, meal domain.MealAnalysis) {
	t.Helper()
	var cal, protein, carbs, fat int
	for _, item := range meal.FoodItems {
		cal += item.Calories
		protein += item.ProteinGrams
		carbs += item.CarbsGrams
		fat += item.FatGrams
	}
	assert.Equal(t, cal, meal.TotalCalories)
	assert.Equal(t, protein, meal.ProteinGrams)
	assert.Equal(t, carbs, meal.CarbsGrams)
	assert.Equal(t, fat, meal.FatGrams)
}

func TestCreatePrependsAndSetsCurrent(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	first, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)
	second, err := svc.Create(ctx, "same again", time.Now())
	require.NoError(t, err)

	history := svc.History()
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)

	current := svc.Current()
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, "same again", current.OriginalInput)
}

func TestCreatePreservesEstimateTotalsVerbatim(t *testing.T) {
	// The whole-meal estimate's totals are not required to decompose from
	// its own item list; they are kept as-is until the first edit.
	estimate := breakfastEstimate()
	estimate.TotalCalories = 320 // items sum to 300
	estimator := &fakeEstimator{mealEstimate: estimate}
	svc, _ := newTestService(estimator)

	meal, err := svc.Create(context.Background(), "2 eggs and toast", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 320, meal.TotalCalories)
}

func TestCreateFailureLeavesStateUnchanged(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	_, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)

	estimator.mealErr = fmt.Errorf("model unavailable")
	_, err = svc.Create(ctx, "burger", time.Now())
	require.Error(t, err)

	history := svc.History()
	assert.Len(t, history, 1)
	assert.Equal(t, "2 eggs and toast", history[0].OriginalInput)
	require.NotNil(t, svc.Current())
	assert.Equal(t, history[0].ID, svc.Current().ID)
}

func TestCreateCombinesSelectedDateWithCompletionTime(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, _ := newTestService(estimator)

	completedAt := time.Date(2026, 8, 30, 13, 45, 12, 0, time.Local)
	svc.now = func() time.Time { return completedAt }
	selectedDate := time.Date(2026, 8, 10, 0, 0, 0, 0, time.Local)

	meal, err := svc.Create(context.Background(), "2 eggs and toast", selectedDate)
	require.NoError(t, err)

	ts := time.UnixMilli(meal.Timestamp)
	assert.Equal(t, 2026, ts.Year())
	assert.Equal(t, time.August, ts.Month())
	assert.Equal(t, 10, ts.Day())
	assert.Equal(t, 13, ts.Hour())
	assert.Equal(t, 45, ts.Minute())
}

func TestAddItemRecomputesTotals(t *testing.T) {
	estimator := &fakeEstimator{
		mealEstimate: breakfastEstimate(),
		itemResult:   &domain.FoodItem{Calories: 110, CarbsGrams: 26},
	}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	meal, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(ctx, meal.ID, "orange juice", "1 glass"))

	updated := svc.History()[0]
	require.Len(t, updated.FoodItems, 3)
	assert.Equal(t, "orange juice", updated.FoodItems[2].Name)
	assert.Equal(t, 410, updated.TotalCalories)
	assertTotalsMatchItems(t, updated)

	// Current is the same record and must carry the same update.
	current := svc.Current()
	require.NotNil(t, current)
	assert.Equal(t, 410, current.TotalCalories)
	assert.Len(t, current.FoodItems, 3)
}

func TestUpdateItemReplacesAndResums(t *testing.T) {
	estimator := &fakeEstimator{
		mealEstimate: breakfastEstimate(),
		itemResult:   &domain.FoodItem{Calories: 400, ProteinGrams: 28, CarbsGrams: 4, FatGrams: 20},
	}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	meal, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateItem(ctx, meal.ID, 0, "4 large"))

	updated := svc.History()[0]
	require.Len(t, updated.FoodItems, 2)
	assert.Equal(t, "eggs", updated.FoodItems[0].Name) // name kept, quantity replaced
	assert.Equal(t, "4 large", updated.FoodItems[0].Quantity)
	assert.Equal(t, 500, updated.TotalCalories)
	assertTotalsMatchItems(t, updated)
}

func TestUpdateItemFailureLeavesMealUnchanged(t *testing.T) {
	estimator := &fakeEstimator{
		mealEstimate: breakfastEstimate(),
		itemErr:      fmt.Errorf("model unavailable"),
	}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	meal, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)
	before := svc.History()[0]

	err = svc.UpdateItem(ctx, meal.ID, 0, "4 large")
	require.Error(t, err)

	after := svc.History()[0]
	assert.Equal(t, before, after)
}

func TestUpdateItemUnknownMealNoOps(t *testing.T) {
	estimator := &fakeEstimator{
		mealEstimate: breakfastEstimate(),
		itemResult:   &domain.FoodItem{Calories: 1},
	}
	svc, _ := newTestService(estimator)

	err := svc.UpdateItem(context.Background(), "no-such-id", 0, "1 cup")
	require.NoError(t, err)
	assert.Zero(t, estimator.itemCalls, "no estimation call for an unknown meal")
}

func TestUpdateItemInvalidIndexFails(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	meal, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)

	require.Error(t, svc.UpdateItem(ctx, meal.ID, 5, "1 cup"))
	assert.Zero(t, estimator.itemCalls)
}

func TestDeleteItemToEmptyYieldsZeroTotals(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	meal, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, meal.ID, 1))
	require.NoError(t, svc.DeleteItem(ctx, meal.ID, 0))

	updated := svc.History()[0]
	assert.Empty(t, updated.FoodItems)
	assert.Zero(t, updated.TotalCalories)
	assert.Zero(t, updated.ProteinGrams)
	assert.Zero(t, updated.CarbsGrams)
	assert.Zero(t, updated.FatGrams)
}

func TestTotalsInvariantAcrossMutationSequence(t *testing.T) {
	estimator := &fakeEstimator{
		mealEstimate: breakfastEstimate(),
		itemResult:   &domain.FoodItem{Calories: 90, ProteinGrams: 3, CarbsGrams: 12, FatGrams: 4},
	}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	meal, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(ctx, meal.ID, "banana", "1"))
	assertTotalsMatchItems(t, svc.History()[0])

	require.NoError(t, svc.UpdateItem(ctx, meal.ID, 1, "2 slices"))
	assertTotalsMatchItems(t, svc.History()[0])

	require.NoError(t, svc.DeleteItem(ctx, meal.ID, 0))
	assertTotalsMatchItems(t, svc.History()[0])

	require.NoError(t, svc.AddItem(ctx, meal.ID, "yogurt", "1 cup"))
	assertTotalsMatchItems(t, svc.History()[0])
}

func TestDeleteMealRemovesEverywhere(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, ledger := newTestService(estimator)
	ctx := context.Background()

	svc.Attach("alice")
	meal, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)

	stored, err := ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stored, 1)

	require.NoError(t, svc.DeleteMeal(ctx, meal.ID))

	assert.Empty(t, svc.History())
	assert.Nil(t, svc.Current())

	stored, err = ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestPersistOnlyWhenAttached(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, ledger := newTestService(estimator)
	ctx := context.Background()

	_, err := svc.Create(ctx, "guest meal", time.Now())
	require.NoError(t, err)

	stored, err := ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, stored)

	svc.Attach("alice")
	meal, err := svc.Create(ctx, "logged meal", time.Now())
	require.NoError(t, err)

	stored, err = ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, meal.ID, stored[0].ID)
}

func TestItemMutationPersistsUpdatedRecord(t *testing.T) {
	estimator := &fakeEstimator{
		mealEstimate: breakfastEstimate(),
		itemResult:   &domain.FoodItem{Calories: 110},
	}
	svc, ledger := newTestService(estimator)
	ctx := context.Background()

	svc.Attach("alice")
	meal, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.AddItem(ctx, meal.ID, "orange juice", "1 glass"))

	stored, err := ledger.Fetch(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 410, stored[0].TotalCalories)
	assert.Len(t, stored[0].FoodItems, 3)
}

func TestSelectMealSetsCurrent(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	first, err := svc.Create(ctx, "breakfast", time.Now())
	require.NoError(t, err)
	_, err = svc.Create(ctx, "lunch", time.Now())
	require.NoError(t, err)

	selected := svc.SelectMeal(first.ID)
	require.NotNil(t, selected)
	assert.Equal(t, first.ID, selected.ID)
	assert.Equal(t, first.ID, svc.Current().ID)

	assert.Nil(t, svc.SelectMeal("no-such-id"))
}

func TestReplaceClearsCurrent(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	stale, err := svc.Create(ctx, "guest snack", time.Now())
	require.NoError(t, err)

	svc.Replace([]domain.MealAnalysis{mealWithID("stored", 200)})

	assert.Nil(t, svc.Current(), "the pre-swap analysis must not survive the swap")

	// A mutation addressed by the stale id finds nothing to touch.
	require.NoError(t, svc.DeleteItem(ctx, stale.ID, 0))
	history := svc.History()
	require.Len(t, history, 1)
	assert.Equal(t, "stored", history[0].ID)
	assert.Equal(t, 200, history[0].TotalCalories)
}

func TestDeleteMealReleasesEditLock(t *testing.T) {
	estimator := &fakeEstimator{
		mealEstimate: breakfastEstimate(),
		itemResult:   &domain.FoodItem{Calories: 110},
	}
	svc, _ := newTestService(estimator)
	ctx := context.Background()

	meal, err := svc.Create(ctx, "2 eggs and toast", time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(ctx, meal.ID, "orange juice", "1 glass"))

	svc.editMu.Lock()
	_, held := svc.editLocks[meal.ID]
	svc.editMu.Unlock()
	require.True(t, held)

	require.NoError(t, svc.DeleteMeal(ctx, meal.ID))

	svc.editMu.Lock()
	_, held = svc.editLocks[meal.ID]
	svc.editMu.Unlock()
	assert.False(t, held)
}

func TestResetDiscardsInMemoryState(t *testing.T) {
	estimator := &fakeEstimator{mealEstimate: breakfastEstimate()}
	svc, _ := newTestService(estimator)

	_, err := svc.Create(context.Background(), "breakfast", time.Now())
	require.NoError(t, err)

	svc.Reset()
	assert.Empty(t, svc.History())
	assert.Nil(t, svc.Current())
}
