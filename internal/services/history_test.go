package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	"github.com/nutrisnap/nutrisnap/internal/utils"
)

func mealAt(id string, t time.Time, calories, protein, carbs, fat int) domain.MealAnalysis {
	return domain.MealAnalysis{
		ID:            id,
		Timestamp:     utils.ToMillis(t),
		OriginalInput: "meal " + id,
		TotalCalories: calories,
		ProteinGrams:  protein,
		CarbsGrams:    carbs,
		FatGrams:      fat,
	}
}

func TestGroupByDayBucketsAndTotals(t *testing.T) {
	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)

	history := []domain.MealAnalysis{
		mealAt("dinner", now, 700, 40, 60, 25),
		mealAt("lunch", now.Add(-5*time.Hour), 550, 30, 70, 15),
		mealAt("old-dinner", yesterday, 650, 35, 55, 20),
	}

	groups := GroupByDay(history, now)
	require.Len(t, groups, 2)

	today := groups[0]
	assert.Equal(t, "Today", today.DisplayDate)
	require.Len(t, today.Meals, 2)
	assert.Equal(t, 1250, today.TotalCalories)
	assert.Equal(t, 70, today.ProteinGrams)
	assert.Equal(t, 130, today.CarbsGrams)
	assert.Equal(t, 40, today.FatGrams)

	assert.Equal(t, "Yesterday", groups[1].DisplayDate)
	assert.Equal(t, 650, groups[1].TotalCalories)
}

func TestGroupByDayOrdersNewestFirst(t *testing.T) {
	now := time.Date(2026, 8, 30, 18, 0, 0, 0, time.Local)
	older := now.AddDate(0, 0, -10)

	// History arrives with the days interleaved and within-day order scrambled.
	history := []domain.MealAnalysis{
		mealAt("old-lunch", older.Add(-6*time.Hour), 400, 0, 0, 0),
		mealAt("lunch", now.Add(-5*time.Hour), 550, 0, 0, 0),
		mealAt("old-dinner", older, 650, 0, 0, 0),
		mealAt("dinner", now, 700, 0, 0, 0),
	}

	groups := GroupByDay(history, now)
	require.Len(t, groups, 2)

	assert.Equal(t, "Today", groups[0].DisplayDate)
	assert.Equal(t, "dinner", groups[0].Meals[0].ID)
	assert.Equal(t, "lunch", groups[0].Meals[1].ID)

	assert.Equal(t, older.Format("Monday, January 2"), groups[1].DisplayDate)
	assert.Equal(t, "old-dinner", groups[1].Meals[0].ID)
	assert.Equal(t, "old-lunch", groups[1].Meals[1].ID)
}

func TestGroupByDayEmptyHistory(t *testing.T) {
	groups := GroupByDay(nil, time.Now())
	assert.Empty(t, groups)
}
