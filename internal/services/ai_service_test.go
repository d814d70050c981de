package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain object",
			input:    `{"totalCalories": 300}`,
			expected: `{"totalCalories": 300}`,
		},
		{
			name:     "fenced code block",
			input:    "```json\n{\"totalCalories\": 300}\n```",
			expected: `{"totalCalories": 300}`,
		},
		{
			name:     "surrounding prose",
			input:    "Here is your estimate: {\"totalCalories\": 300} Enjoy!",
			expected: `{"totalCalories": 300}`,
		},
		{
			name:     "no object",
			input:    "I cannot help with that.",
			expected: "",
		},
		{
			name:     "brace order wrong",
			input:    "} nothing here {",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSON(tt.input))
		})
	}
}

func TestDecodeResponseMealEstimate(t *testing.T) {
	raw := "```json\n" + `{
		"totalCalories": 650,
		"proteinGrams": 35,
		"carbsGrams": 45,
		"fatGrams": 32,
		"foodItems": [
			{"name": "cheeseburger", "quantity": "1", "calories": 550, "proteinGrams": 30, "carbsGrams": 40, "fatGrams": 28},
			{"name": "pickles", "quantity": "3 slices", "calories": 100, "proteinGrams": 5, "carbsGrams": 5, "fatGrams": 4}
		],
		"healthTip": "Swap fries for a salad to cut saturated fat."
	}` + "\n```"

	var estimate domain.MealEstimate
	require.NoError(t, decodeResponse(raw, &estimate))

	assert.Equal(t, 650, estimate.TotalCalories)
	assert.Equal(t, 35, estimate.ProteinGrams)
	require.Len(t, estimate.FoodItems, 2)
	assert.Equal(t, "cheeseburger", estimate.FoodItems[0].Name)
	assert.Equal(t, "3 slices", estimate.FoodItems[1].Quantity)
	assert.NotEmpty(t, estimate.HealthTip)
}

func TestDecodeResponseErrors(t *testing.T) {
	var estimate domain.MealEstimate

	err := decodeResponse("no json here", &estimate)
	require.ErrorIs(t, err, apperrors.ErrAIParse)

	err = decodeResponse(`{"totalCalories": "not a number"}`, &estimate)
	require.ErrorIs(t, err, apperrors.ErrAIParse)
}

func TestDecodeResponseZeroedNonFoodAnswer(t *testing.T) {
	// A nonsense input yields a valid all-zero estimate, not an error.
	raw := `{"totalCalories": 0, "proteinGrams": 0, "carbsGrams": 0, "fatGrams": 0, "foodItems": [], "healthTip": "That doesn't look like food to me."}`

	var estimate domain.MealEstimate
	require.NoError(t, decodeResponse(raw, &estimate))
	assert.Zero(t, estimate.TotalCalories)
	assert.NotEmpty(t, estimate.HealthTip)
}
