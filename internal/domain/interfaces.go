package domain

import (
	"context"
)

// Estimator is the boundary to the external AI nutrition model.
type Estimator interface {
	// EstimateMeal analyzes a free-text meal description. Non-food input is
	// a valid all-zero response, not an error.
	EstimateMeal(ctx context.Context, text string) (*MealEstimate, error)
	// EstimateItem analyzes a single food by name and quantity text.
	EstimateItem(ctx context.Context, name, quantity string) (*FoodItem, error)
}

// MealLedger is the durable per-user meal store.
type MealLedger interface {
	Fetch(ctx context.Context, username string) ([]MealAnalysis, error)
	Upsert(ctx context.Context, username string, meal MealAnalysis) error
	Remove(ctx context.Context, username, mealID string) error
}

// CredentialStore handles account registration and verification.
type CredentialStore interface {
	Register(ctx context.Context, username, password string) error
	Authenticate(ctx context.Context, username, password string) (*UserRecord, error)
}
