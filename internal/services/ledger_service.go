package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
	"github.com/nutrisnap/nutrisnap/internal/logger"
	"github.com/nutrisnap/nutrisnap/internal/storage"
)

const (
	ledgerKeyPrefix = "nutrisnap_data_"

	// ledgerVersion tags every blob written by this build. Version 0 is the
	// legacy layout: a bare JSON array whose records may lack ids.
	ledgerVersion = 1
)

// ledgerBlob is the on-disk envelope for one user's history.
type ledgerBlob struct {
	Version int                   `json:"version"`
	Meals   []domain.MealAnalysis `json:"meals"`
}

// LedgerService is the durable per-user meal store. Each user's history is
// one serialized blob; every write rewrites the whole blob, last writer
// wins.
type LedgerService struct {
	kv storage.KV
}

func NewLedgerService(kv storage.KV) *LedgerService {
	return &LedgerService{kv: kv}
}

func ledgerKey(username string) string {
	return ledgerKeyPrefix + strings.ToLower(username)
}

// Fetch returns the stored history for a user, newest first. A missing or
// malformed blob is treated as empty history, never an error. Legacy blobs
// are migrated forward on load: records without an id get a fresh one.
func (s *LedgerService) Fetch(ctx context.Context, username string) ([]domain.MealAnalysis, error) {
	raw, err := s.kv.Get(ctx, ledgerKey(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrKeyNotFound) {
			return []domain.MealAnalysis{}, nil
		}
		return nil, err
	}

	meals, ok := decodeLedger(raw)
	if !ok {
		logger.Warn("Discarding corrupt meal ledger", "username", username)
		return []domain.MealAnalysis{}, nil
	}
	return meals, nil
}

// Upsert stores a meal. An existing record with the same id is replaced in
// place, preserving its position; a new id is prepended.
func (s *LedgerService) Upsert(ctx context.Context, username string, meal domain.MealAnalysis) error {
	meals, err := s.Fetch(ctx, username)
	if err != nil {
		return err
	}

	replaced := false
	for i := range meals {
		if meals[i].ID == meal.ID {
			meals[i] = meal
			replaced = true
			break
		}
	}
	if !replaced {
		meals = append([]domain.MealAnalysis{meal}, meals...)
	}

	return s.write(ctx, username, meals)
}

// Remove deletes the record with the given id, if present.
func (s *LedgerService) Remove(ctx context.Context, username, mealID string) error {
	meals, err := s.Fetch(ctx, username)
	if err != nil {
		return err
	}

	kept := meals[:0]
	for _, m := range meals {
		if m.ID != mealID {
			kept = append(kept, m)
		}
	}

	return s.write(ctx, username, kept)
}

func (s *LedgerService) write(ctx context.Context, username string, meals []domain.MealAnalysis) error {
	blob := ledgerBlob{Version: ledgerVersion, Meals: meals}
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to serialize meal ledger: %w", err)
	}
	return s.kv.Set(ctx, ledgerKey(username), string(data))
}

// decodeLedger parses a stored blob, accepting both the current envelope
// and the legacy bare-array layout. Returns false on corruption.
func decodeLedger(raw string) ([]domain.MealAnalysis, bool) {
	var blob ledgerBlob
	if err := json.Unmarshal([]byte(raw), &blob); err == nil && blob.Version >= 1 {
		return migrateIDs(blob.Meals), true
	}

	// Legacy: the blob is the meal array itself.
	var legacy []domain.MealAnalysis
	if err := json.Unmarshal([]byte(raw), &legacy); err == nil {
		return migrateIDs(legacy), true
	}

	return nil, false
}

// migrateIDs assigns a fresh id to any record that lacks one. Ids are
// required for all lookups, so this runs on every load rather than only at
// login.
func migrateIDs(meals []domain.MealAnalysis) []domain.MealAnalysis {
	if meals == nil {
		return []domain.MealAnalysis{}
	}
	for i := range meals {
		if meals[i].ID == "" {
			meals[i].ID = uuid.NewString()
		}
	}
	return meals
}
