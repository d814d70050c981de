package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
	"github.com/nutrisnap/nutrisnap/internal/logger"
	"github.com/nutrisnap/nutrisnap/internal/utils"
)

// MealService owns the in-memory analysis state for one session: the
// current analysis and the session history (newest first). Item-level edits
// go through the estimator and re-sum the aggregate totals; successful
// mutations are mirrored to the ledger while a user is attached.
//
// Edits to the same meal id are serialized through a per-id lock held
// across the estimation call, so two concurrent edits cannot silently
// clobber each other. Edits to distinct meals proceed independently.
type MealService struct {
	estimator domain.Estimator
	ledger    domain.MealLedger

	now   func() time.Time
	newID func() string

	mu         sync.Mutex
	history    []domain.MealAnalysis
	current    *domain.MealAnalysis
	username   string
	attached   bool
	generation uint64

	editMu    sync.Mutex
	editLocks map[string]*sync.Mutex

	guestSink func([]domain.MealAnalysis)
}

func NewMealService(estimator domain.Estimator, ledger domain.MealLedger) *MealService {
	return &MealService{
		estimator: estimator,
		ledger:    ledger,
		now:       time.Now,
		newID:     uuid.NewString,
		editLocks: make(map[string]*sync.Mutex),
	}
}

// Create analyzes a meal description and records the result. The record's
// timestamp combines the calendar date of selectedDate with the time of day
// at which the estimation completed, so back-dated entries still order by
// completion time within their day. On estimation failure nothing is
// recorded.
func (s *MealService) Create(ctx context.Context, text string, selectedDate time.Time) (*domain.MealAnalysis, error) {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()

	estimate, err := s.estimator.EstimateMeal(ctx, text)
	if err != nil {
		return nil, err
	}

	completedAt := s.now()
	meal := domain.MealAnalysis{
		ID:            s.newID(),
		Timestamp:     utils.ToMillis(utils.CombineDateAndClock(selectedDate, completedAt)),
		OriginalInput: text,
		TotalCalories: estimate.TotalCalories,
		ProteinGrams:  estimate.ProteinGrams,
		CarbsGrams:    estimate.CarbsGrams,
		FatGrams:      estimate.FatGrams,
		FoodItems:     estimate.FoodItems,
		HealthTip:     estimate.HealthTip,
	}

	s.mu.Lock()
	if s.generation != gen {
		// The session was reset while the call was in flight; drop the
		// result.
		s.mu.Unlock()
		return nil, nil
	}
	s.history = append([]domain.MealAnalysis{meal}, s.history...)
	current := meal
	s.current = &current
	s.mu.Unlock()

	s.persist(ctx, meal)
	return &meal, nil
}

// UpdateItem re-estimates the item at itemIndex with a new quantity and
// replaces it, re-summing the meal totals. An unknown meal id is a silent
// no-op; a failed estimation leaves the record untouched.
func (s *MealService) UpdateItem(ctx context.Context, mealID string, itemIndex int, newQuantity string) error {
	unlock := s.lockMeal(mealID)
	defer unlock()

	s.mu.Lock()
	meal, ok := s.lookupLocked(mealID)
	if !ok {
		s.mu.Unlock()
		logger.Debug("Item update targets unknown meal", "meal_id", mealID)
		return nil
	}
	if itemIndex < 0 || itemIndex >= len(meal.FoodItems) {
		s.mu.Unlock()
		return apperrors.NewValidationError("item index out of range")
	}
	name := meal.FoodItems[itemIndex].Name
	s.mu.Unlock()

	item, err := s.estimator.EstimateItem(ctx, name, newQuantity)
	if err != nil {
		return err
	}

	updated, ok := s.apply(mealID, func(m *domain.MealAnalysis) bool {
		if itemIndex >= len(m.FoodItems) {
			return false
		}
		m.FoodItems[itemIndex] = *item
		return true
	})
	if !ok {
		return nil
	}

	s.persist(ctx, updated)
	return nil
}

// AddItem estimates a new item and appends it to the meal, re-summing the
// totals.
func (s *MealService) AddItem(ctx context.Context, mealID, name, quantity string) error {
	unlock := s.lockMeal(mealID)
	defer unlock()

	s.mu.Lock()
	_, ok := s.lookupLocked(mealID)
	s.mu.Unlock()
	if !ok {
		logger.Debug("Item add targets unknown meal", "meal_id", mealID)
		return nil
	}

	item, err := s.estimator.EstimateItem(ctx, name, quantity)
	if err != nil {
		return err
	}

	updated, ok := s.apply(mealID, func(m *domain.MealAnalysis) bool {
		m.FoodItems = append(m.FoodItems, *item)
		return true
	})
	if !ok {
		return nil
	}

	s.persist(ctx, updated)
	return nil
}

// DeleteItem removes the item at itemIndex and re-sums the totals. Removing
// the last item is legal and yields zero totals.
func (s *MealService) DeleteItem(ctx context.Context, mealID string, itemIndex int) error {
	unlock := s.lockMeal(mealID)
	defer unlock()

	s.mu.Lock()
	meal, ok := s.lookupLocked(mealID)
	if ok && (itemIndex < 0 || itemIndex >= len(meal.FoodItems)) {
		s.mu.Unlock()
		return apperrors.NewValidationError("item index out of range")
	}
	s.mu.Unlock()
	if !ok {
		logger.Debug("Item delete targets unknown meal", "meal_id", mealID)
		return nil
	}

	updated, ok := s.apply(mealID, func(m *domain.MealAnalysis) bool {
		if itemIndex >= len(m.FoodItems) {
			return false
		}
		m.FoodItems = append(m.FoodItems[:itemIndex:itemIndex], m.FoodItems[itemIndex+1:]...)
		return true
	})
	if !ok {
		return nil
	}

	s.persist(ctx, updated)
	return nil
}

// DeleteMeal removes a record from the history and from durable storage.
// Confirmation is the caller's concern.
func (s *MealService) DeleteMeal(ctx context.Context, mealID string) error {
	s.mu.Lock()
	kept := s.history[:0:0]
	for _, m := range s.history {
		if m.ID != mealID {
			kept = append(kept, m)
		}
	}
	s.history = kept
	if s.current != nil && s.current.ID == mealID {
		s.current = nil
	}
	attached, username := s.attached, s.username
	sink := s.guestSink
	var snapshot []domain.MealAnalysis
	if !attached && sink != nil {
		snapshot = make([]domain.MealAnalysis, len(s.history))
		copy(snapshot, s.history)
	}
	s.mu.Unlock()

	// The record is gone; its edit lock has nothing left to guard.
	s.editMu.Lock()
	delete(s.editLocks, mealID)
	s.editMu.Unlock()

	if attached {
		if err := s.ledger.Remove(ctx, username, mealID); err != nil {
			logger.Warn("Failed to remove meal from ledger", "meal_id", mealID, "error", err)
		}
	} else if sink != nil {
		sink(snapshot)
	}
	return nil
}

// SelectMeal makes a history record the current analysis.
func (s *MealService) SelectMeal(mealID string) *domain.MealAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.history {
		if m.ID == mealID {
			selected := m
			s.current = &selected
			result := m
			return &result
		}
	}
	return nil
}

// History returns a copy of the session history, newest first.
func (s *MealService) History() []domain.MealAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MealAnalysis, len(s.history))
	copy(out, s.history)
	return out
}

// Current returns a copy of the current analysis, or nil.
func (s *MealService) Current() *domain.MealAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	current := *s.current
	return &current
}

// Attach binds the engine to an authenticated user: subsequent mutations
// are mirrored to that user's ledger.
func (s *MealService) Attach(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.attached = true
}

// Detach stops ledger mirroring.
func (s *MealService) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = ""
	s.attached = false
}

// Replace swaps in a new history, typically the ledger contents after
// login. The current analysis is dropped with the old history, so a stale
// id from before the swap can no longer address a record. In-flight
// creations from before the swap are discarded.
func (s *MealService) Replace(history []domain.MealAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = make([]domain.MealAnalysis, len(history))
	copy(s.history, history)
	s.current = nil
	s.generation++
}

// Reset discards all in-memory meal data. Durable storage is untouched.
func (s *MealService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.current = nil
	s.generation++
}

// apply runs mutate on a copy of the addressed meal, re-sums its totals and
// installs the copy into history and current in one critical section, so a
// reader never sees a new item list paired with stale totals.
func (s *MealService) apply(mealID string, mutate func(*domain.MealAnalysis) bool) (domain.MealAnalysis, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meal, ok := s.lookupLocked(mealID)
	if !ok {
		return domain.MealAnalysis{}, false
	}

	updated := meal
	updated.FoodItems = make([]domain.FoodItem, len(meal.FoodItems))
	copy(updated.FoodItems, meal.FoodItems)

	if !mutate(&updated) {
		return domain.MealAnalysis{}, false
	}
	resum(&updated)

	for i := range s.history {
		if s.history[i].ID == mealID {
			s.history[i] = updated
			break
		}
	}
	if s.current != nil && s.current.ID == mealID {
		installed := updated
		s.current = &installed
	}

	return updated, true
}

// lookupLocked finds a meal in the history, falling back to the current
// record. Caller holds s.mu.
func (s *MealService) lookupLocked(mealID string) (domain.MealAnalysis, bool) {
	for _, m := range s.history {
		if m.ID == mealID {
			return m, true
		}
	}
	if s.current != nil && s.current.ID == mealID {
		return *s.current, true
	}
	return domain.MealAnalysis{}, false
}

// resum recomputes the four aggregate totals as the exact sum over the item
// list. Always a full re-sum, never an incremental adjustment.
func resum(m *domain.MealAnalysis) {
	m.TotalCalories, m.ProteinGrams, m.CarbsGrams, m.FatGrams = 0, 0, 0, 0
	for _, item := range m.FoodItems {
		m.TotalCalories += item.Calories
		m.ProteinGrams += item.ProteinGrams
		m.CarbsGrams += item.CarbsGrams
		m.FatGrams += item.FatGrams
	}
}

// SetGuestSink installs a destination for unauthenticated history, mirrored
// after every successful mutation while no user is attached.
func (s *MealService) SetGuestSink(sink func([]domain.MealAnalysis)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guestSink = sink
}

func (s *MealService) persist(ctx context.Context, meal domain.MealAnalysis) {
	s.mu.Lock()
	attached, username := s.attached, s.username
	sink := s.guestSink
	var snapshot []domain.MealAnalysis
	if !attached && sink != nil {
		snapshot = make([]domain.MealAnalysis, len(s.history))
		copy(snapshot, s.history)
	}
	s.mu.Unlock()

	if !attached {
		if sink != nil {
			sink(snapshot)
		}
		return
	}
	if err := s.ledger.Upsert(ctx, username, meal); err != nil {
		logger.Warn("Failed to persist meal", "meal_id", meal.ID, "error", err)
	}
}

func (s *MealService) lockMeal(mealID string) func() {
	s.editMu.Lock()
	lock, ok := s.editLocks[mealID]
	if !ok {
		lock = &sync.Mutex{}
		s.editLocks[mealID] = lock
	}
	s.editMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
