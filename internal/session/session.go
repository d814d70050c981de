// Package session holds the explicit application state for one user
// session: authentication flags, the active view and the meal engine. All
// mutation goes through methods here; there is no ambient global state.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
	"github.com/nutrisnap/nutrisnap/internal/logger"
	"github.com/nutrisnap/nutrisnap/internal/services"
	"github.com/nutrisnap/nutrisnap/internal/storage"
)

const (
	authKeyPrefix     = "nutrisnap_auth_"
	usernameKeyPrefix = "nutrisnap_username_"
	guestKeyPrefix    = "nutrisnap_history_"
)

// Session is the view/session controller for one scope (one chat). The
// auth flag and username are mirrored into durable storage so a session
// survives restarts; guest history is mirrored under its own key and is
// dropped on login and logout.
type Session struct {
	scope  string
	kv     storage.KV
	creds  domain.CredentialStore
	ledger domain.MealLedger
	meals  *services.MealService

	mu       sync.Mutex
	loggedIn bool
	username string
	view     domain.View
}

func New(scope string, kv storage.KV, creds domain.CredentialStore, ledger domain.MealLedger, meals *services.MealService) *Session {
	s := &Session{
		scope:  scope,
		kv:     kv,
		creds:  creds,
		ledger: ledger,
		meals:  meals,
		view:   domain.ViewHome,
	}
	meals.SetGuestSink(s.saveGuestHistory)
	return s
}

// Meals exposes the session's reconciliation engine.
func (s *Session) Meals() *services.MealService {
	return s.meals
}

// Register creates an account. It does not log the user in.
func (s *Session) Register(ctx context.Context, username, password string) error {
	return s.creds.Register(ctx, username, password)
}

// Login verifies credentials and replaces any guest history with the
// user's ledger contents. Ids for legacy records are assigned during the
// ledger load.
func (s *Session) Login(ctx context.Context, username, password string) error {
	record, err := s.creds.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}

	history, err := s.ledger.Fetch(ctx, record.Username)
	if err != nil {
		return err
	}

	s.meals.Replace(history)
	s.meals.Attach(record.Username)

	s.mu.Lock()
	s.loggedIn = true
	s.username = record.Username
	s.view = domain.ViewHome
	s.mu.Unlock()

	s.mirrorAuth(ctx, record.Username)
	return nil
}

// Logout discards all in-memory meal data. The ledger is untouched.
func (s *Session) Logout(ctx context.Context) {
	s.meals.Detach()
	s.meals.Reset()

	s.mu.Lock()
	s.loggedIn = false
	s.username = ""
	s.view = domain.ViewHome
	s.mu.Unlock()

	if err := s.kv.Delete(ctx, authKeyPrefix+s.scope); err != nil {
		logger.Warn("Failed to clear auth flag", "scope", s.scope, "error", err)
	}
	if err := s.kv.Delete(ctx, usernameKeyPrefix+s.scope); err != nil {
		logger.Warn("Failed to clear username flag", "scope", s.scope, "error", err)
	}
}

// Restore re-establishes session state from the mirrored flags, falling
// back to saved guest history when no authenticated session was mirrored.
func (s *Session) Restore(ctx context.Context) {
	flag, err := s.kv.Get(ctx, authKeyPrefix+s.scope)
	if err == nil && flag == "true" {
		username, err := s.kv.Get(ctx, usernameKeyPrefix+s.scope)
		if err == nil && username != "" {
			history, err := s.ledger.Fetch(ctx, username)
			if err != nil {
				logger.Warn("Failed to restore ledger history", "username", username, "error", err)
				history = nil
			}
			s.meals.Replace(history)
			s.meals.Attach(username)

			s.mu.Lock()
			s.loggedIn = true
			s.username = username
			s.mu.Unlock()
			return
		}
	}

	s.meals.Replace(s.loadGuestHistory(ctx))
}

// SetView switches among the three screens.
func (s *Session) SetView(view domain.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = view
}

func (s *Session) View() domain.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

func (s *Session) mirrorAuth(ctx context.Context, username string) {
	if err := s.kv.Set(ctx, authKeyPrefix+s.scope, "true"); err != nil {
		logger.Warn("Failed to mirror auth flag", "scope", s.scope, "error", err)
	}
	if err := s.kv.Set(ctx, usernameKeyPrefix+s.scope, username); err != nil {
		logger.Warn("Failed to mirror username", "scope", s.scope, "error", err)
	}
}

func (s *Session) saveGuestHistory(history []domain.MealAnalysis) {
	data, err := json.Marshal(history)
	if err != nil {
		logger.Warn("Failed to serialize guest history", "error", err)
		return
	}
	if err := s.kv.Set(context.Background(), guestKeyPrefix+s.scope, string(data)); err != nil {
		logger.Warn("Failed to save guest history", "scope", s.scope, "error", err)
	}
}

func (s *Session) loadGuestHistory(ctx context.Context) []domain.MealAnalysis {
	raw, err := s.kv.Get(ctx, guestKeyPrefix+s.scope)
	if err != nil {
		if !errors.Is(err, apperrors.ErrKeyNotFound) {
			logger.Warn("Failed to load guest history", "scope", s.scope, "error", err)
		}
		return nil
	}

	var history []domain.MealAnalysis
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		logger.Warn("Discarding corrupt guest history", "scope", s.scope, "error", err)
		return nil
	}
	return history
}

// Manager hands out one session per scope.
type Manager struct {
	kv     storage.KV
	creds  domain.CredentialStore
	ledger domain.MealLedger
	build  func() *services.MealService

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(kv storage.KV, creds domain.CredentialStore, ledger domain.MealLedger, build func() *services.MealService) *Manager {
	return &Manager{
		kv:       kv,
		creds:    creds,
		ledger:   ledger,
		build:    build,
		sessions: make(map[string]*Session),
	}
}

// ForChat returns the session for a chat, creating and restoring it on
// first use.
func (m *Manager) ForChat(ctx context.Context, chatID int64) *Session {
	scope := fmt.Sprintf("%d", chatID)

	m.mu.Lock()
	if sess, ok := m.sessions[scope]; ok {
		m.mu.Unlock()
		return sess
	}
	sess := New(scope, m.kv, m.creds, m.ledger, m.build())
	m.sessions[scope] = sess
	m.mu.Unlock()

	sess.Restore(ctx)
	return sess
}
