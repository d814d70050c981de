package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/nutrisnap/nutrisnap/internal/domain"
	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
	"github.com/nutrisnap/nutrisnap/internal/logger"
	"github.com/nutrisnap/nutrisnap/internal/storage"
)

const (
	usersDBKey = "nutrisnap_users_db"

	pbkdf2Iterations = 100000
	saltBytes        = 16
	keyBytes         = 32
)

// AuthService maps lowercase usernames to salted password-hash records.
// Registration and verification only; no tokens, no password reset.
type AuthService struct {
	kv storage.KV
}

func NewAuthService(kv storage.KV) *AuthService {
	return &AuthService{kv: kv}
}

// Register creates an account. Fails with ErrUsernameTaken if a
// case-insensitive match already exists.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	db, err := s.loadDB(ctx)
	if err != nil {
		return err
	}

	key := strings.ToLower(username)
	if _, exists := db[key]; exists {
		return apperrors.ErrUsernameTaken
	}

	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return apperrors.NewInternalError(err)
	}

	db[key] = domain.UserRecord{
		Username:     username, // display casing preserved
		Salt:         hex.EncodeToString(salt),
		PasswordHash: hashPassword(password, salt),
	}

	return s.saveDB(ctx, db)
}

// Authenticate verifies credentials. The returned error is identical for an
// unknown username and a wrong password.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.UserRecord, error) {
	db, err := s.loadDB(ctx)
	if err != nil {
		return nil, err
	}

	record, exists := db[strings.ToLower(username)]
	if !exists {
		return nil, apperrors.ErrInvalidCredentials
	}

	salt, err := hex.DecodeString(record.Salt)
	if err != nil {
		logger.Warn("Corrupt salt for user record", "username", record.Username)
		return nil, apperrors.ErrInvalidCredentials
	}

	attempt := hashPassword(password, salt)
	if subtle.ConstantTimeCompare([]byte(attempt), []byte(record.PasswordHash)) != 1 {
		return nil, apperrors.ErrInvalidCredentials
	}

	return &record, nil
}

func hashPassword(password string, salt []byte) string {
	derived := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyBytes, sha256.New)
	return hex.EncodeToString(derived)
}

func (s *AuthService) loadDB(ctx context.Context) (map[string]domain.UserRecord, error) {
	raw, err := s.kv.Get(ctx, usersDBKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrKeyNotFound) {
			return map[string]domain.UserRecord{}, nil
		}
		return nil, err
	}

	var db map[string]domain.UserRecord
	if err := json.Unmarshal([]byte(raw), &db); err != nil {
		logger.Warn("Discarding corrupt users database", "error", err)
		return map[string]domain.UserRecord{}, nil
	}
	if db == nil {
		db = map[string]domain.UserRecord{}
	}
	return db, nil
}

func (s *AuthService) saveDB(ctx context.Context, db map[string]domain.UserRecord) error {
	data, err := json.Marshal(db)
	if err != nil {
		return fmt.Errorf("failed to serialize users database: %w", err)
	}
	return s.kv.Set(ctx, usersDBKey, string(data))
}
