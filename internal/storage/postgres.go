package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nutrisnap/nutrisnap/internal/config"
	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
)

// KVEntry is the gorm model for a stored blob.
type KVEntry struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// PostgresKV stores blobs in a Postgres table, for shared deployments.
type PostgresKV struct {
	db *gorm.DB
}

func NewPostgresKV(cfg config.DBConfig) (*PostgresKV, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &PostgresKV{db: db}, nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	var entry KVEntry
	err := p.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.ErrKeyNotFound
	}
	if err != nil {
		return "", apperrors.NewStorageError(err)
	}
	return entry.Value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key, value string) error {
	entry := KVEntry{Key: key, Value: value}
	err := p.db.WithContext(ctx).Save(&entry).Error
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	if err := p.db.WithContext(ctx).Delete(&KVEntry{}, "key = ?", key).Error; err != nil {
		return apperrors.NewStorageError(err)
	}
	return nil
}

func (p *PostgresKV) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
