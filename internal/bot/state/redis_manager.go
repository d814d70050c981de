package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateTTL auto-expires abandoned input flows.
const stateTTL = 24 * time.Hour

// RedisManager is the Redis-backed StateManager, for deployments where the
// bot process may be restarted or scaled.
type RedisManager struct {
	client *redis.Client
}

// NewRedisManager creates a new Redis-based state manager
func NewRedisManager(redisHost, redisPort string) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisHost, redisPort),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisManager{client: client}, nil
}

// SetUserState sets the state for a chat with TTL
func (m *RedisManager) SetUserState(chatID int64, state string) {
	ctx := context.Background()
	m.client.Set(ctx, stateKey(chatID), state, stateTTL)
}

// GetUserState gets the state for a chat
func (m *RedisManager) GetUserState(chatID int64) string {
	ctx := context.Background()
	result := m.client.Get(ctx, stateKey(chatID))
	if result.Err() != nil {
		return None
	}
	return result.Val()
}

// ClearUserState clears the state for a chat
func (m *RedisManager) ClearUserState(chatID int64) {
	ctx := context.Background()
	m.client.Del(ctx, stateKey(chatID))
}

// SetTempData sets a scratch value for a chat
func (m *RedisManager) SetTempData(chatID int64, key string, value string) {
	tempData := m.getTempDataMap(chatID)
	if tempData == nil {
		tempData = make(map[string]string)
	}
	tempData[key] = value
	m.saveTempDataMap(chatID, tempData)
}

// GetTempData gets a scratch value for a chat
func (m *RedisManager) GetTempData(chatID int64, key string) (string, bool) {
	tempData := m.getTempDataMap(chatID)
	if tempData == nil {
		return "", false
	}
	value, exists := tempData[key]
	return value, exists
}

// ClearTempData clears all scratch values for a chat
func (m *RedisManager) ClearTempData(chatID int64) {
	ctx := context.Background()
	m.client.Del(ctx, tempKey(chatID))
}

// Close closes the Redis connection
func (m *RedisManager) Close() error {
	return m.client.Close()
}

func stateKey(chatID int64) string {
	return fmt.Sprintf("chat:%d:state", chatID)
}

func tempKey(chatID int64) string {
	return fmt.Sprintf("chat:%d:temp", chatID)
}

func (m *RedisManager) getTempDataMap(chatID int64) map[string]string {
	ctx := context.Background()

	result := m.client.Get(ctx, tempKey(chatID))
	if result.Err() != nil {
		return nil
	}

	var tempData map[string]string
	if err := json.Unmarshal([]byte(result.Val()), &tempData); err != nil {
		return nil
	}
	return tempData
}

func (m *RedisManager) saveTempDataMap(chatID int64, tempData map[string]string) {
	ctx := context.Background()

	data, err := json.Marshal(tempData)
	if err != nil {
		return
	}
	m.client.Set(ctx, tempKey(chatID), data, stateTTL)
}
