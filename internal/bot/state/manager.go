package state

import "sync"

// Chat input states
const (
	None                       = "none"
	WaitingForMealText         = "waiting_for_meal_text"
	WaitingForDate             = "waiting_for_date"
	WaitingForItemQuantity     = "waiting_for_item_quantity"
	WaitingForNewItem          = "waiting_for_new_item"
	WaitingForLoginUsername    = "waiting_for_login_username"
	WaitingForLoginPassword    = "waiting_for_login_password"
	WaitingForRegisterUsername = "waiting_for_register_username"
	WaitingForRegisterPassword = "waiting_for_register_password"
)

// Temp data keys
const (
	TempSelectedDate     = "selected_date"
	TempLoginUsername    = "login_username"
	TempRegisterUsername = "register_username"
	TempEditMealID       = "edit_meal_id"
	TempEditItemIndex    = "edit_item_index"
)

// StateManager tracks what input a chat is currently expected to provide,
// plus small per-chat scratch values.
type StateManager interface {
	SetUserState(chatID int64, state string)
	GetUserState(chatID int64) string
	ClearUserState(chatID int64)
	SetTempData(chatID int64, key string, value string)
	GetTempData(chatID int64, key string) (string, bool)
	ClearTempData(chatID int64)
}

// Manager is the in-memory StateManager.
type Manager struct {
	userStates map[int64]string
	tempData   map[int64]map[string]string
	mu         sync.RWMutex
}

// NewManager creates a new state manager
func NewManager() *Manager {
	return &Manager{
		userStates: make(map[int64]string),
		tempData:   make(map[int64]map[string]string),
	}
}

// SetUserState sets the state for a chat
func (m *Manager) SetUserState(chatID int64, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userStates[chatID] = state
}

// GetUserState gets the state for a chat
func (m *Manager) GetUserState(chatID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, exists := m.userStates[chatID]
	if !exists {
		return None
	}
	return state
}

// ClearUserState clears the state for a chat
func (m *Manager) ClearUserState(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userStates, chatID)
}

// SetTempData sets a scratch value for a chat
func (m *Manager) SetTempData(chatID int64, key string, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tempData[chatID] == nil {
		m.tempData[chatID] = make(map[string]string)
	}
	m.tempData[chatID][key] = value
}

// GetTempData gets a scratch value for a chat
func (m *Manager) GetTempData(chatID int64, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chatData, exists := m.tempData[chatID]
	if !exists {
		return "", false
	}
	value, exists := chatData[key]
	return value, exists
}

// ClearTempData clears all scratch values for a chat
func (m *Manager) ClearTempData(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tempData, chatID)
}
