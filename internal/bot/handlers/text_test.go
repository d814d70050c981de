package handlers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/nutrisnap/nutrisnap/internal/errors"
)

func TestRegisterFailureMessage(t *testing.T) {
	assert.Equal(t, "Username already taken. Pick another one.",
		registerFailureMessage(apperrors.ErrUsernameTaken))

	// Anything else stays generic so storage details never reach the chat.
	assert.Equal(t, "Registration failed. Please try again.",
		registerFailureMessage(apperrors.NewStorageError(fmt.Errorf("disk full"))))
	assert.Equal(t, "Registration failed. Please try again.",
		registerFailureMessage(fmt.Errorf("plain error")))
}

func TestSplitItemInput(t *testing.T) {
	tests := []struct {
		input    string
		name     string
		quantity string
		ok       bool
	}{
		{"orange juice | 1 glass", "orange juice", "1 glass", true},
		{"toast, 2 slices", "toast", "2 slices", true},
		{"just a name", "", "", false},
		{" | 1 glass", "", "", false},
		{"toast | ", "", "", false},
	}

	for _, tt := range tests {
		name, quantity, ok := splitItemInput(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.name, name, tt.input)
		assert.Equal(t, tt.quantity, quantity, tt.input)
	}
}
