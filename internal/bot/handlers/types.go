package handlers

import (
	"github.com/nutrisnap/nutrisnap/internal/session"
)

// Dependencies holds the service dependencies for handlers
type Dependencies struct {
	Sessions *session.Manager
}
