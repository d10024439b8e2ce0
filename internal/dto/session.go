package dto

import (
	"time"

	"github.com/TomaX04/Voz-del-Caser-o/internal/models"
)

// StartSessionRequest captures POST /session.
type StartSessionRequest struct {
	Name     string `json:"name" validate:"max=80"`
	Role     string `json:"role" validate:"omitempty,oneof=resident moderator admin"`
	Passcode string `json:"passcode"`
}

// SessionResponse returns the current actor and, when a session was started,
// the token to present on later requests.
type SessionResponse struct {
	Actor       models.Actor `json:"actor"`
	AccessToken string       `json:"access_token,omitempty"`
	ExpiresIn   int64        `json:"expires_in,omitempty"`
	IssuedAt    *time.Time   `json:"issued_at,omitempty"`
}
