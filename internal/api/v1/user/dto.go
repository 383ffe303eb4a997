package user

import "aichat-backend/internal/models"

// UserResponse defines the response structure for authentication endpoints.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Credits  int64  `json:"credits"`
	Token    string `json:"token,omitempty"`
}

// ProfileResponse mirrors the stored account: identity, balance, and the
// full notification list.
type ProfileResponse struct {
	ID            uint                  `json:"id"`
	Username      string                `json:"username"`
	Credits       int64                 `json:"credits"`
	Notifications []models.Notification `json:"notifications"`
}

// CreditsResponse carries the balance after a ledger operation. It is also
// attached to insufficient-credit failures so the client can render the
// balance without a second lookup.
type CreditsResponse struct {
	Credits int64 `json:"credits"`
}

type AdjustCreditsInput struct {
	// Amount is a pointer so a zero delta still passes validation.
	Amount *int64 `json:"amount" binding:"required"`
	// UserID targets another account; defaults to the caller.
	UserID *uint `json:"user_id,omitempty"`
}
