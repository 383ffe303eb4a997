package notification

// CreateNotificationInput is the admin payload for pushing a notification
// onto an account.
type CreateNotificationInput struct {
	Type    string `json:"type" binding:"required,oneof=welcome feature_update credit_low system"`
	Title   string `json:"title" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=2000"`
	// UserID targets another account; defaults to the caller.
	UserID *uint `json:"user_id,omitempty"`
}
