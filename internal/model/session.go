package model

import "time"

// WatchdogState is a snapshot of an idle watchdog.
type WatchdogState struct {
	Armed    bool       `json:"armed"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// SessionState is what GET /session reports to the client.
type SessionState struct {
	UserID     string        `json:"user_id"`
	Subscribed bool          `json:"subscribed"`
	Watchdog   WatchdogState `json:"watchdog"`
	// RedirectTo is set once the session was ended by the idle watchdog.
	RedirectTo string `json:"redirect_to,omitempty"`
	// Alerts raised on the way out that were not drained yet.
	Alerts []Alert `json:"alerts,omitempty"`
}

// ActivityRequest is the body of POST /session/activity.
type ActivityRequest struct {
	Signal string `json:"signal" binding:"required,activity_signal"`
}

// CreateNotificationRequest is the body of POST /notifications.
type CreateNotificationRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
}
