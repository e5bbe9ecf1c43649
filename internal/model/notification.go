package model

import "time"

// Notification is an alert surfaced to a user, such as the confirmation
// that a task was created.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// UserID is the recipient.
	UserID string `json:"user_id" db:"user_id"`

	// TaskID links the notification to a task, when there is one.
	TaskID string `json:"task_id,omitempty" db:"task_id"`

	Title string `json:"title" db:"title"`
	Body  string `json:"body" db:"body"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
