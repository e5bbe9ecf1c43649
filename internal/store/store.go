package store

import (
	"context"
	"errors"

	"github.com/nhle/focusflow/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TaskFilter controls filtering, sorting, and pagination for task queries.
type TaskFilter struct {
	OwnerID  *string         // owning user, nil for every owner
	Priority *model.Priority // nil for all priorities
	Complete *bool           // nil for both states
	Query    *string         // search title + description
	SortBy   string          // "created_at", "updated_at", "priority", "title", "progress"
	SortDesc bool
	Limit    int
	Offset   int
}

// Store defines the persistence interface for users, their task
// documents, notifications and per-user preferences.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id string) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	DeleteTasksByOwner(ctx context.Context, ownerID string) (int, error)

	// === Users ===

	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*model.User, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// === Preferences ===

	GetPreference(ctx context.Context, userID, key string) (string, bool, error)
	SetPreference(ctx context.Context, userID, key, value string) error
}
