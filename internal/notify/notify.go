// Package notify delivers user-facing events such as "task created" to
// the notification inbox and to subscribers on a NATS bus.
package notify

import (
	"context"
	"errors"
	"time"
)

// Kind names an event.
type Kind string

const (
	// KindTaskCreated fires after a task is persisted.
	KindTaskCreated Kind = "task.created"
	// KindTutorialSkipped fires when the user skips the intro tutorial.
	KindTutorialSkipped Kind = "tutorial.skipped"
)

// Event is a notification about something a user did.
type Event struct {
	Kind   Kind      `json:"kind"`
	UserID string    `json:"user_id"`
	TaskID string    `json:"task_id,omitempty"`
	Title  string    `json:"title"`
	At     time.Time `json:"at"`
}

// Notifier receives events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// message returns the inbox title and body for an event.
func message(ev Event) (string, string) {
	switch ev.Kind {
	case KindTaskCreated:
		return "Task created", "\"" + ev.Title + "\" was added to your tasks."
	case KindTutorialSkipped:
		return "Tutorial skipped", "You can reopen the tutorial from the help screen at any time."
	default:
		return string(ev.Kind), ev.Title
	}
}
