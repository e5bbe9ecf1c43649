package notify

import (
	"context"
	"fmt"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/store"
)

// StoreNotifier records events in the user's notification inbox.
type StoreNotifier struct {
	store store.Store
}

// NewStoreNotifier creates a notifier backed by s.
func NewStoreNotifier(s store.Store) *StoreNotifier {
	return &StoreNotifier{store: s}
}

func (n *StoreNotifier) Notify(ctx context.Context, ev Event) error {
	title, body := message(ev)
	err := n.store.CreateNotification(ctx, model.Notification{
		UserID:    ev.UserID,
		TaskID:    ev.TaskID,
		Title:     title,
		Body:      body,
		CreatedAt: ev.At,
	})
	if err != nil {
		return fmt.Errorf("storing %s notification: %w", ev.Kind, err)
	}
	return nil
}
