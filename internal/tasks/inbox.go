package tasks

import (
	"context"
	"fmt"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/store"
)

// Inbox returns owner's notifications, newest first.
func (s *Service) Inbox(ctx context.Context, owner string, unreadOnly bool) ([]model.Notification, error) {
	return s.store.ListNotifications(ctx, owner, unreadOnly)
}

// MarkRead marks one of owner's notifications as read.
func (s *Service) MarkRead(ctx context.Context, owner, id string) error {
	all, err := s.store.ListNotifications(ctx, owner, false)
	if err != nil {
		return err
	}
	for _, n := range all {
		if n.ID == id {
			return s.store.MarkNotificationRead(ctx, id)
		}
	}
	return fmt.Errorf("notification %s: %w", id, store.ErrNotFound)
}
