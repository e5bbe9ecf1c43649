package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/focusflow/internal/notify"
)

// PrefHasSeenIntro records that the intro tutorial was shown.
const PrefHasSeenIntro = "has_seen_intro"

// HasSeenIntro reports whether owner already went through the intro.
func (s *Service) HasSeenIntro(ctx context.Context, owner string) (bool, error) {
	v, ok, err := s.store.GetPreference(ctx, owner, PrefHasSeenIntro)
	if err != nil {
		return false, fmt.Errorf("reading intro flag: %w", err)
	}
	return ok && v == "true", nil
}

// FinishIntro stores the intro flag. Skipping the tutorial also sends
// the tutorial-skipped notification.
func (s *Service) FinishIntro(ctx context.Context, owner string, skipped bool) error {
	if err := s.store.SetPreference(ctx, owner, PrefHasSeenIntro, "true"); err != nil {
		return fmt.Errorf("saving intro flag: %w", err)
	}
	if !skipped {
		return nil
	}
	ev := notify.Event{Kind: notify.KindTutorialSkipped, UserID: owner, At: time.Now()}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.Warn("tutorial skipped notification failed", "owner", owner, "error", err)
	}
	return nil
}
