package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/focusflow/internal/notify"
	"github.com/nhle/focusflow/tests/testutil"
)

type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

type failing struct{ err error }

func (f failing) Notify(context.Context, notify.Event) error { return f.err }

func TestNATSNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := notify.NewNATSNotifier(pub, "focusflow")

	ev := notify.Event{
		Kind:   notify.KindTaskCreated,
		UserID: "u1",
		TaskID: "t1",
		Title:  "Study",
		At:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, n.Notify(context.Background(), ev))

	require.Equal(t, []string{"focusflow.task.created"}, pub.subjects)
	var got notify.Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, ev, got)
}

func TestNATSNotifierPublishError(t *testing.T) {
	n := notify.NewNATSNotifier(&fakePublisher{err: errors.New("down")}, "")
	err := n.Notify(context.Background(), notify.Event{Kind: notify.KindTutorialSkipped})
	assert.ErrorContains(t, err, "publishing tutorial.skipped")
}

func TestStoreNotifierWritesInbox(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	u := testutil.CreateUser(t, s, "ana@example.com")

	n := notify.NewStoreNotifier(s)
	require.NoError(t, n.Notify(ctx, notify.Event{
		Kind: notify.KindTaskCreated, UserID: u.ID, TaskID: "t1", Title: "Study", At: time.Now(),
	}))

	inbox, err := s.ListNotifications(ctx, u.ID, true)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Task created", inbox[0].Title)
	assert.Contains(t, inbox[0].Body, "Study")
	assert.Equal(t, "t1", inbox[0].TaskID)
}

func TestMultiJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	pub := &fakePublisher{}
	m := notify.Multi{failing{errA}, notify.NewNATSNotifier(pub, "x"), failing{errB}}

	err := m.Notify(context.Background(), notify.Event{Kind: notify.KindTaskCreated})
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Len(t, pub.subjects, 1, "healthy notifiers still receive the event")

	assert.NoError(t, notify.Multi{notify.Nop{}}.Notify(context.Background(), notify.Event{}))
}
