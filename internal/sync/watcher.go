package sync

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/store"
)

// WatchState represents the current state of the watcher.
type WatchState int

const (
	WatchIdle WatchState = iota
	WatchRunning
	WatchError
)

// Status holds the watcher's last fetch outcome.
type Status struct {
	State    WatchState
	LastSync time.Time
	Error    error
}

// SnapshotMsg is a tea.Msg carrying the owner's current task list. It
// is only sent when the list differs from the previous snapshot, or
// when a fetch fails.
type SnapshotMsg struct {
	Tasks []model.Task
	Error error
}

// Lister loads an owner's tasks; *tasks.Service satisfies it.
type Lister interface {
	List(ctx context.Context, owner string, filter store.TaskFilter) ([]model.Task, error)
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Watcher polls one owner's tasks in the background and reports changed
// snapshots to the Bubble Tea runtime.
type Watcher struct {
	lister   Lister
	owner    string
	filter   store.TaskFilter
	interval time.Duration
	logger   *slog.Logger

	resultCh  chan SnapshotMsg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu          gosync.Mutex
	running     bool
	status      Status
	fingerprint uint64
	hasSnapshot bool
}

// New creates a watcher for owner's tasks, sorted by the given filter.
func New(lister Lister, owner string, filter store.TaskFilter, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		lister:    lister,
		owner:     owner,
		filter:    filter,
		interval:  interval,
		logger:    logger.With("component", "watcher"),
		resultCh:  make(chan SnapshotMsg, 16),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start launches the polling goroutine and returns a command waiting
// for the first snapshot.
func (w *Watcher) Start() tea.Cmd {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()

	go w.poll(stop)

	return w.waitForResult()
}

// Stop halts the polling goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	close(w.stopCh)
	w.running = false
}

// Refresh triggers an immediate fetch, e.g. after a local edit.
func (w *Watcher) Refresh() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
}

// SetFilter changes the sort and filter of future snapshots and
// forces the next one to be delivered.
func (w *Watcher) SetFilter(filter store.TaskFilter) {
	w.mu.Lock()
	w.filter = filter
	w.hasSnapshot = false
	w.mu.Unlock()
	w.Refresh()
}

// Status returns the watcher's current status.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// WaitForNext returns a tea.Cmd that waits for the next snapshot. Call
// it after handling each SnapshotMsg to keep listening.
func (w *Watcher) WaitForNext() tea.Cmd {
	return w.waitForResult()
}

func (w *Watcher) poll(stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Initial fetch right away.
	w.fetch()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.fetch()
		case <-w.triggerCh:
			w.fetch()
		}
	}
}

// fetch loads the snapshot and sends it when it changed.
func (w *Watcher) fetch() {
	w.mu.Lock()
	w.status.State = WatchRunning
	filter := w.filter
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	tasks, err := w.lister.List(ctx, w.owner, filter)
	if err != nil {
		w.mu.Lock()
		w.status.State = WatchError
		w.status.Error = err
		w.mu.Unlock()
		w.logger.Warn("fetching tasks failed", "owner", w.owner, "error", err)
		w.send(SnapshotMsg{Error: err})
		return
	}

	fp := fingerprint(tasks)

	w.mu.Lock()
	changed := !w.hasSnapshot || fp != w.fingerprint
	w.fingerprint = fp
	w.hasSnapshot = true
	w.status = Status{State: WatchIdle, LastSync: time.Now()}
	w.mu.Unlock()

	if changed && !w.send(SnapshotMsg{Tasks: tasks}) {
		// The UI never saw this snapshot; resend it on the next fetch.
		w.mu.Lock()
		w.hasSnapshot = false
		w.mu.Unlock()
	}
}

// send delivers msg without blocking the poller. It reports false when
// the channel is full and msg was dropped.
func (w *Watcher) send(msg SnapshotMsg) bool {
	select {
	case w.resultCh <- msg:
		return true
	default:
		w.logger.Debug("snapshot dropped, consumer is behind", "owner", w.owner)
		return false
	}
}

func (w *Watcher) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-w.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// fingerprint hashes the JSON form of a snapshot.
func fingerprint(tasks []model.Task) uint64 {
	h := fnv.New64a()
	_ = json.NewEncoder(h).Encode(tasks)
	return h.Sum64()
}
