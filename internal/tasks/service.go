// Package tasks applies the task progress model to persisted tasks.
// Every mutation loads the task document, changes it through the model
// (which re-derives completion and progress) and writes the whole
// document back.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/notify"
	"github.com/nhle/focusflow/internal/store"
)

// CreateInput is the user's input for a new task.
type CreateInput struct {
	Title       string
	Description string
	Priority    model.Priority

	// SubItems may arrive already completed; the task's completion and
	// progress are derived from them.
	SubItems []model.SubItem
}

// DetailsInput carries the editable descriptive fields of a task.
type DetailsInput struct {
	Title       string
	Description string
	Priority    model.Priority
}

// Summary aggregates a user's tasks for the list header.
type Summary struct {
	Total           int `json:"total"`
	Completed       int `json:"completed"`
	AverageProgress int `json:"average_progress"`
}

// Service is the owner-scoped task API used by the UI and HTTP server.
type Service struct {
	store    store.Store
	notifier notify.Notifier
	logger   *slog.Logger
	locks    keyedMutex
}

// NewService creates a task service. A nil notifier disables
// notifications.
func NewService(s store.Store, notifier notify.Notifier, logger *slog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    s,
		notifier: notifier,
		logger:   logger.With("component", "tasks"),
	}
}

// Create validates the input, stores a new task for owner and emits
// the task-created event. Notification failures are logged only.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (*model.Task, error) {
	items := make([]model.SubItem, 0, len(in.SubItems))
	for _, it := range in.SubItems {
		items = append(items, model.SubItem{Name: strings.TrimSpace(it.Name), Complete: it.Complete})
	}
	if err := model.ValidateTaskCreation(in.Title, in.Description, items); err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.Name == "" {
			return nil, model.ErrEmptySubItemName
		}
	}
	priority, err := normalizePriority(in.Priority)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		OwnerID:     owner,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		SubItems:    items,
	}
	task.Reconcile()

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	s.logger.Info("task created", "task_id", task.ID, "owner", owner, "subitems", len(items))

	ev := notify.Event{
		Kind:   notify.KindTaskCreated,
		UserID: owner,
		TaskID: task.ID,
		Title:  task.Title,
		At:     time.Now(),
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.Warn("task created notification failed", "task_id", task.ID, "error", err)
	}
	return task, nil
}

// Get returns one of owner's tasks. Tasks of other users are reported
// as not found.
func (s *Service) Get(ctx context.Context, owner, id string) (*model.Task, error) {
	task, err := s.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != owner {
		return nil, fmt.Errorf("task %s: %w", id, store.ErrNotFound)
	}
	return task, nil
}

// List returns owner's tasks. The owner filter always applies.
func (s *Service) List(ctx context.Context, owner string, filter store.TaskFilter) ([]model.Task, error) {
	filter.OwnerID = &owner
	return s.store.ListTasks(ctx, filter)
}

// ToggleSubItem flips a sub-item and re-derives the task state.
func (s *Service) ToggleSubItem(ctx context.Context, owner, id string, index int) (*model.Task, error) {
	return s.mutate(ctx, owner, id, func(t *model.Task) error {
		return t.ToggleSubItem(index)
	})
}

// AddSubItem appends an incomplete sub-item.
func (s *Service) AddSubItem(ctx context.Context, owner, id, name string) (*model.Task, error) {
	return s.mutate(ctx, owner, id, func(t *model.Task) error {
		return t.AddSubItem(name)
	})
}

// RemoveSubItem deletes the sub-item at index.
func (s *Service) RemoveSubItem(ctx context.Context, owner, id string, index int) (*model.Task, error) {
	return s.mutate(ctx, owner, id, func(t *model.Task) error {
		return t.RemoveSubItem(index)
	})
}

// RenameSubItem relabels the sub-item at index.
func (s *Service) RenameSubItem(ctx context.Context, owner, id string, index int, name string) (*model.Task, error) {
	return s.mutate(ctx, owner, id, func(t *model.Task) error {
		return t.RenameSubItem(index, name)
	})
}

// ReplaceSubItems saves an edited sub-item list in one write.
func (s *Service) ReplaceSubItems(ctx context.Context, owner, id string, items []model.SubItem) (*model.Task, error) {
	return s.mutate(ctx, owner, id, func(t *model.Task) error {
		return t.ReplaceSubItems(items)
	})
}

// SetComplete marks a task without sub-items complete or incomplete.
func (s *Service) SetComplete(ctx context.Context, owner, id string, complete bool) (*model.Task, error) {
	return s.mutate(ctx, owner, id, func(t *model.Task) error {
		return t.SetComplete(complete)
	})
}

// UpdateDetails edits title, description and priority.
func (s *Service) UpdateDetails(ctx context.Context, owner, id string, in DetailsInput) (*model.Task, error) {
	if err := model.ValidateTaskDetails(in.Title, in.Description); err != nil {
		return nil, err
	}
	priority, err := normalizePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, owner, id, func(t *model.Task) error {
		t.Title = strings.TrimSpace(in.Title)
		t.Description = strings.TrimSpace(in.Description)
		t.Priority = priority
		return nil
	})
}

// Delete removes one of owner's tasks.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.logger.Info("task deleted", "task_id", id, "owner", owner)
	return nil
}

// Summary counts owner's tasks and averages their progress, rounding
// half up.
func (s *Service) Summary(ctx context.Context, owner string) (Summary, error) {
	tasks, err := s.List(ctx, owner, store.TaskFilter{})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(tasks), nil
}

// Summarize aggregates an already loaded task list.
func Summarize(tasks []model.Task) Summary {
	sum := Summary{Total: len(tasks)}
	if sum.Total == 0 {
		return sum
	}
	progress := 0
	for _, t := range tasks {
		if t.Complete {
			sum.Completed++
		}
		progress += t.Progress
	}
	sum.AverageProgress = (2*progress + sum.Total) / (2 * sum.Total)
	return sum
}

// mutate serializes edits of one task, applies fn and writes the whole
// document back. The store itself stays last-write-wins.
func (s *Service) mutate(
	ctx context.Context,
	owner, id string,
	fn func(*model.Task) error,
) (*model.Task, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	task, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := fn(task); err != nil {
		return nil, err
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("saving task %s: %w", id, err)
	}
	s.logger.Debug("task updated", "task_id", id, "progress", task.Progress, "complete", task.Complete)
	return task, nil
}

func normalizePriority(p model.Priority) (model.Priority, error) {
	if p == "" {
		return model.PriorityMedium, nil
	}
	if p.Valid() {
		return p, nil
	}
	return model.ParsePriority(string(p))
}
