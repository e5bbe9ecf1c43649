package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/focusflow/internal/model"
)

// taskColumns is the column list shared by every task query.
const taskColumns = `id, owner_id, title, description, priority,
	subitems, complete, progress, created_at, updated_at`

// taskRow is the flat row shape of a task document; sub-items are
// kept as a JSON array using the wire field names.
type taskRow struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Priority    string    `db:"priority"`
	SubItems    string    `db:"subitems"`
	Complete    bool      `db:"complete"`
	Progress    int       `db:"progress"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r taskRow) toModel() (model.Task, error) {
	task := model.Task{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    model.Priority(r.Priority),
		Complete:    r.Complete,
		Progress:    r.Progress,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.SubItems != "" {
		if err := json.Unmarshal([]byte(r.SubItems), &task.SubItems); err != nil {
			return model.Task{}, fmt.Errorf("unmarshaling sub-items of task %s: %w", r.ID, err)
		}
	}
	return task, nil
}

func encodeSubItems(items []model.SubItem) (string, error) {
	if items == nil {
		items = []model.SubItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CreateTask inserts a new task document. The store assigns the ID and
// timestamps and writes them back into task.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return model.ErrEmptyTitle
	}
	if task.OwnerID == "" {
		return fmt.Errorf("task owner must not be empty")
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if !task.Priority.Valid() {
		task.Priority = model.PriorityMedium
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	subitems, err := encodeSubItems(task.SubItems)
	if err != nil {
		return fmt.Errorf("marshaling sub-items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, owner_id, title, description, priority,
			subitems, complete, progress, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.OwnerID, task.Title, task.Description, string(task.Priority),
		subitems, boolToInt(task.Complete), task.Progress,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// UpdateTask replaces the whole task document keyed by ID. The owner
// and creation time are never rewritten.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task *model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return model.ErrEmptyTitle
	}
	if !task.Priority.Valid() {
		return &model.ValidationError{Kind: model.KindInvalidPriority, Detail: string(task.Priority)}
	}

	subitems, err := encodeSubItems(task.SubItems)
	if err != nil {
		return fmt.Errorf("marshaling sub-items: %w", err)
	}

	task.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, priority = ?,
			subitems = ?, complete = ?, progress = ?, updated_at = ?
		WHERE id = ?`,
		task.Title, task.Description, string(task.Priority),
		subitems, boolToInt(task.Complete), task.Progress, task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	return expectAffected(result, "task", task.ID)
}

// DeleteTask removes a task by ID. Sub-items go with it.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return expectAffected(result, "task", id)
}

// DeleteTasksByOwner removes every task owned by ownerID and returns
// how many were deleted.
func (s *SQLiteStore) DeleteTasksByOwner(ctx context.Context, ownerID string) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE owner_id = ?", ownerID)
	if err != nil {
		return 0, fmt.Errorf("deleting tasks of %s: %w", ownerID, err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// GetTaskByID retrieves a single task document by ID.
func (s *SQLiteStore) GetTaskByID(
	ctx context.Context,
	id string,
) (*model.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	task, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks retrieves task documents matching the filter.
func (s *SQLiteStore) ListTasks(
	ctx context.Context,
	filter TaskFilter,
) ([]model.Task, error) {
	query, args := buildTaskQuery(filter)

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		task, err := r.toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
func buildTaskQuery(filter TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.OwnerID != nil {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(*filter.Priority))
	}
	if filter.Complete != nil {
		conditions = append(conditions, "complete = ?")
		args = append(args, boolToInt(*filter.Complete))
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		q := "%" + likeEscaper.Replace(*filter.Query) + "%"
		args = append(args, q, q)
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	// Sort.
	sortBy := "created_at"
	if filter.SortBy != "" {
		allowed := map[string]string{
			"created_at": "created_at",
			"updated_at": "updated_at",
			"title":      "title",
			"progress":   "progress",
			"priority":   "CASE priority WHEN 'Alta' THEN 1 WHEN 'Média' THEN 2 ELSE 3 END",
		}
		if col, ok := allowed[filter.SortBy]; ok {
			sortBy = col
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id ASC", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}
