package model

import (
	"encoding/json"
	"time"

	"golang.org/x/text/cases"
)

// Priority is the urgency level of a task. The values are the ones
// stored on the wire.
type Priority string

const (
	PriorityHigh   Priority = "Alta"
	PriorityMedium Priority = "Média"
	PriorityLow    Priority = "Baixa"
)

// Priorities lists every priority, highest first.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority accepts either the wire value or the English label,
// case-insensitively. An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityMedium, nil
	}
	// Casers are stateful and must not be shared.
	fold := cases.Fold()
	folded := fold.String(s)
	for _, p := range Priorities {
		if folded == fold.String(string(p)) || folded == fold.String(p.Label()) {
			return p, nil
		}
	}
	return "", &ValidationError{Kind: KindInvalidPriority, Detail: s}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Label returns the English display label.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	default:
		return string(p)
	}
}

// Rank orders priorities for sorting (lower is more urgent).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// SubItem is a named, independently completable part of a task.
type SubItem struct {
	Name     string `json:"nome"`
	Complete bool   `json:"concluido"`
}

// Task is a user-owned unit of work. SubItems are embedded in the task
// document and never shared between tasks.
type Task struct {
	// ID is assigned by the store on creation and never changes.
	ID string `json:"id"`

	// OwnerID identifies the owning user. Set at creation, never mutated.
	OwnerID string `json:"idUser"`

	Title       string   `json:"titulo"`
	Description string   `json:"description"`
	Priority    Priority `json:"prioridade"`

	// SubItems keeps insertion order, which matters for display only.
	SubItems []SubItem `json:"subtarefas"`

	// Complete is derived from SubItems whenever the list is non-empty.
	Complete bool `json:"concluida"`

	// Progress is the derived completion percentage, persisted alongside.
	Progress int `json:"progresso"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UnmarshalJSON decodes a task document. Older clients wrote the
// completion flag as "conclusaoDaTarefa"; it is honoured when
// "concluida" is absent.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		Concluida     *bool `json:"concluida"`
		LegacyConclui *bool `json:"conclusaoDaTarefa"`
	}{plain: (*plain)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case aux.Concluida != nil:
		t.Complete = *aux.Concluida
	case aux.LegacyConclui != nil:
		t.Complete = *aux.LegacyConclui
	}
	return nil
}

// Clone returns a deep copy so callers can mutate sub-items freely.
func (t Task) Clone() Task {
	c := t
	if t.SubItems != nil {
		c.SubItems = make([]SubItem, len(t.SubItems))
		copy(c.SubItems, t.SubItems)
	}
	return c
}

// CompletedCount returns how many sub-items are complete.
func (t Task) CompletedCount() int {
	return countComplete(t.SubItems)
}
