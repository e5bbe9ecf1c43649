package model

import "strings"

// ComputeProgress returns the percentage of complete sub-items, rounded
// half-up to the nearest integer. An empty list is 0%.
func ComputeProgress(items []SubItem) int {
	total := len(items)
	if total == 0 {
		return 0
	}
	done := countComplete(items)
	// round(100*done/total) with halves rounded up, in integers.
	return (200*done + total) / (2 * total)
}

// DeriveTaskCompletion reports whether every sub-item of t is complete.
// A task without sub-items keeps its stored flag: an AND over an empty
// list would otherwise mark it complete.
func DeriveTaskCompletion(t Task) bool {
	if len(t.SubItems) == 0 {
		return t.Complete
	}
	for _, it := range t.SubItems {
		if !it.Complete {
			return false
		}
	}
	return true
}

// Reconcile recomputes the derived completion flag and progress.
func (t *Task) Reconcile() {
	t.Complete = DeriveTaskCompletion(*t)
	t.Progress = ComputeProgress(t.SubItems)
}

// AddSubItem appends a new incomplete sub-item.
func (t *Task) AddSubItem(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptySubItemName
	}
	t.SubItems = append(t.SubItems, SubItem{Name: name})
	t.Reconcile()
	return nil
}

// RemoveSubItem deletes the sub-item at index.
func (t *Task) RemoveSubItem(index int) error {
	if index < 0 || index >= len(t.SubItems) {
		return indexError(index, len(t.SubItems))
	}
	t.SubItems = append(t.SubItems[:index:index], t.SubItems[index+1:]...)
	t.Reconcile()
	return nil
}

// ToggleSubItem flips the completion of the sub-item at index.
func (t *Task) ToggleSubItem(index int) error {
	if index < 0 || index >= len(t.SubItems) {
		return indexError(index, len(t.SubItems))
	}
	t.SubItems[index].Complete = !t.SubItems[index].Complete
	t.Reconcile()
	return nil
}

// RenameSubItem changes the label of the sub-item at index.
func (t *Task) RenameSubItem(index int, name string) error {
	if index < 0 || index >= len(t.SubItems) {
		return indexError(index, len(t.SubItems))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptySubItemName
	}
	t.SubItems[index].Name = name
	return nil
}

// ReplaceSubItems swaps the whole sub-item list, as when an edited list
// is saved in one go.
func (t *Task) ReplaceSubItems(items []SubItem) error {
	next := make([]SubItem, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return ErrEmptySubItemName
		}
		next = append(next, SubItem{Name: name, Complete: it.Complete})
	}
	t.SubItems = next
	t.Reconcile()
	return nil
}

// SetComplete sets the completion flag explicitly. It is only allowed
// on a task without sub-items; otherwise completion is derived.
func (t *Task) SetComplete(complete bool) error {
	if len(t.SubItems) > 0 {
		return ErrCompletionDerived
	}
	t.Complete = complete
	t.Reconcile()
	return nil
}

func countComplete(items []SubItem) int {
	n := 0
	for _, it := range items {
		if it.Complete {
			n++
		}
	}
	return n
}
