package tasklist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/focusflow/internal/model"
	"github.com/nhle/focusflow/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	return fmt.Sprintf("%s | %d/%d | %d%%",
		i.Task.Priority.Label(), i.Task.CompletedCount(), len(i.Task.SubItems), i.Task.Progress)
}

// progressWidth is the width of the inline progress bar.
const progressWidth = 12

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct {
	bar progress.Model
}

// NewItemDelegate builds the delegate with its progress bar.
func NewItemDelegate() ItemDelegate {
	bar := progress.New(
		progress.WithSolidFill(string(theme.ColorTeal.Dark)),
		progress.WithWidth(progressWidth),
		progress.WithoutPercentage(),
	)
	return ItemDelegate{bar: bar}
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row: completion badge, priority, title,
// progress bar and age.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	task := ti.Task
	isSelected := index == m.Index()

	badge := "○"
	if task.Complete {
		badge = "✓"
	}
	badge = theme.CompletionStyle(task.Complete).Render(badge)

	pri := theme.PriorityStyle(task.Priority).Render(fmt.Sprintf("%-6s", task.Priority.Label()))

	counts := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(fmt.Sprintf("%d/%d", task.CompletedCount(), len(task.SubItems)))

	age := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(task.UpdatedAt))

	line := fmt.Sprintf("%s %s %s  %s %3d%% %s  %s",
		badge, pri, task.Title,
		d.bar.ViewAs(float64(task.Progress)/100), task.Progress, counts, age,
	)

	if task.Complete {
		line = lipgloss.NewStyle().Faint(true).Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
