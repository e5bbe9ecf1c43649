package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(states ...bool) []SubItem {
	out := make([]SubItem, len(states))
	for i, done := range states {
		out[i] = SubItem{Name: string(rune('A' + i)), Complete: done}
	}
	return out
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name  string
		items []SubItem
		want  int
	}{
		{"empty", nil, 0},
		{"none complete", items(false, false), 0},
		{"half", items(true, false), 50},
		{"all", items(true, true, true), 100},
		{"one third rounds down", items(true, false, false), 33},
		{"two thirds rounds up", items(true, true, false), 67},
		{"one eighth is 12.5 and rounds up", items(true, false, false, false, false, false, false, false), 13},
		{"five eighths is 62.5 and rounds up", items(true, true, true, true, true, false, false, false), 63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeProgress(tt.items))
		})
	}
}

func TestComputeProgressBounded(t *testing.T) {
	for total := 1; total <= 40; total++ {
		for done := 0; done <= total; done++ {
			list := make([]SubItem, total)
			for i := 0; i < done; i++ {
				list[i].Complete = true
			}
			got := ComputeProgress(list)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
			if done == total {
				assert.Equal(t, 100, got)
			}
			if done == 0 {
				assert.Equal(t, 0, got)
			}
		}
	}
}

func TestDeriveTaskCompletion(t *testing.T) {
	t.Run("all complete", func(t *testing.T) {
		assert.True(t, DeriveTaskCompletion(Task{SubItems: items(true, true)}))
	})

	t.Run("any incomplete", func(t *testing.T) {
		assert.False(t, DeriveTaskCompletion(Task{SubItems: items(true, false, true)}))
	})

	t.Run("stale flag is overridden", func(t *testing.T) {
		assert.False(t, DeriveTaskCompletion(Task{Complete: true, SubItems: items(false)}))
	})

	t.Run("empty keeps stored flag", func(t *testing.T) {
		assert.False(t, DeriveTaskCompletion(Task{}))
		assert.True(t, DeriveTaskCompletion(Task{Complete: true}))
	})

	t.Run("idempotent", func(t *testing.T) {
		task := Task{SubItems: items(true, false)}
		first := DeriveTaskCompletion(task)
		assert.Equal(t, first, DeriveTaskCompletion(task))
	})
}

func TestToggleScenario(t *testing.T) {
	task := Task{SubItems: []SubItem{{Name: "A", Complete: true}, {Name: "B"}}}
	task.Reconcile()

	assert.Equal(t, 50, task.Progress)
	assert.False(t, task.Complete)

	require.NoError(t, task.ToggleSubItem(1))
	assert.Equal(t, 100, task.Progress)
	assert.True(t, task.Complete)

	// Flipping any sub-item back flips the task in the same update.
	require.NoError(t, task.ToggleSubItem(0))
	assert.Equal(t, 50, task.Progress)
	assert.False(t, task.Complete)
}

func TestRemoveLastIncompleteCompletesTask(t *testing.T) {
	task := Task{SubItems: []SubItem{{Name: "A", Complete: true}, {Name: "B"}}}
	task.Reconcile()
	require.False(t, task.Complete)

	require.NoError(t, task.RemoveSubItem(1))
	assert.True(t, task.Complete)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, []SubItem{{Name: "A", Complete: true}}, task.SubItems)
}

func TestAddSubItemReopensTask(t *testing.T) {
	task := Task{SubItems: items(true)}
	task.Reconcile()
	require.True(t, task.Complete)

	require.NoError(t, task.AddSubItem("  write tests "))
	assert.False(t, task.Complete)
	assert.Equal(t, 50, task.Progress)
	assert.Equal(t, "write tests", task.SubItems[1].Name)

	assert.ErrorIs(t, task.AddSubItem("   "), ErrEmptySubItemName)
	assert.Len(t, task.SubItems, 2)
}

func TestIndexOutOfRange(t *testing.T) {
	task := Task{SubItems: items(false)}
	before := task.Clone()

	for _, idx := range []int{-1, 1, 5} {
		assert.ErrorIs(t, task.ToggleSubItem(idx), ErrIndexOutOfRange)
		assert.ErrorIs(t, task.RemoveSubItem(idx), ErrIndexOutOfRange)
		assert.ErrorIs(t, task.RenameSubItem(idx, "x"), ErrIndexOutOfRange)
	}
	assert.Equal(t, before, task)

	var verr *ValidationError
	require.True(t, errors.As(task.ToggleSubItem(3), &verr))
	assert.Equal(t, KindIndexOutOfRange, verr.Kind)
	assert.Contains(t, verr.Error(), "index 3")
}

func TestSetComplete(t *testing.T) {
	t.Run("allowed when empty", func(t *testing.T) {
		task := Task{}
		require.NoError(t, task.SetComplete(true))
		assert.True(t, task.Complete)
		assert.Equal(t, 0, task.Progress)

		require.NoError(t, task.SetComplete(false))
		assert.False(t, task.Complete)
	})

	t.Run("rejected when derived", func(t *testing.T) {
		task := Task{SubItems: items(false)}
		assert.ErrorIs(t, task.SetComplete(true), ErrCompletionDerived)
		assert.False(t, task.Complete)
	})

	t.Run("removing every sub-item keeps the flag", func(t *testing.T) {
		task := Task{SubItems: items(true)}
		task.Reconcile()
		require.NoError(t, task.RemoveSubItem(0))
		assert.True(t, task.Complete)
		assert.Equal(t, 0, task.Progress)
	})
}

func TestReplaceSubItems(t *testing.T) {
	task := Task{SubItems: items(false)}
	require.NoError(t, task.ReplaceSubItems([]SubItem{{Name: "x", Complete: true}, {Name: " y ", Complete: true}}))
	assert.True(t, task.Complete)
	assert.Equal(t, "y", task.SubItems[1].Name)

	assert.ErrorIs(t, task.ReplaceSubItems([]SubItem{{Name: ""}}), ErrEmptySubItemName)
	assert.Len(t, task.SubItems, 2)
}

func TestCloneIsDeep(t *testing.T) {
	task := Task{SubItems: items(false, false)}
	c := task.Clone()
	require.NoError(t, c.ToggleSubItem(0))
	assert.False(t, task.SubItems[0].Complete)
}

func TestTaskJSONWireNames(t *testing.T) {
	task := Task{
		ID:          "t1",
		OwnerID:     "u1",
		Title:       "Study",
		Description: "Chapter 3",
		Priority:    PriorityHigh,
		SubItems:    []SubItem{{Name: "read", Complete: true}},
		Complete:    true,
		Progress:    100,
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"titulo", "description", "prioridade", "subtarefas", "concluida", "idUser", "progresso"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "Alta", raw["prioridade"])
	sub := raw["subtarefas"].([]any)[0].(map[string]any)
	assert.Equal(t, "read", sub["nome"])
	assert.Equal(t, true, sub["concluido"])
}

func TestTaskJSONLegacyCompletionField(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"titulo":"a","conclusaoDaTarefa":true}`), &task))
	assert.True(t, task.Complete)
	assert.Equal(t, "a", task.Title)

	require.NoError(t, json.Unmarshal([]byte(`{"concluida":false,"conclusaoDaTarefa":true}`), &task))
	assert.False(t, task.Complete, "canonical field wins")
}

func TestParsePriority(t *testing.T) {
	for in, want := range map[string]Priority{
		"":      PriorityMedium,
		"Alta":  PriorityHigh,
		"high":  PriorityHigh,
		"MÉDIA": PriorityMedium,
		"Low":   PriorityLow,
		"baixa": PriorityLow,
	} {
		got, err := ParsePriority(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePriority("urgent")
	assert.ErrorIs(t, err, ErrInvalidPriority)
}
