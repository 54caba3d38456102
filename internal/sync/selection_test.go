package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelection_SetActiveStage(t *testing.T) {
	s := NewSelection()

	assert.True(t, s.SetActiveStage("s1"))
	assert.Equal(t, "s1", s.ActiveStage())

	// Clicking the already-active stage is a no-op.
	assert.False(t, s.SetActiveStage("s1"))
	assert.Equal(t, "s1", s.ActiveStage())

	assert.True(t, s.SetActiveStage("s2"))
	assert.Equal(t, "s2", s.ActiveStage())
}

func TestSelection_Toggle(t *testing.T) {
	s := NewSelection()

	s.Toggle("c1")
	assert.True(t, s.IsSelected("c1"))

	s.Toggle("c1")
	assert.False(t, s.IsSelected("c1"))
}

func TestSelection_ToggleAllSelectsAllWhenEmpty(t *testing.T) {
	s := NewSelection()
	visible := []string{"c1", "c2", "c3"}

	s.ToggleAll(visible)
	assert.ElementsMatch(t, visible, s.Selected())
}

func TestSelection_ToggleAllClearsWhenAllSelected(t *testing.T) {
	s := NewSelection()
	visible := []string{"c1", "c2", "c3"}

	s.ToggleAll(visible)
	s.ToggleAll(visible)
	assert.Empty(t, s.Selected())
}

func TestSelection_ToggleAllCompletesPartialSelection(t *testing.T) {
	s := NewSelection()
	visible := []string{"c1", "c2", "c3", "c4", "c5"}

	// 4 of 5 selected: select-all completes the set, it does not clear.
	for _, id := range visible[:4] {
		s.Toggle(id)
	}
	s.ToggleAll(visible)
	assert.ElementsMatch(t, visible, s.Selected())

	// Now all 5 are selected: the next toggle clears.
	s.ToggleAll(visible)
	assert.Empty(t, s.Selected())
}

func TestSelection_ToggleAllWithNoVisibleRows(t *testing.T) {
	s := NewSelection()

	s.ToggleAll(nil)
	assert.Empty(t, s.Selected())
}

func TestSelection_Reset(t *testing.T) {
	s := NewSelection()
	s.SetActiveStage("s1")
	s.Toggle("c1")

	s.Reset()

	assert.Empty(t, s.ActiveStage())
	assert.Empty(t, s.Selected())
	assert.False(t, s.IsSelected("c1"))
}
