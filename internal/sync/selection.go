package sync

import "sync"

// Selection holds the trivial per-view UI state: the active stage filter
// and the checked contact rows.
type Selection struct {
	mu          sync.Mutex
	activeStage string
	selected    map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{selected: make(map[string]struct{})}
}

// SetActiveStage activates a stage filter. Clicking the already-active
// stage is a no-op and returns false: it neither re-fetches nor
// deselects, since "no stage" is not a reachable state once a stage has
// been chosen.
func (s *Selection) SetActiveStage(stageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stageID == s.activeStage {
		return false
	}
	s.activeStage = stageID
	return true
}

// ActiveStage returns the active stage filter, empty when none is set.
func (s *Selection) ActiveStage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeStage
}

// Reset clears the stage filter and all checked rows. Called when the
// pipeline switches.
func (s *Selection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeStage = ""
	s.selected = make(map[string]struct{})
}

// Toggle flips one contact row checkbox.
func (s *Selection) Toggle(contactID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[contactID]; ok {
		delete(s.selected, contactID)
	} else {
		s.selected[contactID] = struct{}{}
	}
}

// ToggleAll implements the select-all checkbox over the visible rows:
// when every visible contact is already selected the selection empties,
// otherwise all visible contacts become selected (a partial selection is
// completed, not cleared).
func (s *Selection) ToggleAll(visibleIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.selected) == len(visibleIDs) && len(visibleIDs) > 0 {
		s.selected = make(map[string]struct{})
		return
	}

	s.selected = make(map[string]struct{}, len(visibleIDs))
	for _, id := range visibleIDs {
		s.selected[id] = struct{}{}
	}
}

// Selected returns the checked contact ids.
func (s *Selection) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	return out
}

// IsSelected reports whether one row is checked.
func (s *Selection) IsSelected(contactID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[contactID]
	return ok
}
