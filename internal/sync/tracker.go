// Package sync coordinates the asynchronous load sequences of the
// pipeline dashboard: which pipeline's data is being loaded, when the
// loaded data may be shown, and how per-stage counts are aggregated.
//
// The network layer gives no ordering guarantee between fetches issued
// close together. Display correctness rests entirely on the identity
// tracker: data is only shown when the identity captured at fetch time
// still matches the identity selected now.
package sync

import "sync"

// IdentityTracker separates "which pipeline is selected" from "which
// pipeline's load sequence is in progress". Fetch completions carry the
// identity they were started for and are discarded when the selection
// has moved on.
type IdentityTracker struct {
	mu                sync.Mutex
	selectedPipeline  string
	loadingPipeline   string
	hasDataLoaded     bool
	switchingPipeline bool
}

// NewIdentityTracker returns a tracker with no pipeline selected.
func NewIdentityTracker() *IdentityTracker {
	return &IdentityTracker{}
}

// Begin records a selection change. It returns true when a new load
// sequence must start, i.e. the selected id differs from the one whose
// load is in progress. On a change the caller must clear the contact and
// stage stores before fetching. An empty id is not a selection; it is
// ignored without touching the current state.
func (t *IdentityTracker) Begin(pipelineID string) bool {
	if pipelineID == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.selectedPipeline = pipelineID
	if pipelineID == t.loadingPipeline {
		return false
	}

	t.loadingPipeline = pipelineID
	t.hasDataLoaded = false
	t.switchingPipeline = true
	return true
}

// Matches reports whether the given captured identity is still the one
// being loaded. Every derived view re-verifies this before producing
// non-empty output.
func (t *IdentityTracker) Matches(pipelineID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return pipelineID != "" && pipelineID == t.loadingPipeline && pipelineID == t.selectedPipeline
}

// Complete marks the load sequence finished, but only when the captured
// identity still equals the one being loaded. A late completion for a
// pipeline the user has left must not re-mark data as loaded. Complete
// is also called on fetch failure so the UI can leave its loading state
// and render the empty state instead of stale data.
func (t *IdentityTracker) Complete(capturedPipelineID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if capturedPipelineID != t.loadingPipeline {
		return false
	}
	t.hasDataLoaded = true
	t.switchingPipeline = false
	return true
}

// IsContentLoading reports whether contact/stage data must render as a
// loading state. This is the primary defense against stale-data flashes.
func (t *IdentityTracker) IsContentLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.switchingPipeline {
		return true
	}
	return t.selectedPipeline == t.loadingPipeline && !t.hasDataLoaded
}

// HasDataLoaded reports whether the current load sequence has completed.
func (t *IdentityTracker) HasDataLoaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasDataLoaded
}

// SelectedPipeline returns the currently selected pipeline id.
func (t *IdentityTracker) SelectedPipeline() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selectedPipeline
}

// LoadingPipeline returns the id whose load sequence is in progress or
// just completed.
func (t *IdentityTracker) LoadingPipeline() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadingPipeline
}
