package widget

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultDebounce is how long the customer has to stop typing before the
// draft is persisted.
const DefaultDebounce = 2000 * time.Millisecond

// DraftAPI persists a draft and returns its id. Passing the id back on the
// next save keeps updating the same draft.
type DraftAPI interface {
	SaveDraft(ctx context.Context, form Form, draftID string) (string, error)
}

// Scheduler autosaves the form in the background. Saves are debounced,
// skipped for empty forms, suppressed once a submit starts, and never surface
// errors to the customer.
type Scheduler struct {
	api      DraftAPI
	guard    *SubmitGuard
	debounce time.Duration
	timer    debounceTimer

	mu      sync.Mutex
	form    Form
	draftID string
}

func NewScheduler(api DraftAPI, guard *SubmitGuard) *Scheduler {
	return NewSchedulerWithDebounce(api, guard, DefaultDebounce)
}

func NewSchedulerWithDebounce(api DraftAPI, guard *SubmitGuard, debounce time.Duration) *Scheduler {
	return &Scheduler{
		api:      api,
		guard:    guard,
		debounce: debounce,
	}
}

// Update records the latest form state and restarts the debounce window.
// While a submit is underway edits are not autosaved.
func (s *Scheduler) Update(form Form) {
	if s.guard.Submitted() {
		return
	}

	s.mu.Lock()
	s.form = form.Clone()
	s.mu.Unlock()

	s.timer.Start(s.debounce, s.flush)
}

func (s *Scheduler) flush() {
	// The guard may have flipped between the edit and the timer firing.
	if s.guard.Submitted() {
		return
	}

	s.mu.Lock()
	form := s.form
	draftID := s.draftID
	s.mu.Unlock()

	if form.Empty() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := s.api.SaveDraft(ctx, form, draftID)
	if err != nil {
		// Autosave is invisible to the customer; a failed save just waits
		// for the next edit to try again.
		log.Printf("draft scheduler: save draft: %v", err)
		return
	}

	s.mu.Lock()
	s.draftID = id
	s.mu.Unlock()
}

// CancelPending drops any save still waiting on the debounce window.
func (s *Scheduler) CancelPending() {
	s.timer.Cancel()
}

// Pending reports whether a save is waiting to fire.
func (s *Scheduler) Pending() bool {
	return s.timer.Pending()
}

func (s *Scheduler) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

// Reset clears the tracked draft, for use after the draft has been consumed
// by a submit.
func (s *Scheduler) Reset() {
	s.timer.Cancel()
	s.mu.Lock()
	s.form = Form{}
	s.draftID = ""
	s.mu.Unlock()
}
