package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type recordingDraftAPI struct {
	mu    sync.Mutex
	saves []Form
	ids   []string
	err   error
}

func (a *recordingDraftAPI) SaveDraft(_ context.Context, form Form, draftID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	a.saves = append(a.saves, form)
	a.ids = append(a.ids, draftID)
	return fmt.Sprintf("draft-%d", len(a.saves)), nil
}

func (a *recordingDraftAPI) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.saves)
}

func (a *recordingDraftAPI) last() (Form, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.saves) == 0 {
		return Form{}, ""
	}
	return a.saves[len(a.saves)-1], a.ids[len(a.ids)-1]
}

func waitForSaves(t *testing.T, api *recordingDraftAPI, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if api.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d saves, got %d", want, api.count())
}

func TestDebounceCoalescesRapidEdits(t *testing.T) {
	api := &recordingDraftAPI{}
	scheduler := NewSchedulerWithDebounce(api, NewSubmitGuard(), 30*time.Millisecond)

	for i := 0; i < 5; i++ {
		scheduler.Update(Form{Phone: "01711", Subject: fmt.Sprintf("edit %d", i)})
		time.Sleep(5 * time.Millisecond)
	}

	waitForSaves(t, api, 1)
	time.Sleep(60 * time.Millisecond)

	if api.count() != 1 {
		t.Fatalf("expected rapid edits to coalesce into 1 save, got %d", api.count())
	}
	form, _ := api.last()
	if form.Subject != "edit 4" {
		t.Fatalf("expected the latest edit to win, got %q", form.Subject)
	}
}

func TestEmptyFormIsNotSaved(t *testing.T) {
	api := &recordingDraftAPI{}
	scheduler := NewSchedulerWithDebounce(api, NewSubmitGuard(), 10*time.Millisecond)

	scheduler.Update(Form{})
	time.Sleep(50 * time.Millisecond)

	if api.count() != 0 {
		t.Fatalf("expected no save for an empty form, got %d", api.count())
	}
}

func TestGuardSuppressesPendingSave(t *testing.T) {
	api := &recordingDraftAPI{}
	guard := NewSubmitGuard()
	scheduler := NewSchedulerWithDebounce(api, guard, 30*time.Millisecond)

	scheduler.Update(Form{Phone: "01711"})
	guard.set(true)
	time.Sleep(80 * time.Millisecond)

	if api.count() != 0 {
		t.Fatalf("expected guard to suppress the save, got %d", api.count())
	}
}

func TestGuardSuppressesNewEdits(t *testing.T) {
	api := &recordingDraftAPI{}
	guard := NewSubmitGuard()
	scheduler := NewSchedulerWithDebounce(api, guard, 10*time.Millisecond)

	guard.set(true)
	scheduler.Update(Form{Phone: "01711"})
	time.Sleep(50 * time.Millisecond)

	if api.count() != 0 {
		t.Fatalf("expected no save while guard is up, got %d", api.count())
	}
	if scheduler.Pending() {
		t.Fatal("expected no pending timer while guard is up")
	}
}

func TestDraftIDIsReused(t *testing.T) {
	api := &recordingDraftAPI{}
	scheduler := NewSchedulerWithDebounce(api, NewSubmitGuard(), 10*time.Millisecond)

	scheduler.Update(Form{Phone: "01711"})
	waitForSaves(t, api, 1)

	scheduler.Update(Form{Phone: "01711", Subject: "more"})
	waitForSaves(t, api, 2)

	_, sentID := api.last()
	if sentID != "draft-1" {
		t.Fatalf("expected second save to reuse draft-1, got %q", sentID)
	}
	if scheduler.DraftID() != "draft-2" {
		t.Fatalf("expected tracked id draft-2, got %q", scheduler.DraftID())
	}
}

func TestSaveFailureIsSilentAndRetriedOnNextEdit(t *testing.T) {
	api := &recordingDraftAPI{err: errors.New("api down")}
	scheduler := NewSchedulerWithDebounce(api, NewSubmitGuard(), 10*time.Millisecond)

	scheduler.Update(Form{Phone: "01711"})
	time.Sleep(50 * time.Millisecond)

	if scheduler.DraftID() != "" {
		t.Fatalf("expected no draft id after failure, got %q", scheduler.DraftID())
	}

	api.mu.Lock()
	api.err = nil
	api.mu.Unlock()

	scheduler.Update(Form{Phone: "01711", Subject: "retry"})
	waitForSaves(t, api, 1)

	if scheduler.DraftID() == "" {
		t.Fatal("expected draft id after the retry succeeded")
	}
}

func TestCancelPendingDropsSave(t *testing.T) {
	api := &recordingDraftAPI{}
	scheduler := NewSchedulerWithDebounce(api, NewSubmitGuard(), 30*time.Millisecond)

	scheduler.Update(Form{Phone: "01711"})
	scheduler.CancelPending()
	time.Sleep(80 * time.Millisecond)

	if api.count() != 0 {
		t.Fatalf("expected cancelled save to never fire, got %d", api.count())
	}
}
