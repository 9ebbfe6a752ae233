package agent

import (
	"testing"

	"projukti-support-backend/internal/dto"
)

func TestSelectClearsUnreadAndEmitsOnce(t *testing.T) {
	store := NewStore()
	emitter := &recordingEmitter{}
	store.SetEmitter(emitter)
	store.ApplyFullSync(snapshotFixture())

	selector := NewSelector(store)

	selector.Select("u1")
	if selector.Active() != "u1" {
		t.Fatalf("expected u1 active, got %s", selector.Active())
	}
	if store.Unread("u1") != 0 {
		t.Fatalf("expected unread cleared, got %d", store.Unread("u1"))
	}
	if emitter.count(dto.EventMarkMessagesAsRead) != 1 {
		t.Fatalf("expected 1 read receipt, got %d", emitter.count(dto.EventMarkMessagesAsRead))
	}

	// Re-selecting an already read thread stays silent.
	selector.Select("u1")
	if emitter.count(dto.EventMarkMessagesAsRead) != 1 {
		t.Fatalf("expected no extra receipt, got %d", emitter.count(dto.EventMarkMessagesAsRead))
	}
}

func TestSelectThreadWithoutUnreadStaysSilent(t *testing.T) {
	store := NewStore()
	emitter := &recordingEmitter{}
	store.SetEmitter(emitter)
	store.ApplyFullSync(snapshotFixture())

	selector := NewSelector(store)
	selector.Select("u2")

	if emitter.count(dto.EventMarkMessagesAsRead) != 0 {
		t.Fatalf("expected no receipt for a read thread, got %d", emitter.count(dto.EventMarkMessagesAsRead))
	}
}

func TestActiveThread(t *testing.T) {
	store := NewStore()
	store.ApplyFullSync(snapshotFixture())

	selector := NewSelector(store)
	if _, ok := selector.ActiveThread(); ok {
		t.Fatal("expected no active thread before select")
	}

	selector.Select("u1")
	thread, ok := selector.ActiveThread()
	if !ok || thread.UserID != "u1" {
		t.Fatalf("expected active thread u1, got %+v ok=%v", thread, ok)
	}

	selector.Clear()
	if _, ok := selector.ActiveThread(); ok {
		t.Fatal("expected no active thread after clear")
	}
}

func TestConversationsOrder(t *testing.T) {
	store := NewStore()
	store.ApplyFullSync(snapshotFixture())

	selector := NewSelector(store)
	conversations := selector.Conversations()
	if len(conversations) != 2 || conversations[0].UserID != "u1" {
		t.Fatalf("expected u1 first, got %+v", conversations)
	}
}
