package agent

import (
	"errors"
	"sync"
	"testing"
	"time"

	"projukti-support-backend/internal/dto"
	"projukti-support-backend/internal/model"
)

type recordedEvent struct {
	event   string
	payload interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (e *recordingEmitter) Emit(event string, payload interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, recordedEvent{event: event, payload: payload})
	return nil
}

func (e *recordingEmitter) count(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ev := range e.events {
		if ev.event == event {
			n++
		}
	}
	return n
}

func snapshotFixture() dto.AllUserChatsPayload {
	return dto.AllUserChatsPayload{
		"u1": dto.ThreadSnapshot{
			UserName: "Rahim",
			Messages: []dto.ChatMessagePayload{
				{MessageID: "m1", Text: "hello", SenderType: "user", Timestamp: "2025-03-01T10:00:00Z", ReadByAdmin: false},
				{MessageID: "m2", Text: "hi there", SenderType: "admin", Timestamp: "2025-03-01T10:01:00Z", ReadByAdmin: true},
				{MessageID: "m3", Text: "still broken", SenderType: "user", Timestamp: "2025-03-01T10:05:00Z", ReadByAdmin: false},
			},
			LastActivity: "2025-03-01T10:05:00Z",
		},
		"u2": dto.ThreadSnapshot{
			UserName: "Karim",
			Messages: []dto.ChatMessagePayload{
				{MessageID: "m4", Text: "thanks", SenderType: "user", Timestamp: "2025-03-01T09:00:00Z", ReadByAdmin: true},
			},
			LastActivity: "2025-03-01T09:00:00Z",
		},
	}
}

func TestFullSyncIsIdempotent(t *testing.T) {
	store := NewStore()

	store.ApplyFullSync(snapshotFixture())
	first := store.Threads()
	firstUnread := store.Unread("u1")

	store.ApplyFullSync(snapshotFixture())
	second := store.Threads()

	if len(first) != len(second) {
		t.Fatalf("thread count changed across resync: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].UserID != second[i].UserID || len(first[i].Messages) != len(second[i].Messages) {
			t.Fatalf("thread %s changed across resync", first[i].UserID)
		}
	}
	if store.Unread("u1") != firstUnread {
		t.Fatalf("unread changed across resync: %d vs %d", firstUnread, store.Unread("u1"))
	}
	if firstUnread != 2 {
		t.Fatalf("expected 2 unread user messages for u1, got %d", firstUnread)
	}
	if store.Unread("u2") != 0 {
		t.Fatalf("expected 0 unread for u2, got %d", store.Unread("u2"))
	}
}

func TestFullSyncDropsLocalOnlyState(t *testing.T) {
	store := NewStore()
	store.ApplyNewMessage("ghost", "Ghost", Message{
		ID: "g1", Text: "hello?", Sender: model.SenderUser,
		Timestamp: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	})

	store.ApplyFullSync(snapshotFixture())

	if _, ok := store.ThreadFor("ghost"); ok {
		t.Fatal("expected full sync to replace local-only threads")
	}
}

func TestNewMessageSynthesizesThread(t *testing.T) {
	store := NewStore()
	store.ApplyFullSync(snapshotFixture())

	store.ApplyNewMessage("u3", "Jorina", Message{
		ID: "m9", Text: "need help", Sender: model.SenderUser,
		Timestamp: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
	})

	thread, ok := store.ThreadFor("u3")
	if !ok {
		t.Fatal("expected thread for unknown user to be synthesized")
	}
	if thread.UserName != "Jorina" {
		t.Fatalf("expected user name carried over, got %q", thread.UserName)
	}
	if store.Unread("u3") != 1 {
		t.Fatalf("expected 1 unread, got %d", store.Unread("u3"))
	}
}

func TestNewMessageDedupesByID(t *testing.T) {
	store := NewStore()
	store.ApplyFullSync(snapshotFixture())

	msg := Message{
		ID: "dup", Text: "same message", Sender: model.SenderUser,
		Timestamp: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
	}
	store.ApplyNewMessage("u1", "", msg)
	store.ApplyNewMessage("u1", "", msg)

	thread, _ := store.ThreadFor("u1")
	seen := 0
	for _, m := range thread.Messages {
		if m.ID == "dup" {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("expected 1 copy of the message, got %d", seen)
	}
	if store.Unread("u1") != 3 {
		t.Fatalf("expected unread to count the duplicate once, got %d", store.Unread("u1"))
	}
}

func TestSendEchoesAreDeduplicated(t *testing.T) {
	store := NewStore()
	emitter := &recordingEmitter{}
	store.SetEmitter(emitter)
	store.ApplyFullSync(snapshotFixture())

	sent, err := store.Send("u1", "we are on it")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// The server fans the stored message back with the same id.
	store.ApplyNewMessage("u1", "", Message{
		ID: sent.ID, Text: sent.Text, Sender: model.SenderAdmin,
		Timestamp: sent.Timestamp, ReadByAdmin: true,
	})

	thread, _ := store.ThreadFor("u1")
	seen := 0
	for _, m := range thread.Messages {
		if m.ID == sent.ID {
			seen++
		}
	}
	if seen != 1 {
		t.Fatalf("expected the echo to be deduplicated, got %d copies", seen)
	}
	if emitter.count(dto.EventSendAdminMessage) != 1 {
		t.Fatalf("expected 1 sendAdminMessage emit, got %d", emitter.count(dto.EventSendAdminMessage))
	}
}

func TestMarkReadIsOptimisticAndIdempotent(t *testing.T) {
	store := NewStore()
	emitter := &recordingEmitter{}
	store.SetEmitter(emitter)
	store.ApplyFullSync(snapshotFixture())

	store.MarkRead("u1")
	if store.Unread("u1") != 0 {
		t.Fatalf("expected unread reset to 0, got %d", store.Unread("u1"))
	}

	store.MarkRead("u1")
	if store.Unread("u1") != 0 {
		t.Fatalf("expected unread to stay 0, got %d", store.Unread("u1"))
	}
}

func TestMarkReadKeepsZeroWhenEmitFails(t *testing.T) {
	store := NewStore()
	emitter := &recordingEmitter{err: errors.New("channel down")}
	store.SetEmitter(emitter)
	store.ApplyFullSync(snapshotFixture())

	store.MarkRead("u1")

	// The receipt is fire and forget: local state does not roll back.
	if store.Unread("u1") != 0 {
		t.Fatalf("expected unread to stay 0 despite emit failure, got %d", store.Unread("u1"))
	}
}

func TestAdminMessagesNeverCountAsUnread(t *testing.T) {
	store := NewStore()
	store.ApplyFullSync(snapshotFixture())
	store.MarkRead("u1")

	store.ApplyNewMessage("u1", "", Message{
		ID: "a1", Text: "checking in", Sender: model.SenderAdmin,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), ReadByAdmin: true,
	})

	if store.Unread("u1") != 0 {
		t.Fatalf("expected admin message to leave unread at 0, got %d", store.Unread("u1"))
	}
}

func TestThreadsSortedByLastActivity(t *testing.T) {
	store := NewStore()
	store.ApplyFullSync(snapshotFixture())

	threads := store.Threads()
	if len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}
	if threads[0].UserID != "u1" || threads[1].UserID != "u2" {
		t.Fatalf("expected u1 before u2, got %s, %s", threads[0].UserID, threads[1].UserID)
	}

	// New activity on the older thread moves it to the front.
	store.ApplyNewMessage("u2", "", Message{
		ID: "m10", Text: "one more thing", Sender: model.SenderUser,
		Timestamp: time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC),
	})

	threads = store.Threads()
	if threads[0].UserID != "u2" {
		t.Fatalf("expected u2 first after new activity, got %s", threads[0].UserID)
	}
}

func TestOnChangeFires(t *testing.T) {
	store := NewStore()
	changes := 0
	store.SetOnChange(func() { changes++ })

	store.ApplyFullSync(snapshotFixture())
	store.ApplyNewMessage("u1", "", Message{ID: "x1", Sender: model.SenderUser, Timestamp: time.Now()})
	store.MarkRead("u1")

	if changes != 3 {
		t.Fatalf("expected 3 change notifications, got %d", changes)
	}
}
