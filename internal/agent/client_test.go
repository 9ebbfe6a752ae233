package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"projukti-support-backend/internal/dto"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsTestServer(t *testing.T, session func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		session(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readEvent(t *testing.T, conn *websocket.Conn) dto.ChannelEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Errorf("read frame: %v", err)
		return dto.ChannelEvent{}
	}
	var event dto.ChannelEvent
	if err := json.Unmarshal(frame, &event); err != nil {
		t.Errorf("decode frame: %v", err)
	}
	return event
}

func writeEvent(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	ev, err := dto.NewChannelEvent(event, payload)
	if err != nil {
		t.Errorf("encode %s: %v", event, err)
		return
	}
	data, _ := json.Marshal(ev)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Errorf("write %s: %v", event, err)
	}
}

func waitFor(t *testing.T, deadline time.Duration, cond func() bool) {
	t.Helper()
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestClientSyncsOnJoinAndAppliesPushes(t *testing.T) {
	srv := wsTestServer(t, func(conn *websocket.Conn) {
		if ev := readEvent(t, conn); ev.Event != dto.EventJoinAdmin {
			t.Errorf("expected joinAdmin, got %q", ev.Event)
			return
		}

		writeEvent(t, conn, dto.EventAllUserChats, snapshotFixture())
		writeEvent(t, conn, dto.EventNewUserMessage, dto.NewUserMessagePayload{
			UserID: "u1",
			Message: dto.ChatMessagePayload{
				MessageID: "pushed", Text: "are you there?", SenderType: "user",
				Timestamp: "2025-03-01T12:00:00Z",
			},
		})

		// Hold the connection open until the test finishes.
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		conn.ReadMessage()
	})

	store := NewStore()
	client := NewChannelClient(wsURL(srv), store)
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		thread, ok := store.ThreadFor("u1")
		if !ok {
			return false
		}
		for _, msg := range thread.Messages {
			if msg.ID == "pushed" {
				return true
			}
		}
		return false
	})

	if store.Unread("u1") != 3 {
		t.Fatalf("expected 3 unread after push, got %d", store.Unread("u1"))
	}
}

func TestClientResyncsAfterReconnect(t *testing.T) {
	var connections int32

	srv := wsTestServer(t, func(conn *websocket.Conn) {
		n := atomic.AddInt32(&connections, 1)
		if ev := readEvent(t, conn); ev.Event != dto.EventJoinAdmin {
			t.Errorf("expected joinAdmin, got %q", ev.Event)
			return
		}

		if n == 1 {
			// First session drops right after the sync.
			writeEvent(t, conn, dto.EventAllUserChats, snapshotFixture())
			return
		}

		snapshot := snapshotFixture()
		snapshot["u3"] = dto.ThreadSnapshot{
			UserName: "Jorina",
			Messages: []dto.ChatMessagePayload{
				{MessageID: "offline", Text: "wrote while you were away", SenderType: "user", Timestamp: "2025-03-01T12:30:00Z"},
			},
			LastActivity: "2025-03-01T12:30:00Z",
		}
		writeEvent(t, conn, dto.EventAllUserChats, snapshot)

		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		conn.ReadMessage()
	})

	store := NewStore()
	client := NewChannelClient(wsURL(srv), store)
	client.backoff = 20 * time.Millisecond
	defer client.Close()

	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// The rejoin's full sync must deliver the message sent while offline.
	waitFor(t, 3*time.Second, func() bool {
		_, ok := store.ThreadFor("u3")
		return ok
	})

	if atomic.LoadInt32(&connections) < 2 {
		t.Fatalf("expected a reconnect, saw %d connections", connections)
	}
}

func TestEmitFailsWhenNotConnected(t *testing.T) {
	store := NewStore()
	client := NewChannelClient("ws://127.0.0.1:1/ws", store)

	if err := client.Emit(dto.EventSendAdminMessage, nil); err == nil {
		t.Fatal("expected emit on an unconnected client to fail")
	}
}
