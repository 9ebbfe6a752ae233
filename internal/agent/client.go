package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"projukti-support-backend/internal/dto"

	"github.com/gorilla/websocket"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second

	// The server pings every 30s; three missed pings count as a dead link.
	readIdleTimeout = 90 * time.Second
)

// ChannelClient keeps a dashboard connected to the push channel. Every
// (re)connect starts with a joinAdmin so the server answers with a full
// snapshot; anything missed while offline is healed by that sync.
type ChannelClient struct {
	url     string
	store   *Store
	dialer  *websocket.Dialer
	backoff time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

func NewChannelClient(url string, store *Store) *ChannelClient {
	c := &ChannelClient{
		url:     url,
		store:   store,
		dialer:  websocket.DefaultDialer,
		backoff: initialBackoff,
		done:    make(chan struct{}),
	}
	store.SetEmitter(c)
	return c
}

// Connect dials the server and starts the receive loop. It returns after the
// first successful join; later disconnects are retried in the background.
func (c *ChannelClient) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	go c.run(conn)
	return nil
}

func (c *ChannelClient) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}

	conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	join, err := encodeFrame(dto.EventJoinAdmin, nil)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	return conn, nil
}

func (c *ChannelClient) run(conn *websocket.Conn) {
	for {
		c.readLoop(conn)

		if c.isClosed() {
			return
		}

		next, ok := c.reconnect()
		if !ok {
			return
		}
		conn = next
	}
}

func (c *ChannelClient) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				log.Printf("agent client: read: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		c.handleFrame(frame)
	}
}

func (c *ChannelClient) handleFrame(frame []byte) {
	var event dto.ChannelEvent
	if err := json.Unmarshal(frame, &event); err != nil {
		log.Printf("agent client: undecodable frame: %v", err)
		return
	}

	switch event.Event {
	case dto.EventAllUserChats:
		var snapshot dto.AllUserChatsPayload
		if err := json.Unmarshal(event.Payload, &snapshot); err != nil {
			log.Printf("agent client: bad allUserChats payload: %v", err)
			return
		}
		c.store.ApplyFullSync(snapshot)

	case dto.EventNewUserMessage:
		var payload dto.NewUserMessagePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			log.Printf("agent client: bad newUserMessage payload: %v", err)
			return
		}
		c.store.ApplyNewMessage(payload.UserID, "", fromPayload(payload.Message))

	default:
		log.Printf("agent client: unknown event %q", event.Event)
	}
}

func (c *ChannelClient) reconnect() (*websocket.Conn, bool) {
	backoff := c.backoff
	for {
		select {
		case <-c.done:
			return nil, false
		case <-time.After(backoff):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		conn, err := c.dial(ctx)
		cancel()
		if err == nil {
			log.Printf("agent client: reconnected to %s", c.url)
			return conn, true
		}

		log.Printf("agent client: reconnect failed, retrying in %s: %v", backoff, err)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// Emit implements Emitter.
func (c *ChannelClient) Emit(event string, payload interface{}) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		return fmt.Errorf("channel not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *ChannelClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *ChannelClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	ev, err := dto.NewChannelEvent(event, payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return data, nil
}
