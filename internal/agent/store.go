package agent

import (
	"log"
	"sort"
	"sync"
	"time"

	"projukti-support-backend/internal/dto"
	"projukti-support-backend/internal/model"

	"github.com/google/uuid"
)

// Emitter sends a channel event to the server. The websocket client
// implements it; tests substitute a recorder.
type Emitter interface {
	Emit(event string, payload interface{}) error
}

type Message struct {
	ID          string
	Text        string
	Sender      model.SenderType
	Timestamp   time.Time
	ReadByAdmin bool
}

type Thread struct {
	UserID       string
	UserName     string
	Messages     []Message
	LastActivity time.Time
}

// Store is the dashboard's in-memory copy of every conversation. The server
// snapshot is authoritative; pushed messages keep the copy fresh between
// syncs.
type Store struct {
	mu       sync.Mutex
	threads  map[string]*Thread
	unread   map[string]int
	emitter  Emitter
	now      func() time.Time
	onChange func()
}

func NewStore() *Store {
	return &Store{
		threads: make(map[string]*Thread),
		unread:  make(map[string]int),
		now:     time.Now,
	}
}

// SetEmitter attaches the outbound channel. Until one is set, sends and read
// receipts are local only.
func (s *Store) SetEmitter(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitter = emitter
}

// SetOnChange registers a callback fired after every state change, for UIs
// that re-render on updates. The callback runs outside the store lock.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// ApplyFullSync replaces all local state with the server snapshot. Applying
// the same snapshot twice lands on the same state, which is what makes
// reconnect-resync safe.
func (s *Store) ApplyFullSync(snapshot dto.AllUserChatsPayload) {
	s.mu.Lock()

	threads := make(map[string]*Thread, len(snapshot))
	unread := make(map[string]int, len(snapshot))

	for userID, remote := range snapshot {
		thread := &Thread{
			UserID:       userID,
			UserName:     remote.UserName,
			Messages:     make([]Message, 0, len(remote.Messages)),
			LastActivity: parseTimestamp(remote.LastActivity),
		}
		count := 0
		for _, payload := range remote.Messages {
			msg := fromPayload(payload)
			thread.Messages = append(thread.Messages, msg)
			if msg.Sender == model.SenderUser && !msg.ReadByAdmin {
				count++
			}
		}
		threads[userID] = thread
		unread[userID] = count
	}

	s.threads = threads
	s.unread = unread
	onChange := s.onChange
	s.mu.Unlock()

	notify(onChange)
}

// ApplyNewMessage folds one pushed message into the store. Messages arriving
// for an unknown user synthesize a thread on the spot. A message whose id is
// already present is dropped, which is how an agent's own send reconciles
// with its server echo.
func (s *Store) ApplyNewMessage(userID, userName string, msg Message) {
	s.mu.Lock()

	thread, ok := s.threads[userID]
	if !ok {
		thread = &Thread{
			UserID:   userID,
			UserName: userName,
		}
		s.threads[userID] = thread
	}
	if thread.UserName == "" {
		thread.UserName = userName
	}

	for _, existing := range thread.Messages {
		if existing.ID == msg.ID {
			s.mu.Unlock()
			return
		}
	}

	thread.Messages = append(thread.Messages, msg)
	if msg.Timestamp.After(thread.LastActivity) {
		thread.LastActivity = msg.Timestamp
	}
	if msg.Sender == model.SenderUser && !msg.ReadByAdmin {
		s.unread[userID]++
	}

	onChange := s.onChange
	s.mu.Unlock()

	notify(onChange)
}

// MarkRead zeroes the unread counter immediately and tells the server in the
// background. The counter stays at zero even if the server call fails; the
// next full sync restores the true value.
func (s *Store) MarkRead(userID string) {
	s.mu.Lock()

	thread, ok := s.threads[userID]
	if !ok {
		s.mu.Unlock()
		return
	}

	s.unread[userID] = 0
	for i := range thread.Messages {
		if thread.Messages[i].Sender == model.SenderUser {
			thread.Messages[i].ReadByAdmin = true
		}
	}

	emitter := s.emitter
	onChange := s.onChange
	s.mu.Unlock()

	if emitter != nil {
		if err := emitter.Emit(dto.EventMarkMessagesAsRead, dto.MarkMessagesAsReadPayload{UserID: userID}); err != nil {
			log.Printf("agent store: mark %s read: %v", userID, err)
		}
	}

	notify(onChange)
}

// Send appends the agent's message locally before the server confirms it, so
// the dashboard feels instant. The server echo carries the same message id
// and is deduplicated on arrival.
func (s *Store) Send(userID, text string) (Message, error) {
	s.mu.Lock()

	thread, ok := s.threads[userID]
	if !ok {
		thread = &Thread{UserID: userID}
		s.threads[userID] = thread
	}

	msg := Message{
		ID:          uuid.NewString(),
		Text:        text,
		Sender:      model.SenderAdmin,
		Timestamp:   s.now(),
		ReadByAdmin: true,
	}

	thread.Messages = append(thread.Messages, msg)
	if msg.Timestamp.After(thread.LastActivity) {
		thread.LastActivity = msg.Timestamp
	}

	emitter := s.emitter
	onChange := s.onChange
	s.mu.Unlock()

	if emitter != nil {
		err := emitter.Emit(dto.EventSendAdminMessage, dto.SendAdminMessagePayload{
			UserID:     userID,
			MessageID:  msg.ID,
			Text:       text,
			SenderType: string(model.SenderAdmin),
			Timestamp:  msg.Timestamp.UTC().Format(time.RFC3339),
		})
		if err != nil {
			notify(onChange)
			return msg, err
		}
	}

	notify(onChange)
	return msg, nil
}

// Threads returns value copies of every conversation, most recent activity
// first.
func (s *Store) Threads() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Thread, 0, len(s.threads))
	for _, thread := range s.threads {
		copied := *thread
		copied.Messages = append([]Message(nil), thread.Messages...)
		out = append(out, copied)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})

	return out
}

// ThreadFor returns one conversation by user id.
func (s *Store) ThreadFor(userID string) (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[userID]
	if !ok {
		return Thread{}, false
	}

	copied := *thread
	copied.Messages = append([]Message(nil), thread.Messages...)
	return copied, true
}

func (s *Store) Unread(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[userID]
}

func (s *Store) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, count := range s.unread {
		total += count
	}
	return total
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}

func fromPayload(payload dto.ChatMessagePayload) Message {
	return Message{
		ID:          payload.MessageID,
		Text:        payload.Text,
		Sender:      model.SenderType(payload.SenderType),
		Timestamp:   parseTimestamp(payload.Timestamp),
		ReadByAdmin: payload.ReadByAdmin,
	}
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
