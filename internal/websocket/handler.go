package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"projukti-support-backend/internal/dto"
	chatservice "projukti-support-backend/internal/service/chat"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub         *Hub
	redisClient *redis.Client
	chat        *chatservice.Service
}

// NewHandler wires the hub to the chat service. redisClient may be nil for a
// single-instance deployment; room traffic then stays in process.
func NewHandler(h *Hub, redisClient *redis.Client, chat *chatservice.Service) *Handler {
	return &Handler{
		hub:         h,
		redisClient: redisClient,
		chat:        chat,
	}
}

func (h *Handler) subscribeToRoomChannel(roomID string) {
	log.Printf("Subscribing to Redis channel: %s", roomID)
	subscriber := h.redisClient.Subscribe(context.Background(), roomID)
	defer subscriber.Close()

	ch := subscriber.Channel()
	for msg := range ch {
		h.hub.Broadcast <- &WSMessage{
			Data:      []byte(msg.Payload),
			RoomID:    roomID,
			Timestamp: time.Now().Unix(),
		}
	}
	log.Printf("Unsubscribed from Redis channel: %s", roomID)
}

func (h *Handler) ensureRoom(id string) {
	if _, exists := h.hub.Rooms[id]; exists {
		return
	}

	h.hub.Rooms[id] = &Room{
		Id:      id,
		Clients: make(map[string]*WSClient),
	}
	setRooms(len(h.hub.Rooms))

	if h.redisClient != nil {
		go h.subscribeToRoomChannel(id)
	}
}

// JoinAgent attaches a dashboard connection to the shared agents room.
func (h *Handler) JoinAgent(w http.ResponseWriter, r *http.Request, agentID string) {
	h.join(w, r, AgentsRoom, agentID, "", "")
}

// JoinUser attaches a widget connection to its own room. The user name rides
// on the client so inbound messages can synthesize a thread on first contact.
func (h *Handler) JoinUser(w http.ResponseWriter, r *http.Request, userID, userName string) {
	h.join(w, r, UserRoomID(userID), userID, userID, userName)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request, roomID, clientID, userID, userName string) {
	h.ensureRoom(roomID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cl := &WSClient{
		Conn:     conn,
		Message:  make(chan *WSMessage, 10),
		ID:       clientID,
		RoomID:   roomID,
		UserID:   userID,
		UserName: userName,
		done:     make(chan struct{}),
		isClosed: false,
	}

	h.hub.Register <- cl

	go cl.keepAlive()
	go cl.writeMessage()
	go cl.readMessage(h)
}

// dispatch routes one inbound frame. Bad frames are logged and dropped; a
// misbehaving client must not take the room down.
func (h *Handler) dispatch(cl *WSClient, frame []byte) {
	var event dto.ChannelEvent
	if err := json.Unmarshal(frame, &event); err != nil {
		log.Printf("Client %s sent an undecodable frame: %v", cl.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch event.Event {
	case dto.EventJoinAdmin:
		h.handleJoinAdmin(ctx, cl)
	case dto.EventSendAdminMessage:
		h.handleSendAdminMessage(ctx, cl, event.Payload)
	case dto.EventSendUserMessage:
		h.handleSendUserMessage(ctx, cl, event.Payload)
	case dto.EventMarkMessagesAsRead:
		h.handleMarkMessagesAsRead(ctx, cl, event.Payload)
	default:
		log.Printf("Client %s sent unknown event %q", cl.ID, event.Event)
	}
}

func (h *Handler) handleJoinAdmin(ctx context.Context, cl *WSClient) {
	snapshot, err := h.chat.BuildSnapshot(ctx)
	if err != nil {
		log.Printf("Build snapshot for client %s: %v", cl.ID, err)
		return
	}

	data, err := encodeEvent(dto.EventAllUserChats, snapshot)
	if err != nil {
		log.Printf("Encode snapshot for client %s: %v", cl.ID, err)
		return
	}

	// The snapshot goes only to the client that asked for it; other agents
	// keep their own state.
	cl.send(&WSMessage{
		Data:      data,
		RoomID:    cl.RoomID,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) handleSendAdminMessage(ctx context.Context, cl *WSClient, payload json.RawMessage) {
	var req dto.SendAdminMessagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("Client %s sent bad sendAdminMessage payload: %v", cl.ID, err)
		return
	}
	if req.UserID == "" || req.Text == "" {
		log.Printf("Client %s sent sendAdminMessage without userId or text", cl.ID)
		return
	}

	result, err := h.chat.AppendAdminMessage(ctx, req.UserID, req.MessageID, req.Text)
	if err != nil {
		log.Printf("Append admin message for %s: %v", req.UserID, err)
		return
	}

	h.fanOutMessage(req.UserID, result)
}

func (h *Handler) handleSendUserMessage(ctx context.Context, cl *WSClient, payload json.RawMessage) {
	if cl.UserID == "" {
		log.Printf("Client %s sent sendUserMessage on a non-user connection", cl.ID)
		return
	}

	var req dto.SendUserMessagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("Client %s sent bad sendUserMessage payload: %v", cl.ID, err)
		return
	}
	if req.Text == "" {
		return
	}

	result, err := h.chat.AppendUserMessage(ctx, cl.UserID, cl.UserName, req.Text)
	if err != nil {
		log.Printf("Append user message for %s: %v", cl.UserID, err)
		return
	}

	h.fanOutMessage(cl.UserID, result)
}

func (h *Handler) handleMarkMessagesAsRead(ctx context.Context, cl *WSClient, payload json.RawMessage) {
	var req dto.MarkMessagesAsReadPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		log.Printf("Client %s sent bad markMessagesAsRead payload: %v", cl.ID, err)
		return
	}

	// Read receipts are fire and forget for the dashboard; a failure here is
	// logged and retried implicitly on the next full sync.
	if err := h.chat.MarkThreadRead(ctx, req.UserID); err != nil {
		log.Printf("Mark thread %s read: %v", req.UserID, err)
	}
}

// fanOutMessage delivers a stored message to every agent and to the customer
// it belongs to. Agents receiving their own message back reconcile it by id.
func (h *Handler) fanOutMessage(userID string, result chatservice.MessageResult) {
	payload := dto.NewUserMessagePayload{
		UserID:  userID,
		Message: chatservice.ToMessagePayload(result.Message),
	}

	data, err := encodeEvent(dto.EventNewUserMessage, payload)
	if err != nil {
		log.Printf("Encode newUserMessage for %s: %v", userID, err)
		return
	}

	h.NotifyRoom(AgentsRoom, data)
	h.NotifyRoom(UserRoomID(userID), data)
}

// NotifyRoom fans a frame out to a room. With Redis configured the frame goes
// through the channel so every server instance delivers it; without Redis it
// is broadcast in process.
func (h *Handler) NotifyRoom(roomID string, data []byte) {
	if h.redisClient != nil {
		if err := h.redisClient.Publish(context.Background(), roomID, string(data)).Err(); err != nil {
			log.Printf("Publish to Redis channel %s: %v", roomID, err)
		}
		return
	}

	h.hub.Broadcast <- &WSMessage{
		Data:      data,
		RoomID:    roomID,
		Timestamp: time.Now().Unix(),
	}
}

func (h *Handler) GetRooms(w http.ResponseWriter, r *http.Request) {
	rooms := make([]RoomRes, 0)

	for _, room := range h.hub.Rooms {
		rooms = append(rooms, RoomRes{
			ID: room.Id,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rooms)
}

func (h *Handler) SubscribeToRedisChannels() {
	if h.redisClient == nil {
		return
	}
	for _, room := range h.hub.Rooms {
		go h.subscribeToRoomChannel(room.Id)
	}
}

func encodeEvent(event string, payload interface{}) ([]byte, error) {
	ev, err := dto.NewChannelEvent(event, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}
