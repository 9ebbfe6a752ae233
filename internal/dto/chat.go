package dto

import "encoding/json"

// Event names on the push channel. These are part of the wire contract with
// the dashboard and the widget, so they are spelled exactly as the clients
// expect them.
const (
	EventJoinAdmin          = "joinAdmin"
	EventAllUserChats       = "allUserChats"
	EventNewUserMessage     = "newUserMessage"
	EventSendAdminMessage   = "sendAdminMessage"
	EventSendUserMessage    = "sendUserMessage"
	EventMarkMessagesAsRead = "markMessagesAsRead"
)

// ChannelEvent is the envelope every frame on the push channel travels in.
type ChannelEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewChannelEvent(event string, payload interface{}) (ChannelEvent, error) {
	if payload == nil {
		return ChannelEvent{Event: event}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ChannelEvent{}, err
	}
	return ChannelEvent{Event: event, Payload: raw}, nil
}

type ChatMessagePayload struct {
	MessageID   string `json:"messageId"`
	Text        string `json:"text"`
	SenderType  string `json:"senderType"`
	Timestamp   string `json:"timestamp"`
	ReadByAdmin bool   `json:"readByAdmin"`
}

type NewUserMessagePayload struct {
	UserID  string             `json:"userId"`
	Message ChatMessagePayload `json:"message"`
}

type ThreadSnapshot struct {
	UserName     string               `json:"userName"`
	Messages     []ChatMessagePayload `json:"messages"`
	LastActivity string               `json:"lastActivity"`
}

// AllUserChatsPayload is the authoritative full-sync snapshot the server
// emits after an admin join, keyed by userId.
type AllUserChatsPayload map[string]ThreadSnapshot

type SendAdminMessagePayload struct {
	UserID     string `json:"userId"`
	MessageID  string `json:"messageId,omitempty"`
	Text       string `json:"text"`
	SenderType string `json:"senderType"`
	Timestamp  string `json:"timestamp"`
}

type SendUserMessagePayload struct {
	Text string `json:"text"`
}

type MarkMessagesAsReadPayload struct {
	UserID string `json:"userId"`
}

type ThreadMetadata struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName,omitempty"`
	CreatedAt    string `json:"createdAt"`
	LastActivity string `json:"lastActivity"`
}

type ListThreadsResponse struct {
	Threads []ThreadMetadata `json:"threads"`
}

type ListChatMessagesResponse struct {
	Messages []ChatMessagePayload `json:"messages"`
}
