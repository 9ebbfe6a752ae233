package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"projukti-support-backend/internal/api"
	"projukti-support-backend/internal/dto"
	internaljwt "projukti-support-backend/internal/jwt"
	"projukti-support-backend/internal/model"
	chatservice "projukti-support-backend/internal/service/chat"
	"projukti-support-backend/internal/websocket"
)

type ChatEndpoints interface {
	AgentWebsocket(http.ResponseWriter, *http.Request) error
	UserWebsocket(http.ResponseWriter, *http.Request) error
	Threads(http.ResponseWriter, *http.Request) error
	ThreadMessages(http.ResponseWriter, *http.Request) error
}

type ChatPaths struct {
	ThreadsPath   string
	ThreadsPrefix string
}

type chatEndpoints struct {
	service *chatservice.Service
	handler *websocket.Handler
	paths   ChatPaths
}

func NewChatEndpoints(service *chatservice.Service, handler *websocket.Handler, prefix string) ChatEndpoints {
	base := strings.TrimRight(prefix, "/")
	return NewChatEndpointsWithPaths(service, handler, ChatPaths{
		ThreadsPath:   base + "/chats",
		ThreadsPrefix: base + "/chats/",
	})
}

func NewChatEndpointsWithPaths(service *chatservice.Service, handler *websocket.Handler, paths ChatPaths) ChatEndpoints {
	return &chatEndpoints{
		service: service,
		handler: handler,
		paths:   paths,
	}
}

// AgentWebsocket upgrades a dashboard connection. Browsers cannot set headers
// on websocket requests, so the agent token rides in the query string.
func (h *chatEndpoints) AgentWebsocket(w http.ResponseWriter, r *http.Request) error {
	if h.handler == nil {
		return &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Websocket not available",
			ErrorLog:   fmt.Errorf("agent websocket handler missing"),
		}
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Missing token",
			ErrorLog:   fmt.Errorf("agent websocket missing token"),
		}
	}

	agent, err := internaljwt.AgentFromToken(token)
	if err != nil {
		return &HTTPError{
			StatusCode: http.StatusUnauthorized,
			Message:    "Unauthorized",
			ErrorLog:   fmt.Errorf("agent websocket token: %w", err),
		}
	}

	h.handler.JoinAgent(w, r, agent.ID)
	return nil
}

func (h *chatEndpoints) UserWebsocket(w http.ResponseWriter, r *http.Request) error {
	if h.handler == nil {
		return &HTTPError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "Websocket not available",
			ErrorLog:   fmt.Errorf("user websocket handler missing"),
		}
	}

	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Missing userId parameter",
			ErrorLog:   fmt.Errorf("user websocket missing userId"),
		}
	}

	userName := strings.TrimSpace(r.URL.Query().Get("name"))
	if userName == "" {
		userName = userID
	}

	h.handler.JoinUser(w, r, userID, userName)
	return nil
}

func (h *chatEndpoints) Threads(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListThreads,
	})
}

func (h *chatEndpoints) ThreadMessages(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListThreadMessages,
	})
}

func (h *chatEndpoints) handleListThreads(w http.ResponseWriter, r *http.Request) error {
	threads, err := h.service.ListThreads(r.Context(), 100)
	if err != nil {
		return h.serviceError(err)
	}

	resp := dto.ListThreadsResponse{Threads: make([]dto.ThreadMetadata, len(threads))}
	for i, thread := range threads {
		resp.Threads[i] = toThreadMetadata(thread)
	}

	return api.WriteJSON(w, http.StatusOK, resp)
}

func (h *chatEndpoints) handleListThreadMessages(w http.ResponseWriter, r *http.Request) error {
	userID, err := h.extractThreadPath(r.URL.Path)
	if err != nil {
		return err
	}

	messages, err := h.service.ListMessages(r.Context(), userID, 200)
	if err != nil {
		return h.serviceError(err)
	}

	resp := dto.ListChatMessagesResponse{Messages: make([]dto.ChatMessagePayload, len(messages))}
	for i, msg := range messages {
		resp.Messages[i] = chatservice.ToMessagePayload(msg)
	}

	return api.WriteJSON(w, http.StatusOK, resp)
}

func (h *chatEndpoints) extractThreadPath(path string) (string, error) {
	prefix := h.paths.ThreadsPrefix
	if prefix == "" {
		return "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Thread not found", ErrorLog: fmt.Errorf("thread route not configured")}
	}
	trimmed := strings.TrimPrefix(path, prefix)
	if trimmed == path || trimmed == "" {
		return "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Thread not found", ErrorLog: fmt.Errorf("thread user id missing in path %s", path)}
	}
	return strings.Trim(trimmed, "/"), nil
}

func (h *chatEndpoints) serviceError(err error) error {
	var svcErr *chatservice.Error
	if !errors.As(err, &svcErr) {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   err,
		}
	}

	switch svcErr.Code {
	case chatservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: err}
	case chatservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: err}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: err}
	}
}

func toThreadMetadata(thread model.ThreadItem) dto.ThreadMetadata {
	return dto.ThreadMetadata{
		UserID:       thread.UserID,
		UserName:     thread.UserName,
		CreatedAt:    thread.CreatedAt,
		LastActivity: thread.LastActivity,
	}
}
