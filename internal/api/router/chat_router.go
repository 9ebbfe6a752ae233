package router

import (
	"net/http"
	"strings"

	"projukti-support-backend/internal/api"
	"projukti-support-backend/internal/api/endpoints"
	"projukti-support-backend/internal/api/middleware"
	chatservice "projukti-support-backend/internal/service/chat"
)

// ChatWebsocketRoutes registers the push channel endpoints. Agent sockets
// authenticate with a token query parameter inside the endpoint itself, user
// sockets are anonymous.
func ChatWebsocketRoutes(prefix string, service *chatservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		base := strings.TrimRight(prefix, "/")
		chatEndpoints := endpoints.NewChatEndpointsWithPaths(service, s.Handler(), endpoints.ChatPaths{})

		mux.HandleFunc(base+"/ws/agent", s.MakeHTTPHandleFunc(chatEndpoints.AgentWebsocket))
		mux.HandleFunc(base+"/ws/chat", s.MakeHTTPHandleFunc(chatEndpoints.UserWebsocket))
		mux.HandleFunc(base+"/ws/rooms", middleware.ValidateAgentJWT(s.Handler().GetRooms))
	}
}

// ChatHistoryRoutes lets the dashboard page through past threads over REST.
func ChatHistoryRoutes(prefix string, service *chatservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		base := strings.TrimRight(prefix, "/")
		chatEndpoints := endpoints.NewChatEndpointsWithPaths(service, s.Handler(), endpoints.ChatPaths{
			ThreadsPath:   base + "/chats",
			ThreadsPrefix: base + "/chats/",
		})

		mux.HandleFunc(base+"/chats", s.MakeHTTPHandleFunc(chatEndpoints.Threads, middleware.ValidateAgentJWT))
		mux.HandleFunc(base+"/chats/", s.MakeHTTPHandleFunc(chatEndpoints.ThreadMessages, middleware.ValidateAgentJWT))
	}
}
