package router

import (
	"net/http"
	"strings"

	"projukti-support-backend/internal/api"
	"projukti-support-backend/internal/api/endpoints"
	"projukti-support-backend/internal/api/middleware"
	ticketservice "projukti-support-backend/internal/service/ticket"
)

// SupportPublicRoutes exposes the widget-facing surface: draft autosave and
// final ticket submission. No auth, the widget runs on the public site.
func SupportPublicRoutes(prefix string, service *ticketservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		base := strings.TrimRight(prefix, "/")
		supportEndpoints := endpoints.NewSupportEndpointsWithPaths(service, endpoints.SupportPaths{
			DraftPath:  base + "/support/draft",
			SubmitPath: base + "/support",
		})

		mux.HandleFunc(base+"/support/draft", s.MakeHTTPHandleFunc(supportEndpoints.Draft))
		mux.HandleFunc(base+"/support", s.MakeHTTPHandleFunc(supportEndpoints.Submit))
	}
}

// SupportAgentRoutes exposes ticket administration to authenticated agents.
func SupportAgentRoutes(prefix string, service *ticketservice.Service) api.RouteRegistrar {
	return func(mux *http.ServeMux, s *api.APIServer) {
		base := strings.TrimRight(prefix, "/")
		supportEndpoints := endpoints.NewSupportEndpointsWithPaths(service, endpoints.SupportPaths{
			TicketsPath:   base + "/support/tickets",
			TicketsPrefix: base + "/support/tickets/",
		})

		mux.HandleFunc(base+"/support/tickets", s.MakeHTTPHandleFunc(supportEndpoints.Tickets, middleware.ValidateAgentJWT))
		mux.HandleFunc(base+"/support/tickets/", s.MakeHTTPHandleFunc(supportEndpoints.TicketByID, middleware.ValidateAgentJWT))
	}
}
