package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"projukti-support-backend/internal/api"
	"projukti-support-backend/internal/dto"
	"projukti-support-backend/internal/model"
	ticketservice "projukti-support-backend/internal/service/ticket"
)

// maxMultipartMemory leaves headroom above the attachment limit so a request
// at exactly the limit still parses and gets a proper validation error.
const maxMultipartMemory = 12 << 20

type SupportEndpoints interface {
	Draft(http.ResponseWriter, *http.Request) error
	Submit(http.ResponseWriter, *http.Request) error
	Tickets(http.ResponseWriter, *http.Request) error
	TicketByID(http.ResponseWriter, *http.Request) error
}

type SupportPaths struct {
	DraftPath     string
	SubmitPath    string
	TicketsPath   string
	TicketsPrefix string
}

type supportEndpoints struct {
	service *ticketservice.Service
	paths   SupportPaths
}

func NewSupportEndpoints(service *ticketservice.Service, prefix string) SupportEndpoints {
	base := strings.TrimRight(prefix, "/")
	return NewSupportEndpointsWithPaths(service, SupportPaths{
		DraftPath:     base + "/support/draft",
		SubmitPath:    base + "/support",
		TicketsPath:   base + "/support/tickets",
		TicketsPrefix: base + "/support/tickets/",
	})
}

func NewSupportEndpointsWithPaths(service *ticketservice.Service, paths SupportPaths) SupportEndpoints {
	return &supportEndpoints{
		service: service,
		paths:   paths,
	}
}

func (h *supportEndpoints) Draft(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSaveDraft,
	})
}

func (h *supportEndpoints) Submit(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodPost: h.handleSubmitTicket,
	})
}

func (h *supportEndpoints) Tickets(w http.ResponseWriter, r *http.Request) error {
	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleListTickets,
	})
}

func (h *supportEndpoints) TicketByID(w http.ResponseWriter, r *http.Request) error {
	trimmed := strings.TrimRight(r.URL.Path, "/")
	if strings.HasSuffix(trimmed, "/status") {
		return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
			http.MethodPatch: h.handleUpdateTicketStatus,
		})
	}

	return MethodHandler(w, r, map[string]func(http.ResponseWriter, *http.Request) error{
		http.MethodGet: h.handleGetTicket,
	})
}

// handleSaveDraft upserts the autosaved copy of a ticket form. Drafts keep
// only the attachment file name; the bytes travel with the final submit.
func (h *supportEndpoints) handleSaveDraft(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid multipart payload",
			ErrorLog:   fmt.Errorf("parse draft form: %w", err),
		}
	}

	req := ticketservice.DraftRequest{
		DraftID: strings.TrimSpace(r.FormValue("draftId")),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
		Subject: strings.TrimSpace(r.FormValue("subject")),
		Problem: strings.TrimSpace(r.FormValue("problem")),
	}

	if _, header, err := r.FormFile("attachment"); err == nil {
		req.AttachmentName = header.Filename
	} else if name := strings.TrimSpace(r.FormValue("attachmentName")); name != "" {
		req.AttachmentName = name
	}

	draftID, err := h.service.SaveDraft(r.Context(), req)
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusOK, dto.SaveDraftResponse{
		Success: true,
		DraftID: draftID,
	})
}

func (h *supportEndpoints) handleSubmitTicket(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid multipart payload",
			ErrorLog:   fmt.Errorf("parse submit form: %w", err),
		}
	}

	req := ticketservice.SubmitRequest{
		Phone:   strings.TrimSpace(r.FormValue("phone")),
		Subject: strings.TrimSpace(r.FormValue("subject")),
		Problem: strings.TrimSpace(r.FormValue("problem")),
		DraftID: strings.TrimSpace(r.FormValue("draftId")),
	}

	if file, header, err := r.FormFile("attachment"); err == nil {
		defer file.Close()

		content, readErr := io.ReadAll(io.LimitReader(file, ticketservice.MaxAttachmentSize+1))
		if readErr != nil {
			return &HTTPError{
				StatusCode: http.StatusBadRequest,
				Message:    "Unable to read attachment",
				ErrorLog:   fmt.Errorf("read attachment: %w", readErr),
			}
		}

		req.Attachment = &ticketservice.Attachment{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        int64(len(content)),
			Content:     content,
		}
	}

	ticketID, err := h.service.SubmitTicket(r.Context(), req)
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusCreated, dto.SubmitTicketResponse{
		Success: true,
		Data:    dto.SubmitTicketData{InsertedID: ticketID},
	})
}

func (h *supportEndpoints) handleListTickets(w http.ResponseWriter, r *http.Request) error {
	tickets, err := h.service.ListTickets(r.Context(), 100)
	if err != nil {
		return h.serviceError(err)
	}

	resp := dto.ListTicketsResponse{Tickets: make([]dto.TicketMetadata, len(tickets))}
	for i, ticket := range tickets {
		resp.Tickets[i] = toTicketMetadata(ticket)
	}

	return api.WriteJSON(w, http.StatusOK, resp)
}

func (h *supportEndpoints) handleGetTicket(w http.ResponseWriter, r *http.Request) error {
	ticketID, err := h.extractTicketPath(r.URL.Path)
	if err != nil {
		return err
	}

	ticket, err := h.service.GetTicket(r.Context(), ticketID)
	if err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusOK, dto.TicketResponse{Ticket: toTicketMetadata(ticket)})
}

func (h *supportEndpoints) handleUpdateTicketStatus(w http.ResponseWriter, r *http.Request) error {
	ticketID, err := h.extractTicketPath(strings.TrimSuffix(strings.TrimRight(r.URL.Path, "/"), "/status"))
	if err != nil {
		return err
	}

	var req dto.UpdateTicketStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &HTTPError{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid request payload",
			ErrorLog:   fmt.Errorf("decode status update request: %w", err),
		}
	}

	if err := h.service.UpdateTicketStatus(r.Context(), ticketID, model.TicketStatus(req.Status)); err != nil {
		return h.serviceError(err)
	}

	return api.WriteJSON(w, http.StatusOK, ApiMessageResponse{Message: "Ticket status updated"})
}

func (h *supportEndpoints) extractTicketPath(path string) (string, error) {
	prefix := h.paths.TicketsPrefix
	if prefix == "" {
		return "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Ticket not found", ErrorLog: fmt.Errorf("ticket route not configured")}
	}
	trimmed := strings.TrimPrefix(path, prefix)
	if trimmed == path || trimmed == "" {
		return "", &HTTPError{StatusCode: http.StatusNotFound, Message: "Ticket not found", ErrorLog: fmt.Errorf("ticket id missing in path %s", path)}
	}
	return strings.Trim(trimmed, "/"), nil
}

func (h *supportEndpoints) serviceError(err error) error {
	var svcErr *ticketservice.Error
	if !errors.As(err, &svcErr) {
		return &HTTPError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			ErrorLog:   err,
		}
	}

	switch svcErr.Code {
	case ticketservice.ErrorCodeValidation:
		return &HTTPError{StatusCode: http.StatusBadRequest, Message: svcErr.Message, ErrorLog: err}
	case ticketservice.ErrorCodeNotFound:
		return &HTTPError{StatusCode: http.StatusNotFound, Message: svcErr.Message, ErrorLog: err}
	case ticketservice.ErrorCodeStorage:
		return &HTTPError{StatusCode: http.StatusBadGateway, Message: "Attachment storage unavailable", ErrorLog: err}
	default:
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", ErrorLog: err}
	}
}

func toTicketMetadata(ticket model.TicketItem) dto.TicketMetadata {
	return dto.TicketMetadata{
		TicketID:       ticket.TicketID,
		Phone:          ticket.Phone,
		Subject:        ticket.Subject,
		Problem:        ticket.Problem,
		Status:         string(ticket.Status),
		AttachmentKey:  ticket.AttachmentKey,
		AttachmentName: ticket.AttachmentName,
		AttachmentType: ticket.AttachmentType,
		AttachmentSize: ticket.AttachmentSize,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}
