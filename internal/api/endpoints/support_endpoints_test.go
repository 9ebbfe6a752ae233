package endpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"projukti-support-backend/internal/dto"
	"projukti-support-backend/internal/model"
	ticketservice "projukti-support-backend/internal/service/ticket"
)

type stubTicketRepo struct {
	mu      sync.Mutex
	drafts  map[string]model.DraftItem
	tickets map[string]model.TicketItem
}

func newStubTicketRepo() *stubTicketRepo {
	return &stubTicketRepo{
		drafts:  make(map[string]model.DraftItem),
		tickets: make(map[string]model.TicketItem),
	}
}

func (m *stubTicketRepo) PutDraft(_ context.Context, draft model.DraftItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[draft.DraftID] = draft
	return nil
}

func (m *stubTicketRepo) GetDraft(_ context.Context, draftID string) (model.DraftItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.drafts[draftID]
	if !ok {
		return model.DraftItem{}, ticketservice.ErrNotFound
	}
	return draft, nil
}

func (m *stubTicketRepo) DeleteDraft(_ context.Context, draftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, draftID)
	return nil
}

func (m *stubTicketRepo) ListDraftsUpdatedBefore(_ context.Context, _ time.Time) ([]model.DraftItem, error) {
	return nil, nil
}

func (m *stubTicketRepo) PutTicket(_ context.Context, ticket model.TicketItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket.TicketID] = ticket
	return nil
}

func (m *stubTicketRepo) GetTicket(_ context.Context, ticketID string) (model.TicketItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[ticketID]
	if !ok {
		return model.TicketItem{}, ticketservice.ErrNotFound
	}
	return ticket, nil
}

func (m *stubTicketRepo) ListTickets(_ context.Context, limit int) ([]model.TicketItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.TicketItem, 0, len(m.tickets))
	for _, ticket := range m.tickets {
		out = append(out, ticket)
	}
	return out, nil
}

func (m *stubTicketRepo) UpdateTicketStatus(_ context.Context, ticketID string, status model.TicketStatus, updatedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[ticketID]
	if !ok {
		return ticketservice.ErrNotFound
	}
	ticket.Status = status
	ticket.UpdatedAt = updatedAt
	m.tickets[ticketID] = ticket
	return nil
}

func newTestSupportEndpoints(repo *stubTicketRepo) SupportEndpoints {
	return NewSupportEndpoints(ticketservice.New(repo, nil, nil), "")
}

func multipartBody(t *testing.T, fields map[string]string, fileName, fileType string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if fileName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="attachment"; filename="`+fileName+`"`)
		header.Set("Content-Type", fileType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create attachment part: %v", err)
		}
		if _, err := part.Write(fileContent); err != nil {
			t.Fatalf("write attachment: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

type stubObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *stubObjectStore) Put(_ context.Context, key string, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = data
	return nil
}

func (s *stubObjectStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func TestSubmitTicketEndpoint(t *testing.T) {
	repo := newStubTicketRepo()
	store := &stubObjectStore{}
	endpoints := NewSupportEndpoints(ticketservice.New(repo, store, nil), "")

	body, contentType := multipartBody(t, map[string]string{
		"phone":   "01712345678",
		"subject": "slow connection",
		"problem": "download speed dropped since monday",
		"status":  "pending",
	}, "speedtest.png", "image/png", []byte("png-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/support", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	if err := endpoints.Submit(rec, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var resp dto.SubmitTicketResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success true")
	}
	if resp.Data.InsertedID == "" {
		t.Fatal("expected an inserted id")
	}

	ticket, err := repo.GetTicket(context.Background(), resp.Data.InsertedID)
	if err != nil {
		t.Fatalf("expected ticket stored, got %v", err)
	}
	if ticket.Status != model.TicketStatusPending {
		t.Fatalf("expected pending, got %s", ticket.Status)
	}
	if ticket.AttachmentName != "speedtest.png" {
		t.Fatalf("expected attachment name recorded, got %q", ticket.AttachmentName)
	}
	if _, ok := store.objects[ticket.AttachmentKey]; !ok {
		t.Fatal("expected attachment bytes in the object store")
	}
}

func TestSubmitTicketEndpointMissingFields(t *testing.T) {
	endpoints := newTestSupportEndpoints(newStubTicketRepo())

	body, contentType := multipartBody(t, map[string]string{"phone": "01711"}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/support", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	err := endpoints.Submit(rec, req)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", httpErr.StatusCode)
	}
}

func TestSaveDraftEndpointReturnsDraftID(t *testing.T) {
	repo := newStubTicketRepo()
	endpoints := newTestSupportEndpoints(repo)

	body, contentType := multipartBody(t, map[string]string{
		"phone":   "01711",
		"subject": "draft subject",
	}, "", "", nil)

	req := httptest.NewRequest(http.MethodPost, "/support/draft", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	if err := endpoints.Draft(rec, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var resp dto.SaveDraftResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.DraftID == "" {
		t.Fatalf("expected success with a draft id, got %+v", resp)
	}

	// The returned id must keep pointing at the same draft.
	body2, contentType2 := multipartBody(t, map[string]string{
		"draftId": resp.DraftID,
		"phone":   "01711",
		"subject": "updated subject",
	}, "", "", nil)
	req2 := httptest.NewRequest(http.MethodPost, "/support/draft", body2)
	req2.Header.Set("Content-Type", contentType2)
	rec2 := httptest.NewRecorder()

	if err := endpoints.Draft(rec2, req2); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var resp2 dto.SaveDraftResponse
	if err := json.NewDecoder(rec2.Body).Decode(&resp2); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp2.DraftID != resp.DraftID {
		t.Fatalf("expected draft id %s to be reused, got %s", resp.DraftID, resp2.DraftID)
	}

	draft, err := repo.GetDraft(context.Background(), resp.DraftID)
	if err != nil {
		t.Fatalf("expected draft stored, got %v", err)
	}
	if draft.Subject != "updated subject" {
		t.Fatalf("expected updated subject, got %q", draft.Subject)
	}
}

func TestUpdateTicketStatusEndpoint(t *testing.T) {
	repo := newStubTicketRepo()
	service := ticketservice.New(repo, nil, nil)
	supportEndpoints := NewSupportEndpoints(service, "")

	ticketID, err := service.SubmitTicket(context.Background(), ticketservice.SubmitRequest{
		Phone: "01711", Subject: "s", Problem: "p",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	payload, _ := json.Marshal(dto.UpdateTicketStatusRequest{Status: "resolved"})
	req := httptest.NewRequest(http.MethodPatch, "/support/tickets/"+ticketID+"/status", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	if err := supportEndpoints.TicketByID(rec, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ticket, _ := repo.GetTicket(context.Background(), ticketID)
	if ticket.Status != model.TicketStatusResolved {
		t.Fatalf("expected resolved, got %s", ticket.Status)
	}
}
