package ticket

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"projukti-support-backend/internal/model"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeStorage    ErrorCode = "storage_error"
	ErrorCodeInternal   ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MaxAttachmentSize is the upper bound for a single ticket attachment.
const MaxAttachmentSize = 10 << 20

var allowedAttachmentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":                   true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/x-rar-compressed": true,
	"application/vnd.rar":          true,
}

// AllowedAttachmentType accepts any image/* subtype plus the document and
// archive types support agents are equipped to open.
func AllowedAttachmentType(contentType string) bool {
	if strings.HasPrefix(contentType, "image/") {
		return true
	}
	return allowedAttachmentTypes[contentType]
}

type Attachment struct {
	FileName    string
	ContentType string
	Size        int64
	Content     []byte
}

type SubmitRequest struct {
	Phone      string
	Subject    string
	Problem    string
	DraftID    string
	Attachment *Attachment
}

type DraftRequest struct {
	DraftID        string
	Phone          string
	Subject        string
	Problem        string
	AttachmentName string
}

// SubmittedEvent is published after a ticket has been durably stored.
type SubmittedEvent struct {
	TicketID    string `json:"ticketId"`
	Subject     string `json:"subject"`
	Phone       string `json:"phone"`
	SubmittedAt string `json:"submittedAt"`
}

type Publisher interface {
	TicketSubmitted(ctx context.Context, ev SubmittedEvent) error
}

type Service struct {
	repo      Repository
	store     ObjectStore
	publisher Publisher
	now       func() time.Time
}

// New builds a ticket service. store and publisher may be nil when the
// deployment runs without object storage or a broker; attachment uploads and
// submission events are skipped accordingly.
func New(repo Repository, store ObjectStore, publisher Publisher) *Service {
	return NewWithClock(repo, store, publisher, time.Now)
}

func NewWithClock(repo Repository, store ObjectStore, publisher Publisher, now func() time.Time) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		publisher: publisher,
		now:       now,
	}
}

// SaveDraft upserts a draft. A request without a draftId creates one; reusing
// the returned id keeps later saves updating the same draft and preserves its
// original createdAt.
func (s *Service) SaveDraft(ctx context.Context, req DraftRequest) (string, error) {
	nowStr := s.now().UTC().Format(time.RFC3339)

	draft := model.DraftItem{
		DraftID:        req.DraftID,
		Phone:          req.Phone,
		Subject:        req.Subject,
		Problem:        req.Problem,
		AttachmentName: req.AttachmentName,
		CreatedAt:      nowStr,
		UpdatedAt:      nowStr,
	}

	if draft.DraftID == "" {
		draft.DraftID = uuid.NewString()
	} else {
		existing, err := s.repo.GetDraft(ctx, draft.DraftID)
		if err == nil {
			draft.CreatedAt = existing.CreatedAt
		} else if !errors.Is(err, ErrNotFound) {
			return "", &Error{Code: ErrorCodeInternal, Message: "failed to load draft", Err: err}
		}
	}

	if err := s.repo.PutDraft(ctx, draft); err != nil {
		return "", &Error{Code: ErrorCodeInternal, Message: "failed to save draft", Err: err}
	}

	return draft.DraftID, nil
}

// SubmitTicket validates the request, stores the attachment if present, and
// persists the ticket with status pending. Validation runs before any side
// effect so a rejected request leaves no partial state behind.
func (s *Service) SubmitTicket(ctx context.Context, req SubmitRequest) (string, error) {
	if err := validateSubmit(req); err != nil {
		return "", err
	}

	now := s.now().UTC()
	nowStr := now.Format(time.RFC3339)
	ticketID := uuid.NewString()

	ticket := model.TicketItem{
		TicketID:  ticketID,
		Phone:     strings.TrimSpace(req.Phone),
		Subject:   strings.TrimSpace(req.Subject),
		Problem:   strings.TrimSpace(req.Problem),
		Status:    model.TicketStatusPending,
		CreatedAt: nowStr,
		UpdatedAt: nowStr,
	}

	if req.Attachment != nil {
		if s.store == nil {
			return "", &Error{Code: ErrorCodeStorage, Message: "attachment storage is not configured"}
		}
		key := fmt.Sprintf("tickets/%s/%s", ticketID, req.Attachment.FileName)
		if err := s.store.Put(ctx, key, req.Attachment.ContentType, req.Attachment.Content); err != nil {
			return "", &Error{Code: ErrorCodeStorage, Message: "failed to store attachment", Err: err}
		}
		ticket.AttachmentKey = key
		ticket.AttachmentName = req.Attachment.FileName
		ticket.AttachmentType = req.Attachment.ContentType
		ticket.AttachmentSize = req.Attachment.Size
	}

	if err := s.repo.PutTicket(ctx, ticket); err != nil {
		return "", &Error{Code: ErrorCodeInternal, Message: "failed to save ticket", Err: err}
	}

	// The ticket is durable at this point; draft cleanup and event publishing
	// are best effort and must not fail the submission.
	if req.DraftID != "" {
		if err := s.repo.DeleteDraft(ctx, req.DraftID); err != nil {
			log.Printf("ticket service: delete draft %s after submit: %v", req.DraftID, err)
		}
	}

	if s.publisher != nil {
		ev := SubmittedEvent{
			TicketID:    ticketID,
			Subject:     ticket.Subject,
			Phone:       ticket.Phone,
			SubmittedAt: nowStr,
		}
		if err := s.publisher.TicketSubmitted(ctx, ev); err != nil {
			log.Printf("ticket service: publish submitted event for %s: %v", ticketID, err)
		}
	}

	return ticketID, nil
}

func validateSubmit(req SubmitRequest) error {
	if strings.TrimSpace(req.Phone) == "" {
		return &Error{Code: ErrorCodeValidation, Message: "phone is required"}
	}
	if strings.TrimSpace(req.Subject) == "" {
		return &Error{Code: ErrorCodeValidation, Message: "subject is required"}
	}
	if strings.TrimSpace(req.Problem) == "" {
		return &Error{Code: ErrorCodeValidation, Message: "problem is required"}
	}

	if att := req.Attachment; att != nil {
		if att.FileName == "" {
			return &Error{Code: ErrorCodeValidation, Message: "attachment file name is required"}
		}
		if att.Size > MaxAttachmentSize {
			return &Error{Code: ErrorCodeValidation, Message: "attachment exceeds the 10MB limit"}
		}
		if !AllowedAttachmentType(att.ContentType) {
			return &Error{Code: ErrorCodeValidation, Message: fmt.Sprintf("attachment type %s is not allowed", att.ContentType)}
		}
	}

	return nil
}

func (s *Service) GetTicket(ctx context.Context, ticketID string) (model.TicketItem, error) {
	ticket, err := s.repo.GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.TicketItem{}, &Error{Code: ErrorCodeNotFound, Message: "ticket not found"}
		}
		return model.TicketItem{}, &Error{Code: ErrorCodeInternal, Message: "failed to load ticket", Err: err}
	}
	return ticket, nil
}

func (s *Service) ListTickets(ctx context.Context, limit int) ([]model.TicketItem, error) {
	tickets, err := s.repo.ListTickets(ctx, limit)
	if err != nil {
		return nil, &Error{Code: ErrorCodeInternal, Message: "failed to list tickets", Err: err}
	}
	return tickets, nil
}

func (s *Service) UpdateTicketStatus(ctx context.Context, ticketID string, status model.TicketStatus) error {
	if !model.ValidTicketStatus(status) {
		return &Error{Code: ErrorCodeValidation, Message: fmt.Sprintf("unknown ticket status %q", status)}
	}

	err := s.repo.UpdateTicketStatus(ctx, ticketID, status, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Error{Code: ErrorCodeNotFound, Message: "ticket not found"}
		}
		return &Error{Code: ErrorCodeInternal, Message: "failed to update ticket status", Err: err}
	}
	return nil
}

// DeleteDraftsBefore removes drafts not touched since the cutoff and reports
// how many were deleted.
func (s *Service) DeleteDraftsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	drafts, err := s.repo.ListDraftsUpdatedBefore(ctx, cutoff)
	if err != nil {
		return 0, &Error{Code: ErrorCodeInternal, Message: "failed to list stale drafts", Err: err}
	}

	deleted := 0
	for _, draft := range drafts {
		if err := s.repo.DeleteDraft(ctx, draft.DraftID); err != nil {
			log.Printf("ticket service: delete stale draft %s: %v", draft.DraftID, err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
