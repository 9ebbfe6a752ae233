package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"projukti-support-backend/internal/dto"
	"projukti-support-backend/internal/model"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	ErrorCodeValidation ErrorCode = "validation_error"
	ErrorCodeNotFound   ErrorCode = "not_found"
	ErrorCodeInternal   ErrorCode = "internal_error"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

const snapshotMessageLimit = 200

type MessageResult struct {
	Thread  model.ThreadItem
	Message model.ChatMessageItem
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

func NewWithClock(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo: repo,
		now:  now,
	}
}

// AppendUserMessage stores an end-user message, creating the thread on first
// contact. A brand-new userId is never an error.
func (s *Service) AppendUserMessage(ctx context.Context, userID, userName, text string) (MessageResult, error) {
	userID = strings.TrimSpace(userID)
	text = strings.TrimSpace(text)

	if userID == "" {
		return MessageResult{}, newError(ErrorCodeValidation, "userId is required", nil)
	}
	if text == "" {
		return MessageResult{}, newError(ErrorCodeValidation, "message text is required", nil)
	}

	now := s.now().UTC()
	nowStr := now.Format(time.RFC3339)

	thread, err := s.repo.GetThread(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return MessageResult{}, newError(ErrorCodeInternal, "failed to load thread", err)
		}
		thread = model.ThreadItem{
			UserID:    userID,
			CreatedAt: nowStr,
		}
	}

	if name := strings.TrimSpace(userName); name != "" {
		thread.UserName = name
	}
	thread.LastActivity = nowStr

	messageID := uuid.NewString()
	message := model.ChatMessageItem{
		PK:          model.ChatMessagePK(userID, messageID),
		UserID:      userID,
		MessageID:   messageID,
		SenderType:  model.SenderUser,
		Body:        text,
		ReadByAdmin: false,
		CreatedAt:   nowStr,
	}

	if err := s.repo.PutMessage(ctx, message); err != nil {
		return MessageResult{}, newError(ErrorCodeInternal, "failed to store message", err)
	}
	if err := s.repo.PutThread(ctx, thread); err != nil {
		return MessageResult{}, newError(ErrorCodeInternal, "failed to update thread", err)
	}

	return MessageResult{Thread: thread, Message: message}, nil
}

// AppendAdminMessage stores an agent reply. The messageId may be supplied by
// the dashboard so its locally echoed copy and the broadcast copy can be
// reconciled; an empty id gets generated here.
func (s *Service) AppendAdminMessage(ctx context.Context, userID, messageID, text string) (MessageResult, error) {
	userID = strings.TrimSpace(userID)
	text = strings.TrimSpace(text)

	if userID == "" {
		return MessageResult{}, newError(ErrorCodeValidation, "userId is required", nil)
	}
	if text == "" {
		return MessageResult{}, newError(ErrorCodeValidation, "message text is required", nil)
	}

	now := s.now().UTC()
	nowStr := now.Format(time.RFC3339)

	thread, err := s.repo.GetThread(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return MessageResult{}, newError(ErrorCodeInternal, "failed to load thread", err)
		}
		thread = model.ThreadItem{
			UserID:    userID,
			CreatedAt: nowStr,
		}
	}
	thread.LastActivity = nowStr

	if messageID = strings.TrimSpace(messageID); messageID == "" {
		messageID = uuid.NewString()
	}

	message := model.ChatMessageItem{
		PK:          model.ChatMessagePK(userID, messageID),
		UserID:      userID,
		MessageID:   messageID,
		SenderType:  model.SenderAdmin,
		Body:        text,
		ReadByAdmin: true,
		CreatedAt:   nowStr,
	}

	if err := s.repo.PutMessage(ctx, message); err != nil {
		return MessageResult{}, newError(ErrorCodeInternal, "failed to store message", err)
	}
	if err := s.repo.PutThread(ctx, thread); err != nil {
		return MessageResult{}, newError(ErrorCodeInternal, "failed to update thread", err)
	}

	return MessageResult{Thread: thread, Message: message}, nil
}

// MarkThreadRead flips readByAdmin on every unread user message of the
// thread. The dashboard has already zeroed its local counter by the time this
// runs; failures here only delay server-side convergence.
func (s *Service) MarkThreadRead(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return newError(ErrorCodeValidation, "userId is required", nil)
	}

	messages, err := s.repo.ListMessages(ctx, userID, 0)
	if err != nil {
		return newError(ErrorCodeInternal, "failed to list messages", err)
	}

	for _, msg := range messages {
		if msg.SenderType != model.SenderUser || msg.ReadByAdmin {
			continue
		}
		if err := s.repo.MarkMessageRead(ctx, msg.PK); err != nil {
			return newError(ErrorCodeInternal, "failed to mark message read", err)
		}
	}
	return nil
}

// BuildSnapshot assembles the authoritative full-sync payload emitted after
// an admin join.
func (s *Service) BuildSnapshot(ctx context.Context) (dto.AllUserChatsPayload, error) {
	threads, err := s.repo.ListThreads(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list threads", err)
	}

	snapshot := make(dto.AllUserChatsPayload, len(threads))
	for _, thread := range threads {
		messages, err := s.repo.ListMessages(ctx, thread.UserID, snapshotMessageLimit)
		if err != nil {
			return nil, newError(ErrorCodeInternal, "failed to list messages", err)
		}

		payloads := make([]dto.ChatMessagePayload, 0, len(messages))
		for _, msg := range messages {
			payloads = append(payloads, toMessagePayload(msg))
		}

		snapshot[thread.UserID] = dto.ThreadSnapshot{
			UserName:     thread.UserName,
			Messages:     payloads,
			LastActivity: thread.LastActivity,
		}
	}

	return snapshot, nil
}

func (s *Service) ListThreads(ctx context.Context, limit int) ([]model.ThreadItem, error) {
	threads, err := s.repo.ListThreads(ctx)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list threads", err)
	}
	if limit > 0 && len(threads) > limit {
		threads = threads[:limit]
	}
	return threads, nil
}

func (s *Service) ListMessages(ctx context.Context, userID string, limit int) ([]model.ChatMessageItem, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, newError(ErrorCodeValidation, "userId is required", nil)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	if _, err := s.repo.GetThread(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(ErrorCodeNotFound, "thread not found", err)
		}
		return nil, newError(ErrorCodeInternal, "failed to load thread", err)
	}

	messages, err := s.repo.ListMessages(ctx, userID, limit)
	if err != nil {
		return nil, newError(ErrorCodeInternal, "failed to list messages", err)
	}
	return messages, nil
}

func toMessagePayload(msg model.ChatMessageItem) dto.ChatMessagePayload {
	return dto.ChatMessagePayload{
		MessageID:   msg.MessageID,
		Text:        msg.Body,
		SenderType:  string(msg.SenderType),
		Timestamp:   msg.CreatedAt,
		ReadByAdmin: msg.ReadByAdmin,
	}
}

// ToMessagePayload converts a stored message into its wire form.
func ToMessagePayload(msg model.ChatMessageItem) dto.ChatMessagePayload {
	return toMessagePayload(msg)
}
