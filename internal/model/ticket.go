package model

type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

func ValidTicketStatus(status TicketStatus) bool {
	switch status {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

type TicketItem struct {
	TicketID       string       `dynamodbav:"ticketId"`
	Phone          string       `dynamodbav:"phone"`
	Subject        string       `dynamodbav:"subject"`
	Problem        string       `dynamodbav:"problem"`
	Status         TicketStatus `dynamodbav:"status"`
	AttachmentKey  string       `dynamodbav:"attachmentKey,omitempty"`
	AttachmentName string       `dynamodbav:"attachmentName,omitempty"`
	AttachmentType string       `dynamodbav:"attachmentType,omitempty"`
	AttachmentSize int64        `dynamodbav:"attachmentSize,omitempty"`
	CreatedAt      string       `dynamodbav:"createdAt"`
	UpdatedAt      string       `dynamodbav:"updatedAt"`
}

// DraftItem is the recoverable snapshot of a ticket form that has not been
// submitted yet. Attachment content is not persisted with the draft; only the
// chosen file name travels along so the widget can restore its UI state.
type DraftItem struct {
	DraftID        string `dynamodbav:"draftId"`
	Phone          string `dynamodbav:"phone,omitempty"`
	Subject        string `dynamodbav:"subject,omitempty"`
	Problem        string `dynamodbav:"problem,omitempty"`
	AttachmentName string `dynamodbav:"attachmentName,omitempty"`
	CreatedAt      string `dynamodbav:"createdAt"`
	UpdatedAt      string `dynamodbav:"updatedAt"`
}
