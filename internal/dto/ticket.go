package dto

type SubmitTicketData struct {
	InsertedID string `json:"insertedId"`
}

// SubmitTicketResponse matches the shape the dashboard and the widget already
// consume: {"success":true,"data":{"insertedId":"..."}}.
type SubmitTicketResponse struct {
	Success bool             `json:"success"`
	Data    SubmitTicketData `json:"data"`
}

type SaveDraftResponse struct {
	Success bool   `json:"success"`
	DraftID string `json:"draftId"`
}

type TicketMetadata struct {
	TicketID       string `json:"ticketId"`
	Phone          string `json:"phone"`
	Subject        string `json:"subject"`
	Problem        string `json:"problem"`
	Status         string `json:"status"`
	AttachmentKey  string `json:"attachmentKey,omitempty"`
	AttachmentName string `json:"attachmentName,omitempty"`
	AttachmentType string `json:"attachmentType,omitempty"`
	AttachmentSize int64  `json:"attachmentSize,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

type TicketResponse struct {
	Ticket TicketMetadata `json:"ticket"`
}

type ListTicketsResponse struct {
	Tickets []TicketMetadata `json:"tickets"`
}

type UpdateTicketStatusRequest struct {
	Status string `json:"status"`
}
