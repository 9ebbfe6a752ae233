package widget

import (
	"fmt"
	"strings"

	ticketservice "projukti-support-backend/internal/service/ticket"
)

type Attachment struct {
	FileName    string
	ContentType string
	Size        int64
	Content     []byte
}

// Form is the customer's ticket form as currently filled in.
type Form struct {
	Phone      string
	Subject    string
	Problem    string
	Attachment *Attachment
}

func (f Form) Empty() bool {
	return strings.TrimSpace(f.Phone) == "" &&
		strings.TrimSpace(f.Subject) == "" &&
		strings.TrimSpace(f.Problem) == "" &&
		f.Attachment == nil
}

// Clone deep-copies the form so a snapshot taken for autosave cannot be
// mutated by later edits.
func (f Form) Clone() Form {
	out := f
	if f.Attachment != nil {
		att := *f.Attachment
		att.Content = append([]byte(nil), f.Attachment.Content...)
		out.Attachment = &att
	}
	return out
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate applies the same rules the server enforces, so a form that passes
// here is not bounced on submit.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Phone) == "" {
		return &ValidationError{Field: "phone", Reason: "is required"}
	}
	if strings.TrimSpace(f.Subject) == "" {
		return &ValidationError{Field: "subject", Reason: "is required"}
	}
	if strings.TrimSpace(f.Problem) == "" {
		return &ValidationError{Field: "problem", Reason: "is required"}
	}

	if att := f.Attachment; att != nil {
		if att.Size > ticketservice.MaxAttachmentSize {
			return &ValidationError{Field: "attachment", Reason: "exceeds the 10MB limit"}
		}
		if !ticketservice.AllowedAttachmentType(att.ContentType) {
			return &ValidationError{Field: "attachment", Reason: fmt.Sprintf("type %s is not allowed", att.ContentType)}
		}
	}

	return nil
}
