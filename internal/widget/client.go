package widget

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"projukti-support-backend/internal/dto"
	"projukti-support-backend/internal/env"

	"github.com/go-resty/resty/v2"
)

// SupportClient talks to the support REST surface. It implements both
// DraftAPI and TicketAPI so one client backs the whole widget.
type SupportClient struct {
	http *resty.Client
}

func NewSupportClient(baseURL string) *SupportClient {
	return &SupportClient{
		http: resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
	}
}

// NewSupportClientFromEnv reads the API base URL from SUPPORT_API_URL.
func NewSupportClientFromEnv() *SupportClient {
	return NewSupportClient(env.GetOrDefault(env.SupportAPIURL, "http://localhost:8080/api/v1"))
}

func (c *SupportClient) SaveDraft(ctx context.Context, form Form, draftID string) (string, error) {
	fields := map[string]string{
		"phone":   form.Phone,
		"subject": form.Subject,
		"problem": form.Problem,
	}
	if draftID != "" {
		fields["draftId"] = draftID
	}
	if form.Attachment != nil {
		// Drafts carry only the file name; bytes travel with the submit.
		fields["attachmentName"] = form.Attachment.FileName
	}

	var result dto.SaveDraftResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(fields).
		SetResult(&result).
		Post("/support/draft")
	if err != nil {
		return "", fmt.Errorf("save draft: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("save draft: server returned %s", resp.Status())
	}
	if !result.Success || result.DraftID == "" {
		return "", fmt.Errorf("save draft: unexpected response %q", resp.String())
	}

	return result.DraftID, nil
}

// Submit uploads the form as multipart. The body is built up front so the
// progress callback can report real upload percentages.
func (c *SupportClient) Submit(ctx context.Context, form Form, draftID string, progress func(int)) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"phone":   form.Phone,
		"subject": form.Subject,
		"problem": form.Problem,
		"status":  "pending",
	}
	if draftID != "" {
		fields["draftId"] = draftID
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("submit ticket: build form: %w", err)
		}
	}

	if att := form.Attachment; att != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="attachment"; filename="%s"`, att.FileName))
		header.Set("Content-Type", att.ContentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return "", fmt.Errorf("submit ticket: attachment part: %w", err)
		}
		if _, err := part.Write(att.Content); err != nil {
			return "", fmt.Errorf("submit ticket: write attachment: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("submit ticket: close form: %w", err)
	}

	reader := &progressReader{
		r:     body,
		total: int64(body.Len()),
		fn:    progress,
	}

	var result dto.SubmitTicketResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", writer.FormDataContentType()).
		SetBody(reader).
		SetResult(&result).
		Post("/support")
	if err != nil {
		return "", fmt.Errorf("submit ticket: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("submit ticket: server returned %s", resp.Status())
	}
	if !result.Success || result.Data.InsertedID == "" {
		return "", fmt.Errorf("submit ticket: unexpected response %q", resp.String())
	}

	if progress != nil {
		progress(100)
	}

	return result.Data.InsertedID, nil
}

// progressReader reports how much of the request body has been consumed.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	fn    func(int)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)

	if p.fn != nil && p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		p.fn(pct)
	}

	return n, err
}
