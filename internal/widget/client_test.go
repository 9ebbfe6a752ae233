package widget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"projukti-support-backend/internal/dto"
)

func TestSaveDraftSendsFields(t *testing.T) {
	var (
		mu       sync.Mutex
		gotForm  map[string]string
		gotPath  string
		gotCalls int
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		mu.Lock()
		gotCalls++
		gotPath = r.URL.Path
		gotForm = map[string]string{
			"phone":          r.FormValue("phone"),
			"subject":        r.FormValue("subject"),
			"draftId":        r.FormValue("draftId"),
			"attachmentName": r.FormValue("attachmentName"),
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.SaveDraftResponse{Success: true, DraftID: "draft-7"})
	}))
	defer srv.Close()

	client := NewSupportClient(srv.URL)
	form := Form{
		Phone:      "01711",
		Subject:    "draft",
		Attachment: &Attachment{FileName: "photo.png", ContentType: "image/png"},
	}

	draftID, err := client.SaveDraft(context.Background(), form, "draft-7")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if draftID != "draft-7" {
		t.Fatalf("expected draft-7, got %s", draftID)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotCalls != 1 || gotPath != "/support/draft" {
		t.Fatalf("expected 1 call to /support/draft, got %d to %s", gotCalls, gotPath)
	}
	if gotForm["phone"] != "01711" || gotForm["draftId"] != "draft-7" {
		t.Fatalf("unexpected fields: %+v", gotForm)
	}
	if gotForm["attachmentName"] != "photo.png" {
		t.Fatalf("expected attachment name only, got %+v", gotForm)
	}
}

func TestSubmitSendsMultipartWithPendingStatus(t *testing.T) {
	var (
		mu        sync.Mutex
		gotStatus string
		gotFile   string
		gotBytes  int
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/support" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}

		mu.Lock()
		gotStatus = r.FormValue("status")
		if file, header, err := r.FormFile("attachment"); err == nil {
			gotFile = header.Filename
			buf := make([]byte, 64)
			n, _ := file.Read(buf)
			gotBytes = n
			file.Close()
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(dto.SubmitTicketResponse{
			Success: true,
			Data:    dto.SubmitTicketData{InsertedID: "ticket-9"},
		})
	}))
	defer srv.Close()

	client := NewSupportClient(srv.URL)
	form := validForm()
	form.Attachment = &Attachment{
		FileName:    "speedtest.png",
		ContentType: "image/png",
		Content:     []byte("png-bytes"),
		Size:        9,
	}

	var progressMu sync.Mutex
	var lastProgress int
	insertedID, err := client.Submit(context.Background(), form, "draft-3", func(pct int) {
		progressMu.Lock()
		lastProgress = pct
		progressMu.Unlock()
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if insertedID != "ticket-9" {
		t.Fatalf("expected ticket-9, got %s", insertedID)
	}

	mu.Lock()
	if gotStatus != "pending" {
		t.Fatalf("expected status pending in form, got %q", gotStatus)
	}
	if gotFile != "speedtest.png" || gotBytes == 0 {
		t.Fatalf("expected attachment uploaded, got %q (%d bytes)", gotFile, gotBytes)
	}
	mu.Unlock()

	progressMu.Lock()
	defer progressMu.Unlock()
	if lastProgress != 100 {
		t.Fatalf("expected progress to end at 100, got %d", lastProgress)
	}
}

func TestSubmitServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"subject is required"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewSupportClient(srv.URL)
	if _, err := client.Submit(context.Background(), validForm(), "", nil); err == nil {
		t.Fatal("expected error on 400 response")
	}
}
