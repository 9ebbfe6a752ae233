package job

import (
	"context"
	"log"
	"time"

	"projukti-support-backend/internal/service/ticket"
)

// DraftCleanupJob prunes abandoned drafts. Drafts are cheap to keep for a
// while, so the retention window is generous; the job only reclaims forms the
// customer clearly walked away from.
type DraftCleanupJob struct {
	svc    *ticket.Service
	maxAge time.Duration
}

func NewDraftCleanupJob(svc *ticket.Service, maxAge time.Duration) *DraftCleanupJob {
	return &DraftCleanupJob{svc: svc, maxAge: maxAge}
}

// Run implements cron.Job.
func (j *DraftCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-j.maxAge)
	deleted, err := j.svc.DeleteDraftsBefore(ctx, cutoff)
	if err != nil {
		log.Printf("draft cleanup: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("draft cleanup: removed %d drafts older than %s", deleted, j.maxAge)
	}
}
