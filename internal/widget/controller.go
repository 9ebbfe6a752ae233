package widget

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultResetDelay is how long the success screen stays up before the form
// clears for the next ticket.
const DefaultResetDelay = 3000 * time.Millisecond

type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

var ErrSubmitInProgress = errors.New("a submission is already in progress")

// TicketAPI submits the finished form. progress is called with 0 to 100 as
// the upload advances.
type TicketAPI interface {
	Submit(ctx context.Context, form Form, draftID string, progress func(int)) (string, error)
}

// Controller drives the form through editing, submitting, and submitted. A
// submit locks out further submits and autosaves until the post-success reset
// clears everything at once.
type Controller struct {
	api        TicketAPI
	scheduler  *Scheduler
	guard      *SubmitGuard
	resetDelay time.Duration

	mu         sync.Mutex
	state      State
	form       Form
	insertedID string
	progress   int
	resetTimer *time.Timer
}

func NewController(api TicketAPI, scheduler *Scheduler, guard *SubmitGuard) *Controller {
	return NewControllerWithResetDelay(api, scheduler, guard, DefaultResetDelay)
}

func NewControllerWithResetDelay(api TicketAPI, scheduler *Scheduler, guard *SubmitGuard, resetDelay time.Duration) *Controller {
	return &Controller{
		api:        api,
		scheduler:  scheduler,
		guard:      guard,
		resetDelay: resetDelay,
		state:      StateEditing,
	}
}

// UpdateForm records an edit and schedules an autosave. Edits made outside
// the editing state are dropped.
func (c *Controller) UpdateForm(form Form) {
	c.mu.Lock()
	if c.state != StateEditing {
		c.mu.Unlock()
		return
	}
	c.form = form.Clone()
	c.mu.Unlock()

	c.scheduler.Update(form)
}

// Submit validates and sends the form. Validation failures leave everything
// untouched; a transport failure returns to editing with the data intact so
// the customer can retry.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state != StateEditing {
		c.mu.Unlock()
		return "", ErrSubmitInProgress
	}

	form := c.form.Clone()
	if err := form.Validate(); err != nil {
		c.mu.Unlock()
		return "", err
	}

	c.guard.set(true)
	c.state = StateSubmitting
	c.progress = 0
	c.mu.Unlock()

	c.scheduler.CancelPending()

	insertedID, err := c.api.Submit(ctx, form, c.scheduler.DraftID(), c.setProgress)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.guard.set(false)
		c.state = StateEditing
		return "", err
	}

	c.insertedID = insertedID
	c.state = StateSubmitted
	c.progress = 100
	c.resetTimer = time.AfterFunc(c.resetDelay, c.reset)

	return insertedID, nil
}

// reset clears the form, the guard, and the state together so no observer
// ever sees a cleared form that still refuses autosaves, or the reverse.
func (c *Controller) reset() {
	c.mu.Lock()
	c.form = Form{}
	c.insertedID = ""
	c.progress = 0
	c.state = StateEditing
	c.guard.set(false)
	c.mu.Unlock()

	c.scheduler.Reset()
}

func (c *Controller) setProgress(pct int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	c.progress = pct
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Clone()
}

func (c *Controller) InsertedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertedID
}

func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}
