package widget

import "sync"

// SubmitGuard is the single flag that keeps autosave and submission from
// racing: once a submit is underway no draft write may go out until the form
// resets.
type SubmitGuard struct {
	mu        sync.Mutex
	submitted bool
}

func NewSubmitGuard() *SubmitGuard {
	return &SubmitGuard{}
}

func (g *SubmitGuard) set(submitted bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitted = submitted
}

// Submitted reports whether a submit is in flight or recently completed.
func (g *SubmitGuard) Submitted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitted
}
