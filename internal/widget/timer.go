package widget

import (
	"sync"
	"time"
)

// debounceTimer runs a function once the caller has been quiet for the given
// delay. Every Start supersedes the previous one; the generation counter
// keeps a superseded callback from firing after a newer Start or a Cancel.
type debounceTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
}

func (d *debounceTimer) Start(delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.pending = true

	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()
		fn()
	})
}

func (d *debounceTimer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = false
}

func (d *debounceTimer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
