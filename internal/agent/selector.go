package agent

import "sync"

// Selector tracks which conversation the agent is looking at. Selecting a
// thread clears its unread badge; the read receipt only goes out when there
// was something unread, so flipping between quiet threads stays silent.
type Selector struct {
	mu     sync.Mutex
	store  *Store
	active string
}

func NewSelector(store *Store) *Selector {
	return &Selector{store: store}
}

func (sel *Selector) Select(userID string) {
	sel.mu.Lock()
	sel.active = userID
	sel.mu.Unlock()

	if sel.store.Unread(userID) > 0 {
		sel.store.MarkRead(userID)
	}
}

// Clear deselects the active conversation.
func (sel *Selector) Clear() {
	sel.mu.Lock()
	defer sel.mu.Unlock()
	sel.active = ""
}

func (sel *Selector) Active() string {
	sel.mu.Lock()
	defer sel.mu.Unlock()
	return sel.active
}

// ActiveThread returns the selected conversation, if any.
func (sel *Selector) ActiveThread() (Thread, bool) {
	sel.mu.Lock()
	active := sel.active
	sel.mu.Unlock()

	if active == "" {
		return Thread{}, false
	}
	return sel.store.ThreadFor(active)
}

// Conversations lists every thread, most recent activity first.
func (sel *Selector) Conversations() []Thread {
	return sel.store.Threads()
}
