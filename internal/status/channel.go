package status

import (
	"sync"

	"scribeflow/internal/domain"
)

// Listener receives the current status after every change. ok is false when
// the status was cleared.
type Listener func(st domain.Status, ok bool)

// Channel holds the single transient status notification shown to the user.
type Channel struct {
	mu        sync.Mutex
	current   domain.Status
	present   bool
	nextID    int
	listeners map[int]Listener
	order     []int
}

func NewChannel() *Channel {
	return &Channel{listeners: make(map[int]Listener)}
}

func (c *Channel) Publish(text string, severity domain.Severity) {
	c.mu.Lock()
	c.current = domain.Status{Text: text, Severity: severity}
	c.present = true
	st, listeners := c.current, c.snapshotListeners()
	c.mu.Unlock()

	for _, l := range listeners {
		l(st, true)
	}
}

func (c *Channel) Info(text string)    { c.Publish(text, domain.SeverityInfo) }
func (c *Channel) Success(text string) { c.Publish(text, domain.SeveritySuccess) }
func (c *Channel) Error(text string)   { c.Publish(text, domain.SeverityError) }

// Clear hides the current status.
func (c *Channel) Clear() {
	c.mu.Lock()
	c.current = domain.Status{}
	c.present = false
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, l := range listeners {
		l(domain.Status{}, false)
	}
}

func (c *Channel) Current() (domain.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.present
}

// Subscribe registers l and returns a function that removes it.
func (c *Channel) Subscribe(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners[id] = l
	c.order = append(c.order, id)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
		for i, v := range c.order {
			if v == id {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// snapshotListeners must be called with c.mu held.
func (c *Channel) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.listeners[id])
	}
	return out
}
