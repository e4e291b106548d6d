// Package notify implements the transient notification queue ("toasts")
// used to surface operation outcomes. Entries expire on their own after
// AutoDismiss or can be dismissed early.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// AutoDismiss is how long a toast stays visible unless dismissed.
const AutoDismiss = 3500 * time.Millisecond

// Severity classifies a toast.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Toast is one queued notification.
type Toast struct {
	ID        string
	Message   string
	Severity  Severity
	ExpiresAt time.Time
}

// Channel is an insertion-ordered queue of toasts. No deduplication: two
// identical messages produce two entries.
type Channel struct {
	mu     sync.Mutex
	toasts []Toast
	now    func() time.Time
}

// NewChannel creates an empty channel using the wall clock.
func NewChannel() *Channel {
	return &Channel{now: time.Now}
}

// NewChannelWithClock creates a channel with an injected clock, for tests.
func NewChannelWithClock(now func() time.Time) *Channel {
	return &Channel{now: now}
}

// Push enqueues a toast and returns its id.
func (c *Channel) Push(message string, severity Severity) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		ExpiresAt: c.now().Add(AutoDismiss),
	}
	c.toasts = append(c.toasts, t)
	return t.ID
}

// Success enqueues a success toast.
func (c *Channel) Success(message string) string {
	return c.Push(message, SeveritySuccess)
}

// Error enqueues an error toast.
func (c *Channel) Error(message string) string {
	return c.Push(message, SeverityError)
}

// Info enqueues an info toast.
func (c *Channel) Info(message string) string {
	return c.Push(message, SeverityInfo)
}

// Dismiss removes a toast before it expires. Unknown ids are ignored.
func (c *Channel) Dismiss(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range c.toasts {
		if t.ID == id {
			c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
			return
		}
	}
}

// Active prunes expired entries and returns the live ones in insertion order.
func (c *Channel) Active() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	live := c.toasts[:0]
	for _, t := range c.toasts {
		if t.ExpiresAt.After(now) {
			live = append(live, t)
		}
	}
	c.toasts = live

	out := make([]Toast, len(c.toasts))
	copy(out, c.toasts)
	return out
}
