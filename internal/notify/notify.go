// Package notify provides the fire-and-forget notification sink (toasts) used by the editor.
package notify

import (
	"log"
	"sync"
	"time"
)

// Kind is the severity of a notification.
type Kind string

// Notification kinds
const (
	Success Kind = "success"
	Info    Kind = "info"
	Error   Kind = "error"
)

// Sink receives user-facing notifications. Implementations must not block.
type Sink interface {
	Notify(kind Kind, message string)
}

// Notification is a recorded notification.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// LogSink writes notifications to the standard logger.
type LogSink struct{}

// Notify logs the notification.
func (LogSink) Notify(kind Kind, message string) {
	log.Printf("[notify] %s: %s", kind, message)
}

// Discard drops every notification.
type Discard struct{}

// Notify does nothing.
func (Discard) Notify(Kind, string) {}

// Recorder keeps the most recent notifications in memory until they are drained.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
	limit int
	now   func() time.Time
}

// NewRecorder creates a recorder keeping at most limit notifications (0 means 100).
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 100
	}
	return &Recorder{limit: limit, now: time.Now}
}

// Notify records the notification, dropping the oldest one when full.
func (r *Recorder) Notify(kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Kind: kind, Message: message, At: r.now()})
	if len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
}

// Drain returns and clears the recorded notifications.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items
	r.items = nil
	if items == nil {
		return []Notification{}
	}
	return items
}

// Len returns the number of recorded notifications.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Multi fans a notification out to several sinks.
type Multi []Sink

// Notify forwards to every sink.
func (m Multi) Notify(kind Kind, message string) {
	for _, s := range m {
		s.Notify(kind, message)
	}
}
