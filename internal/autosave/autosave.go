// Package autosave debounces document edits into durable writes.
//
// Every edit calls Notify; a write happens only after the document has been quiet for the
// configured delay. A newer Notify cancels the pending write entirely, so superseded
// snapshots are never persisted. ForceSave bypasses the delay for an explicit save.
package autosave

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonathan/meucv/internal/clock"
	"github.com/jonathan/meucv/internal/notify"
	"github.com/jonathan/meucv/internal/types"
)

// DefaultDelay is the quiet period before a pending document is written.
const DefaultDelay = time.Second

// DefaultSaveTimeout bounds a single debounced write.
const DefaultSaveTimeout = 10 * time.Second

// Default toast messages
const (
	DefaultSavedMessage  = "CV guardado com sucesso"
	DefaultFailedMessage = "Erro ao guardar o CV"
)

// ErrClosed is returned by ForceSave after Close.
var ErrClosed = errors.New("autosave: policy closed")

// Status is the state of the autosave state machine.
type Status string

// Autosave states
const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSaving  Status = "saving"
	StatusFailed  Status = "failed"
)

// Persister durably writes a document snapshot.
type Persister interface {
	Persist(ctx context.Context, doc *types.CVData) error
}

// State is the read model shown next to the editor.
type State struct {
	Status      Status     `json:"status"`
	IsSaving    bool       `json:"isSaving"`
	LastSavedAt *time.Time `json:"lastSavedAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

// Policy is the debounced persistence scheduler. It is safe for concurrent use.
type Policy struct {
	persister     Persister
	clock         clock.Clock
	sink          notify.Sink
	delay         time.Duration
	saveTimeout   time.Duration
	savedMessage  string
	failedMessage string

	mu          sync.Mutex
	status      Status
	pending     *types.CVData
	pendingSeq  uint64
	timer       clock.Timer
	gen         uint64
	seq         uint64
	inflight    int
	resultSeq   uint64
	lastSavedAt time.Time
	lastErr     error
	subs        map[chan State]struct{}
	closed      bool

	// writeMu serialises backend writes; attempted is the newest submission sent to the backend.
	writeMu   sync.Mutex
	attempted uint64
}

// Option configures a Policy.
type Option func(*Policy)

// WithClock sets the time source. Defaults to clock.Real.
func WithClock(c clock.Clock) Option {
	return func(p *Policy) { p.clock = c }
}

// WithSink sets where save toasts go. Defaults to notify.Discard.
func WithSink(s notify.Sink) Option {
	return func(p *Policy) { p.sink = s }
}

// WithDelay sets the debounce delay. Non-positive values keep the default.
func WithDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.delay = d
		}
	}
}

// WithSaveTimeout bounds each debounced write.
func WithSaveTimeout(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.saveTimeout = d
		}
	}
}

// WithMessages sets the toast texts for a successful and a failed save.
func WithMessages(saved, failed string) Option {
	return func(p *Policy) {
		if saved != "" {
			p.savedMessage = saved
		}
		if failed != "" {
			p.failedMessage = failed
		}
	}
}

// New creates an idle policy writing through persister.
func New(persister Persister, opts ...Option) *Policy {
	p := &Policy{
		persister:     persister,
		clock:         clock.Real{},
		sink:          notify.Discard{},
		delay:         DefaultDelay,
		saveTimeout:   DefaultSaveTimeout,
		savedMessage:  DefaultSavedMessage,
		failedMessage: DefaultFailedMessage,
		status:        StatusIdle,
		subs:          make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Delay returns the debounce delay.
func (p *Policy) Delay() time.Duration {
	return p.delay
}

// Notify records doc as the latest edit and restarts the debounce timer.
func (p *Policy) Notify(doc *types.CVData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.cancelTimerLocked()
	p.seq++
	p.pending = doc
	p.pendingSeq = p.seq

	gen := p.gen
	p.timer = p.clock.AfterFunc(p.delay, func() { p.fire(gen) })
	p.status = StatusPending
	p.publishLocked()
}

// cancelTimerLocked stops the pending timer and invalidates any fire already in flight.
func (p *Policy) cancelTimerLocked() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Policy) fire(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.pending == nil {
		p.mu.Unlock()
		return
	}
	doc, seq := p.takePendingLocked()
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.saveTimeout)
	defer cancel()

	if err := p.save(ctx, doc, seq); err != nil {
		log.Printf("[autosave] debounced save failed: %v", err)
	}
}

// takePendingLocked moves the pending snapshot into the saving state.
func (p *Policy) takePendingLocked() (*types.CVData, uint64) {
	doc, seq := p.pending, p.pendingSeq
	p.pending = nil
	p.timer = nil
	p.inflight++
	p.status = StatusSaving
	p.publishLocked()
	return doc, seq
}

// ForceSave cancels any pending write and persists doc immediately in the caller.
func (p *Policy) ForceSave(ctx context.Context, doc *types.CVData) error {
	return p.ForceSaveCurrent(ctx, func() *types.CVData { return doc })
}

// ForceSaveCurrent is ForceSave with the snapshot taken by current while the policy is locked,
// so an edit notified before the call cannot be replaced by an older document.
func (p *Policy) ForceSaveCurrent(ctx context.Context, current func() *types.CVData) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	doc := current()
	p.cancelTimerLocked()
	p.seq++
	seq := p.seq
	p.pending = nil
	p.inflight++
	p.status = StatusSaving
	p.publishLocked()
	p.mu.Unlock()

	err := p.save(ctx, doc, seq)
	if err == nil {
		p.sink.Notify(notify.Success, p.savedMessage)
	}
	return err
}

// Flush writes the pending snapshot now, if there is one.
func (p *Policy) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.pending == nil {
		p.mu.Unlock()
		return nil
	}
	p.cancelTimerLocked()
	doc, seq := p.takePendingLocked()
	p.mu.Unlock()

	return p.save(ctx, doc, seq)
}

// save writes doc unless a newer submission already reached the backend, then records the outcome.
func (p *Policy) save(ctx context.Context, doc *types.CVData, seq uint64) error {
	skipped, err := p.write(ctx, doc, seq)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.inflight--
	if !skipped && seq >= p.resultSeq {
		p.resultSeq = seq
		p.lastErr = err
		if err == nil {
			p.lastSavedAt = p.clock.Now()
		}
	}

	switch {
	case p.pending != nil:
		p.status = StatusPending
	case p.inflight > 0:
		p.status = StatusSaving
	case p.lastErr != nil:
		p.status = StatusFailed
	default:
		p.status = StatusIdle
	}
	p.publishLocked()

	if err != nil && !skipped {
		p.sink.Notify(notify.Error, p.failedMessage)
	}
	return err
}

func (p *Policy) write(ctx context.Context, doc *types.CVData, seq uint64) (bool, error) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if seq <= p.attempted {
		return true, nil
	}
	p.attempted = seq
	return false, p.persister.Persist(ctx, doc)
}

// State returns the current read model.
func (p *Policy) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Policy) stateLocked() State {
	st := State{
		Status:   p.status,
		IsSaving: p.status == StatusSaving,
	}
	if !p.lastSavedAt.IsZero() {
		t := p.lastSavedAt
		st.LastSavedAt = &t
	}
	if p.lastErr != nil {
		st.LastError = p.lastErr.Error()
	}
	return st
}

// Subscribe returns a channel receiving the state after every transition, and a function
// to stop the subscription. Slow subscribers only see the most recent state.
func (p *Policy) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	p.subs[ch] = struct{}{}
	ch <- p.stateLocked()
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subs[ch]; ok {
				delete(p.subs, ch)
				close(ch)
			}
		})
	}
}

func (p *Policy) publishLocked() {
	if len(p.subs) == 0 {
		return
	}
	st := p.stateLocked()
	for ch := range p.subs {
		select {
		case ch <- st:
		default:
			// Replace the stale state the subscriber has not read yet.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// Close cancels the pending timer without saving and ends all subscriptions.
// Call Flush first to keep the pending snapshot.
func (p *Policy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.cancelTimerLocked()
	p.pending = nil
	if p.status == StatusPending {
		p.status = StatusIdle
	}
	for ch := range p.subs {
		delete(p.subs, ch)
		close(ch)
	}
}
