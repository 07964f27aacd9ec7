// Package publisher fronts an audit.Store with optional asynchronous buffering.
//
// Audit is best-effort for this service: managers log a failed Emit and carry
// on, so a slow or unavailable sink never fails a provider or claim write.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "idvmgt/pkg/platform/audit"
	"idvmgt/pkg/requestcontext"
)

// ErrBufferFull is returned by Emit in async mode when the buffer is saturated.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher emits audit events to a store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	async   bool
	buffer  chan audit.Event
	wg      sync.WaitGroup
	closeMu sync.Mutex
	closed  bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.async = true
			p.buffer = make(chan audit.Event, n)
		}
	}
}

// WithLogger sets a logger for background delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit fills in timestamp, category and request id, then stores the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.Actor(ctx)
	}

	if !p.async {
		return p.store.Append(ctx, event)
	}

	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return errors.New("audit publisher closed")
	}
	select {
	case p.buffer <- event:
		return nil
	default:
		return ErrBufferFull
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for event := range p.buffer {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.store.Append(ctx, event); err != nil && p.logger != nil {
			p.logger.Error("failed to deliver audit event",
				"action", event.Action,
				"subject", event.Subject,
				"tenant_id", event.TenantID,
				"error", err,
			)
		}
		cancel()
	}
}

// Close drains buffered events and stops the worker.
func (p *Publisher) Close() {
	if !p.async {
		return
	}
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.buffer)
	p.closeMu.Unlock()
	p.wg.Wait()
}
