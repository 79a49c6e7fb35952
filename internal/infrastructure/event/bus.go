// Package event provides the in-process domain event bus. Services publish
// after their changes are committed; handlers such as the low-stock alert and
// the Redis ledger eviction subscribe by event type.
package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/possale/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Bus delivers domain events to the handlers subscribed to their type
type Bus struct {
	subs   *subscriptions
	logger *zap.Logger

	async    bool
	started  atomic.Bool
	inFlight sync.WaitGroup
	failed   atomic.Int64
}

var _ shared.EventBus = (*Bus)(nil)

// Option configures a Bus
type Option func(*Bus)

// Async hands each delivery to its own goroutine while the bus is started.
// Publish then returns before handlers run, and Stop drains them.
func Async() Option {
	return func(b *Bus) { b.async = true }
}

// NewBus creates a bus with no subscribers
func NewBus(logger *zap.Logger, opts ...Option) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bus{subs: newSubscriptions(), logger: logger.Named("events")}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish hands every event to its handlers in subscription order. It
// always returns nil: a failing handler is the subscriber's problem, the
// sale or product change that raised the event is already committed.
func (b *Bus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	background := b.async && b.started.Load()
	for _, ev := range events {
		for _, h := range b.subs.forType(ev.EventType()) {
			if !background {
				b.deliver(ctx, h, ev)
				continue
			}
			b.inFlight.Add(1)
			go func() {
				defer b.inFlight.Done()
				b.deliver(context.WithoutCancel(ctx), h, ev)
			}()
		}
	}
	return nil
}

// Subscribe registers handler for eventTypes, or for the types it declares
// itself when none are given. A handler declaring no types sees every event.
func (b *Bus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.subs.add(handler, eventTypes...)
	b.logger.Debug("Handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe drops handler from every type
func (b *Bus) Unsubscribe(handler shared.EventHandler) {
	b.subs.remove(handler)
}

// Start enables background delivery for an Async bus
func (b *Bus) Start(context.Context) error {
	b.started.Store(true)
	b.logger.Info("Event bus started", zap.Bool("async", b.async), zap.Int("handlers", b.subs.count()))
	return nil
}

// Stop switches back to inline delivery and waits until in-flight handlers
// return or ctx is done
func (b *Bus) Stop(ctx context.Context) error {
	b.started.Store(false)

	drained := make(chan struct{})
	go func() {
		b.inFlight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		b.logger.Info("Event bus stopped", zap.Int64("failed_deliveries", b.failed.Load()))
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain event handlers: %w", ctx.Err())
	}
}

// Handlers is the number of distinct subscribed handlers
func (b *Bus) Handlers() int { return b.subs.count() }

// Failures counts deliveries that returned an error or panicked
func (b *Bus) Failures() int64 { return b.failed.Load() }

func (b *Bus) deliver(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) {
	err := invoke(ctx, h, ev)
	if err == nil {
		return
	}
	b.failed.Add(1)
	b.logger.Error("Event handler failed",
		zap.String("event_type", ev.EventType()),
		zap.Stringer("event_id", ev.EventID()),
		zap.String("aggregate_type", ev.AggregateType()),
		zap.Stringer("aggregate_id", ev.AggregateID()),
		zap.Error(err),
	)
}

func invoke(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %T: %v", h, r)
		}
	}()
	return h.Handle(ctx, ev)
}
