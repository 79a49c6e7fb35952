package event

import (
	"slices"
	"sync"

	"github.com/possale/backend/internal/domain/shared"
)

// subscriptions maps event types to handlers. A handler subscribed without
// types is a catch-all and sees every event after the typed handlers.
type subscriptions struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	catchAll []shared.EventHandler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byType: make(map[string][]shared.EventHandler)}
}

// add subscribes handler once per type; repeated subscriptions are ignored
func (s *subscriptions) add(handler shared.EventHandler, eventTypes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(eventTypes) == 0 {
		if !slices.Contains(s.catchAll, handler) {
			s.catchAll = append(s.catchAll, handler)
		}
		return
	}
	for _, eventType := range eventTypes {
		if !slices.Contains(s.byType[eventType], handler) {
			s.byType[eventType] = append(s.byType[eventType], handler)
		}
	}
}

func (s *subscriptions) remove(handler shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catchAll = slices.DeleteFunc(s.catchAll, func(h shared.EventHandler) bool { return h == handler })
	for eventType, handlers := range s.byType {
		handlers = slices.DeleteFunc(handlers, func(h shared.EventHandler) bool { return h == handler })
		if len(handlers) == 0 {
			delete(s.byType, eventType)
			continue
		}
		s.byType[eventType] = handlers
	}
}

// forType returns a snapshot, safe to range over while handlers subscribe
func (s *subscriptions) forType(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	typed := s.byType[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(s.catchAll))
	out = append(out, typed...)
	return append(out, s.catchAll...)
}

// count is the number of distinct subscribed handlers
func (s *subscriptions) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	distinct := slices.Clone(s.catchAll)
	for _, handlers := range s.byType {
		for _, h := range handlers {
			if !slices.Contains(distinct, h) {
				distinct = append(distinct, h)
			}
		}
	}
	return len(distinct)
}
