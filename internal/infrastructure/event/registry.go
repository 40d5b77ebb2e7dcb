package event

import (
	"sync"

	"github.com/mfgcost/backend/internal/domain/shared"
)

// HandlerRegistry keeps track of which handlers listen to which event types
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
}

// NewHandlerRegistry creates a new HandlerRegistry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[string][]shared.EventHandler),
	}
}

// Register adds a handler for the given event types
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, eventType := range eventTypes {
		r.handlers[eventType] = append(r.handlers[eventType], handler)
	}
}

// Unregister removes a handler from all event types
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for eventType, handlers := range r.handlers {
		filtered := handlers[:0]
		for _, h := range handlers {
			if h != handler {
				filtered = append(filtered, h)
			}
		}
		r.handlers[eventType] = filtered
	}
}

// GetHandlers returns the handlers registered for an event type
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handlers := r.handlers[eventType]
	result := make([]shared.EventHandler, len(handlers))
	copy(result, handlers)
	return result
}
