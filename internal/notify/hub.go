// Package notify fans delivery notifications out to registered subscribers.
package notify

import (
	"log/slog"
	"strconv"
	"sync"

	"teamsbot/internal/domain"
)

// Handler is a callback for delivery notifications.
type Handler func(domain.Notification)

// namedHandler pairs a handler with an id for unsubscription.
type namedHandler struct {
	ID      string
	Handler Handler
}

// Hub implements domain.Notifier by dispatching each notification to every
// subscriber registered for its kind. Use "*" to receive all kinds.
type Hub struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	logger   *slog.Logger
}

// NewHub creates an empty notification hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		handlers: make(map[string][]namedHandler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given notification kind and returns
// its id for Unsubscribe.
func (h *Hub) Subscribe(kind string, handler Handler) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := kind + "-" + strconv.Itoa(len(h.handlers[kind]))
	h.handlers[kind] = append(h.handlers[kind], namedHandler{ID: id, Handler: handler})
	return id
}

// Unsubscribe removes a handler by its id.
func (h *Hub) Unsubscribe(kind, handlerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	handlers := h.handlers[kind]
	for i, nh := range handlers {
		if nh.ID == handlerID {
			h.handlers[kind] = append(handlers[:i], handlers[i+1:]...)
			return
		}
	}
}

// Notify dispatches the notification synchronously, in subscription order.
// A panicking subscriber is logged and does not stop the others.
func (h *Hub) Notify(n domain.Notification) {
	h.mu.RLock()
	handlers := make([]namedHandler, 0)
	if hs, ok := h.handlers[string(n.Kind)]; ok {
		handlers = append(handlers, hs...)
	}
	if hs, ok := h.handlers["*"]; ok {
		handlers = append(handlers, hs...)
	}
	h.mu.RUnlock()

	for _, nh := range handlers {
		func(nh namedHandler) {
			defer func() {
				if r := recover(); r != nil {
					h.logger.Error("notification handler panic", "kind", n.Kind, "handler", nh.ID, "panic", r)
				}
			}()
			nh.Handler(n)
		}(nh)
	}
}
