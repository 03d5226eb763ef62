// Package eventbus provides the listener registry used by host elements.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// SyncEventBus delivers events to listeners synchronously, in registration order.
//
// Thread-safety: listeners may be added, removed and published to from any
// goroutine. Listeners run on the publishing goroutine.
type SyncEventBus struct {
	logger *slog.Logger

	// listeners per event type, in registration order
	listeners map[domain.EventType][]listener

	// index maps a subscription to its event type for O(1) lookup on removal
	index map[domain.SubscriptionID]domain.EventType

	mu        sync.RWMutex
	idCounter uint64
	closed    bool
}

type listener struct {
	id      domain.SubscriptionID
	handler domain.EventHandler
}

// NewSyncEventBus creates an empty bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{
		listeners: make(map[domain.EventType][]listener),
		index:     make(map[domain.SubscriptionID]domain.EventType),
	}
}

// SetLogger sets the logger used to report panicking listeners.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish delivers event to every listener of its type. Panics in listeners
// are recovered and logged; the remaining listeners still run.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	// Copy so listeners may add or remove listeners while being called
	targets := make([]listener, len(bus.listeners[event.Type()]))
	copy(targets, bus.listeners[event.Type()])
	logger := bus.logger
	bus.mu.RUnlock()

	for _, l := range targets {
		bus.call(logger, l.handler, event)
	}
}

func (bus *SyncEventBus) call(logger *slog.Logger, handler domain.EventHandler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error("event listener panicked",
				slog.Any("panic", r),
				slog.String("event_type", string(event.Type())))
		}
	}()

	if logger != nil && logger.Enabled(context.Background(), slog.LevelDebug) {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		logger.Debug("event dispatched",
			slog.String("event_type", string(event.Type())),
			slog.String("handler", name))
	}
	handler(event)
}

// AddEventListener registers handler for events of type t. A nil handler or a
// closed bus yields an empty ID and registers nothing.
func (bus *SyncEventBus) AddEventListener(t domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if handler == nil {
		return ""
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ""
	}

	id := domain.SubscriptionID(fmt.Sprintf("%s-%d", t, atomic.AddUint64(&bus.idCounter, 1)))
	bus.listeners[t] = append(bus.listeners[t], listener{id: id, handler: handler})
	bus.index[id] = t

	return id
}

// RemoveEventListener removes a listener. Unknown IDs are a no-op.
func (bus *SyncEventBus) RemoveEventListener(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	t, ok := bus.index[id]
	if !ok {
		return
	}
	delete(bus.index, id)

	subs := bus.listeners[t]
	for i, l := range subs {
		if l.id == id {
			// Keep registration order, dispatch order depends on it
			bus.listeners[t] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(bus.listeners[t]) == 0 {
		delete(bus.listeners, t)
	}
}

// HasListeners reports whether anyone listens to events of type t.
func (bus *SyncEventBus) HasListeners(t domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.listeners[t]) > 0
}

// ListenerCount returns the number of registered listeners of every type.
func (bus *SyncEventBus) ListenerCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.index)
}

// Close removes every listener. Returns an error if already closed.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return fmt.Errorf("event bus already closed")
	}

	bus.closed = true
	bus.listeners = make(map[domain.EventType][]listener)
	bus.index = make(map[domain.SubscriptionID]domain.EventType)

	return nil
}

// Verify that SyncEventBus implements the EventBus interface
var _ ports.EventBus = (*SyncEventBus)(nil)
