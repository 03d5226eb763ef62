package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/testutil"
)

// TestNewSyncEventBus tests bus creation.
func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus()

	if bus == nil {
		t.Fatal("NewSyncEventBus returned nil")
	}

	if bus.ListenerCount() != 0 {
		t.Errorf("Expected 0 listeners, got %d", bus.ListenerCount())
	}

	if bus.closed {
		t.Error("New event bus should not be closed")
	}
}

// TestPublishDeliversToListeners tests basic add/publish.
func TestPublishDeliversToListeners(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var received domain.Event
	var callCount int

	id := bus.AddEventListener(domain.EventPlay, func(event domain.Event) {
		received = event
		callCount++
	})

	if id == "" {
		t.Fatal("AddEventListener returned empty subscription ID")
	}

	bus.Publish(domain.NewMediaEvent(domain.EventPlay, 12.5))
	bus.Publish(domain.NewMediaEvent(domain.EventPause, 13))

	if callCount != 1 {
		t.Errorf("Expected listener to be called once, got %d", callCount)
	}

	if received == nil {
		t.Fatal("Listener did not receive event")
	}

	e := received.(domain.MediaEvent)
	if e.CurrentTime != 12.5 {
		t.Errorf("Expected current time 12.5, got %v", e.CurrentTime)
	}
}

// TestDispatchOrder tests that listeners run in registration order,
// including after a removal in the middle.
func TestDispatchOrder(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var order []int
	bus.AddEventListener(domain.EventClick, func(domain.Event) { order = append(order, 1) })
	middle := bus.AddEventListener(domain.EventClick, func(domain.Event) { order = append(order, 2) })
	bus.AddEventListener(domain.EventClick, func(domain.Event) { order = append(order, 3) })

	bus.RemoveEventListener(middle)
	bus.Publish(domain.NewPointerEvent(domain.EventClick, 1, 1))

	if len(order) != 2 || order[0] != 1 || order[1] != 3 {
		t.Errorf("Expected [1 3], got %v", order)
	}
}

// TestRemoveEventListener tests removal and unknown IDs.
func TestRemoveEventListener(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var callCount int32
	id := bus.AddEventListener(domain.EventPause, func(domain.Event) {
		atomic.AddInt32(&callCount, 1)
	})

	bus.RemoveEventListener(id)
	bus.RemoveEventListener(id)
	bus.RemoveEventListener("missing")

	bus.Publish(domain.NewMediaEvent(domain.EventPause, 0))

	if atomic.LoadInt32(&callCount) != 0 {
		t.Errorf("Expected removed listener not to be called, got %d calls", callCount)
	}
	if bus.ListenerCount() != 0 {
		t.Errorf("Expected 0 listeners, got %d", bus.ListenerCount())
	}
	if bus.HasListeners(domain.EventPause) {
		t.Error("Expected no pause listeners")
	}
}

// TestListenerPanicIsRecovered tests that one panicking listener does not
// prevent the others from running.
func TestListenerPanicIsRecovered(t *testing.T) {
	bus := NewSyncEventBus()
	bus.SetLogger(logger.NewTestLogger())
	defer bus.Close()

	called := false
	bus.AddEventListener(domain.EventPlay, func(domain.Event) { panic("boom") })
	bus.AddEventListener(domain.EventPlay, func(domain.Event) { called = true })

	bus.Publish(domain.NewMediaEvent(domain.EventPlay, 0))

	if !called {
		t.Error("Expected second listener to run after first panicked")
	}
}

// TestListenerMayRemoveItself tests removal from inside a listener.
func TestListenerMayRemoveItself(t *testing.T) {
	bus := NewSyncEventBus()
	defer bus.Close()

	var calls int
	var id domain.SubscriptionID
	id = bus.AddEventListener(domain.EventMouseUp, func(domain.Event) {
		calls++
		bus.RemoveEventListener(id)
	})

	bus.Publish(domain.NewPointerEvent(domain.EventMouseUp, 0, 0))
	bus.Publish(domain.NewPointerEvent(domain.EventMouseUp, 0, 0))

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

// TestClose tests that a closed bus ignores publishes and registrations.
func TestClose(t *testing.T) {
	bus := NewSyncEventBus()

	called := false
	bus.AddEventListener(domain.EventPlay, func(domain.Event) { called = true })

	if err := bus.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := bus.Close(); err == nil {
		t.Error("Expected error closing twice")
	}

	bus.Publish(domain.NewMediaEvent(domain.EventPlay, 0))
	if called {
		t.Error("Expected no delivery after close")
	}

	if id := bus.AddEventListener(domain.EventPlay, func(domain.Event) {}); id != "" {
		t.Errorf("Expected empty ID from closed bus, got %q", id)
	}
	if bus.ListenerCount() != 0 {
		t.Errorf("Expected 0 listeners after close, got %d", bus.ListenerCount())
	}
}

// TestConcurrentPublish tests publishing from several goroutines.
func TestConcurrentPublish(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	bus := NewSyncEventBus()
	defer bus.Close()

	var count int64
	bus.AddEventListener(domain.EventTimeUpdate, func(domain.Event) {
		atomic.AddInt64(&count, 1)
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				bus.Publish(domain.NewMediaEvent(domain.EventTimeUpdate, 0))
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&count); got != 800 {
		t.Errorf("Expected 800 deliveries, got %d", got)
	}
}
