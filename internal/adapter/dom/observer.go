package dom

import (
	"slices"

	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// ResizeObserver calls back when an observed container changes size.
type ResizeObserver struct {
	host    *Host
	cb      ports.ResizeCallback
	targets []*Container
}

// NewResizeObserver creates an observer watching nothing.
func (h *Host) NewResizeObserver(cb ports.ResizeCallback) ports.ResizeObserver {
	o := &ResizeObserver{host: h, cb: cb}
	h.mu.Lock()
	h.observers = append(h.observers, o)
	h.mu.Unlock()
	return o
}

// Observe starts watching target. Containers of other hosts are ignored.
func (o *ResizeObserver) Observe(target ports.Container) {
	c, ok := target.(*Container)
	if !ok || c.host != o.host {
		return
	}
	o.host.mu.Lock()
	defer o.host.mu.Unlock()
	if !slices.Contains(o.targets, c) {
		o.targets = append(o.targets, c)
	}
}

// Unobserve stops watching target.
func (o *ResizeObserver) Unobserve(target ports.Container) {
	c, ok := target.(*Container)
	if !ok {
		return
	}
	o.host.mu.Lock()
	defer o.host.mu.Unlock()
	o.targets = slices.DeleteFunc(o.targets, func(t *Container) bool { return t == c })
}

// Disconnect stops watching every target and releases the observer.
func (o *ResizeObserver) Disconnect() {
	h := o.host
	h.mu.Lock()
	defer h.mu.Unlock()
	o.targets = nil
	h.observers = slices.DeleteFunc(h.observers, func(x *ResizeObserver) bool { return x == o })
}

// ActiveObservers returns the number of observers watching at least one container.
func (h *Host) ActiveObservers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for _, o := range h.observers {
		if len(o.targets) > 0 {
			count++
		}
	}
	return count
}

// notifyResize calls every observer watching c.
func (h *Host) notifyResize(c *Container, size domain.Size) {
	h.mu.Lock()
	var callbacks []ports.ResizeCallback
	for _, o := range h.observers {
		if slices.Contains(o.targets, c) {
			callbacks = append(callbacks, o.cb)
		}
	}
	h.mu.Unlock()

	for _, cb := range callbacks {
		cb(size)
	}
}
