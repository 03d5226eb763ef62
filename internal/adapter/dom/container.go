package dom

import (
	"slices"
	"sync"

	"github.com/tejashwikalptaru/audiovis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Container is a headless element holding mounted canvases.
type Container struct {
	*eventbus.SyncEventBus

	host     *Host
	size     domain.Size
	style    domain.Style
	canvases []ports.Canvas

	mu sync.RWMutex
}

func newContainer(h *Host, size domain.Size) *Container {
	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(h.logger)
	return &Container{
		SyncEventBus: bus,
		host:         h,
		size:         size,
	}
}

// Size returns the content-box size.
func (c *Container) Size() domain.Size {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Style returns the layout style.
func (c *Container) Style() domain.Style {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.style
}

// SetStyle replaces the layout style.
func (c *Container) SetStyle(s domain.Style) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.style = s
}

// Mount appends canvas to the container.
func (c *Container) Mount(canvas ports.Canvas) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.canvases, canvas) {
		c.canvases = append(c.canvases, canvas)
	}
}

// Unmount removes canvas from the container.
func (c *Container) Unmount(canvas ports.Canvas) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.canvases = slices.DeleteFunc(c.canvases, func(x ports.Canvas) bool { return x == canvas })
}

// Canvases returns the mounted canvases in mount order.
func (c *Container) Canvases() []ports.Canvas {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.canvases)
}

// Resize changes the size and notifies resize observers when it differs.
func (c *Container) Resize(width, height int) {
	size := domain.Size{Width: width, Height: height}
	c.mu.Lock()
	changed := c.size != size
	c.size = size
	c.mu.Unlock()

	if changed {
		c.host.notifyResize(c, size)
	}
}

// Pointer dispatches a pointer event of type t at (x, y).
func (c *Container) Pointer(t domain.EventType, x, y float64) {
	c.Publish(domain.NewPointerEvent(t, x, y))
}

// Click dispatches a click at (x, y).
func (c *Container) Click(x, y float64) {
	c.Pointer(domain.EventClick, x, y)
}

// DoubleClick dispatches a double click at (x, y).
func (c *Container) DoubleClick(x, y float64) {
	c.Pointer(domain.EventDoubleClick, x, y)
}

// Drag dispatches mousedown at from, mousemove at to and mouseup at to.
func (c *Container) Drag(fromX, fromY, toX, toY float64) {
	c.Pointer(domain.EventMouseDown, fromX, fromY)
	c.Pointer(domain.EventMouseMove, toX, toY)
	c.Pointer(domain.EventMouseUp, toX, toY)
}

var _ ports.Container = (*Container)(nil)
