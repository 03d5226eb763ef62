package fyne

import (
	"image"
	"slices"
	"sync"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/audiovis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/surface/raster"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
)

// Container is the ports.Container side of a Surface. Mounted canvases are
// stacked top to bottom.
type Container struct {
	*eventbus.SyncEventBus

	host     *Host
	size     domain.Size
	style    domain.Style
	canvases []ports.Canvas

	// refresh repaints the owning widget
	refresh func()

	mu sync.RWMutex
}

// Size returns the widget size in pixels.
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

// Mount appends canvas and repaints.
func (c *Container) Mount(canvas ports.Canvas) {
	c.mu.Lock()
	if slices.Contains(c.canvases, canvas) {
		c.mu.Unlock()
		return
	}
	c.canvases = append(c.canvases, canvas)
	c.mu.Unlock()
	c.refresh()
}

// Unmount removes canvas and repaints.
func (c *Container) Unmount(canvas ports.Canvas) {
	c.mu.Lock()
	c.canvases = slices.DeleteFunc(c.canvases, func(x ports.Canvas) bool { return x == canvas })
	c.mu.Unlock()
	c.refresh()
}

// Canvases returns the mounted canvases in mount order.
func (c *Container) Canvases() []ports.Canvas {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.canvases)
}

func (c *Container) setSize(size domain.Size) {
	c.mu.Lock()
	changed := c.size != size
	c.size = size
	c.mu.Unlock()

	if changed {
		c.host.notifyResize(c, size)
	}
}

func (c *Container) pointer(t domain.EventType, pos fyneapp.Position) {
	c.Publish(domain.NewPointerEvent(t, float64(pos.X), float64(pos.Y)))
}

var _ ports.Container = (*Container)(nil)

// Surface is a widget showing the canvases of a Container and turning mouse
// input into pointer events.
type Surface struct {
	widget.BaseWidget

	container *Container
	lastPos   fyneapp.Position
}

// NewSurface creates an empty surface. Its frames repaint with every clock tick.
func (h *Host) NewSurface() *Surface {
	s := &Surface{}
	bus := eventbus.NewSyncEventBus()
	bus.SetLogger(h.logger)
	s.container = &Container{SyncEventBus: bus, host: h, refresh: s.Refresh}
	s.ExtendBaseWidget(s)

	h.mu.Lock()
	h.surfaces = append(h.surfaces, s)
	h.mu.Unlock()
	return s
}

// Container returns the container to render components into.
func (s *Surface) Container() *Container {
	return s.container
}

// CreateRenderer implements fyne.Widget.
func (s *Surface) CreateRenderer() fyneapp.WidgetRenderer {
	return &surfaceRenderer{surface: s}
}

// MinSize lets the surface shrink to nothing so it fills whatever it is given.
func (s *Surface) MinSize() fyneapp.Size {
	return fyneapp.NewSize(0, 0)
}

// Resize implements fyne.CanvasObject and reports the new size to resize observers.
func (s *Surface) Resize(size fyneapp.Size) {
	s.BaseWidget.Resize(size)
	s.container.setSize(domain.Size{Width: int(size.Width), Height: int(size.Height)})
}

// Tapped implements fyne.Tappable.
func (s *Surface) Tapped(ev *fyneapp.PointEvent) {
	s.container.pointer(domain.EventClick, ev.Position)
}

// DoubleTapped implements fyne.DoubleTappable.
func (s *Surface) DoubleTapped(ev *fyneapp.PointEvent) {
	s.container.pointer(domain.EventDoubleClick, ev.Position)
}

// MouseDown implements desktop.Mouseable.
func (s *Surface) MouseDown(ev *desktop.MouseEvent) {
	s.lastPos = ev.Position
	s.container.pointer(domain.EventMouseDown, ev.Position)
}

// MouseUp implements desktop.Mouseable.
func (s *Surface) MouseUp(ev *desktop.MouseEvent) {
	s.lastPos = ev.Position
	s.container.pointer(domain.EventMouseUp, ev.Position)
}

// MouseIn implements desktop.Hoverable.
func (s *Surface) MouseIn(ev *desktop.MouseEvent) {
	s.lastPos = ev.Position
}

// MouseMoved implements desktop.Hoverable.
func (s *Surface) MouseMoved(ev *desktop.MouseEvent) {
	s.lastPos = ev.Position
	s.container.pointer(domain.EventMouseMove, ev.Position)
}

// MouseOut implements desktop.Hoverable.
func (s *Surface) MouseOut() {
	s.container.pointer(domain.EventMouseOut, s.lastPos)
}

// Dragged implements fyne.Draggable. Drags with the primary button report
// as mouse moves.
func (s *Surface) Dragged(ev *fyneapp.DragEvent) {
	s.lastPos = ev.Position
	s.container.pointer(domain.EventMouseMove, ev.Position)
}

// DragEnd implements fyne.Draggable. The release arrives through MouseUp.
func (s *Surface) DragEnd() {}

var (
	_ fyneapp.Tappable       = (*Surface)(nil)
	_ fyneapp.DoubleTappable = (*Surface)(nil)
	_ fyneapp.Draggable      = (*Surface)(nil)
	_ desktop.Mouseable      = (*Surface)(nil)
	_ desktop.Hoverable      = (*Surface)(nil)
)

// surfaceRenderer keeps one raster per mounted canvas.
type surfaceRenderer struct {
	surface *Surface
	rasters []*canvas.Raster
	sources []ports.Canvas
}

func (r *surfaceRenderer) sync() {
	canvases := r.surface.container.Canvases()
	if slices.Equal(canvases, r.sources) {
		return
	}
	r.sources = canvases
	r.rasters = r.rasters[:0]
	for _, c := range canvases {
		src := c
		img := canvas.NewRaster(func(w, h int) image.Image { return snapshot(src, w, h) })
		img.ScaleMode = canvas.ImageScalePixels
		r.rasters = append(r.rasters, img)
	}
}

// snapshot copies the pixels of raster canvases. Other canvases show as blank.
func snapshot(c ports.Canvas, w, h int) image.Image {
	if rc, ok := c.(*raster.Canvas); ok {
		return rc.Snapshot()
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func (r *surfaceRenderer) Layout(fyneapp.Size) {
	y := float32(0)
	for i, img := range r.rasters {
		w, h := float32(r.sources[i].Width()), float32(r.sources[i].Height())
		img.Move(fyneapp.NewPos(0, y))
		img.Resize(fyneapp.NewSize(w, h))
		y += h
	}
}

func (r *surfaceRenderer) MinSize() fyneapp.Size {
	return fyneapp.NewSize(0, 0)
}

func (r *surfaceRenderer) Refresh() {
	r.sync()
	r.Layout(r.surface.Size())
	for _, img := range r.rasters {
		img.Refresh()
	}
}

func (r *surfaceRenderer) Objects() []fyneapp.CanvasObject {
	r.sync()
	objects := make([]fyneapp.CanvasObject, len(r.rasters))
	for i, img := range r.rasters {
		objects[i] = img
	}
	return objects
}

func (r *surfaceRenderer) Destroy() {}

// resizeObserver calls back when an observed container changes size.
type resizeObserver struct {
	host    *Host
	cb      ports.ResizeCallback
	targets []*Container
}

// NewResizeObserver creates an observer watching nothing.
func (h *Host) NewResizeObserver(cb ports.ResizeCallback) ports.ResizeObserver {
	o := &resizeObserver{host: h, cb: cb}
	h.mu.Lock()
	h.observers = append(h.observers, o)
	h.mu.Unlock()
	return o
}

// Observe starts watching target. Containers of other hosts are ignored.
func (o *resizeObserver) Observe(target ports.Container) {
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
func (o *resizeObserver) Unobserve(target ports.Container) {
	c, ok := target.(*Container)
	if !ok {
		return
	}
	o.host.mu.Lock()
	defer o.host.mu.Unlock()
	o.targets = slices.DeleteFunc(o.targets, func(t *Container) bool { return t == c })
}

// Disconnect stops watching every target.
func (o *resizeObserver) Disconnect() {
	h := o.host
	h.mu.Lock()
	defer h.mu.Unlock()
	o.targets = nil
	h.observers = slices.DeleteFunc(h.observers, func(x *resizeObserver) bool { return x == o })
}

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
