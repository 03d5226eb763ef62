package dom

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/audiovis/internal/adapter/surface/mock"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/surface/raster"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
	"github.com/tejashwikalptaru/audiovis/internal/testutil"
)

func TestFramesRunInRequestOrder(t *testing.T) {
	h := NewHost()
	var order []int
	var stamps []time.Duration

	h.RequestFrame(func(ts time.Duration) { order = append(order, 1); stamps = append(stamps, ts) })
	cancelled := h.RequestFrame(func(time.Duration) { order = append(order, 2) })
	h.RequestFrame(func(ts time.Duration) { order = append(order, 3); stamps = append(stamps, ts) })
	h.CancelFrame(cancelled)
	h.CancelFrame(999)

	assert.Equal(t, 2, h.PendingFrames())
	assert.Equal(t, 2, h.Tick(16*time.Millisecond))
	assert.Equal(t, []int{1, 3}, order)
	assert.Equal(t, []time.Duration{16 * time.Millisecond, 16 * time.Millisecond}, stamps)
	assert.Zero(t, h.PendingFrames())
}

func TestFrameRequestedDuringTickRunsNextTick(t *testing.T) {
	h := NewHost()
	calls := 0
	var loop ports.FrameCallback
	loop = func(time.Duration) {
		calls++
		h.RequestFrame(loop)
	}
	h.RequestFrame(loop)

	h.Tick(time.Millisecond)
	h.Tick(time.Millisecond)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, h.PendingFrames())
}

func TestDispatchRunPending(t *testing.T) {
	h := NewHost()
	var got []string

	h.Dispatch(func() {
		got = append(got, "a")
		h.Dispatch(func() { got = append(got, "c") })
	})
	h.Dispatch(func() { got = append(got, "b") })
	h.Dispatch(nil)

	assert.Equal(t, 3, h.RunPending())
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Zero(t, h.RunPending())
}

func TestRunNextWaitsForDispatch(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	h := NewHost()
	ran := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.Dispatch(func() { close(ran) })
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.RunNext(ctx))
	wg.Wait()

	select {
	case <-ran:
	default:
		t.Fatal("dispatched task did not run")
	}
}

func TestRunNextHonoursContext(t *testing.T) {
	h := NewHost()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, h.RunNext(ctx), context.Canceled)
}

func TestContainerMountAndEvents(t *testing.T) {
	h := NewHost()
	c := h.NewContainer(300, 150)
	a, err := h.NewCanvas(10, 10)
	require.NoError(t, err)
	b, err := h.NewCanvas(10, 10)
	require.NoError(t, err)
	assert.IsType(t, &raster.Canvas{}, a)

	c.Mount(a)
	c.Mount(b)
	c.Mount(a)
	assert.Equal(t, []ports.Canvas{a, b}, c.Canvases())
	c.Unmount(a)
	assert.Equal(t, []ports.Canvas{b}, c.Canvases())
	assert.Equal(t, 2, h.CanvasesCreated())

	var events []domain.PointerEvent
	for _, typ := range domain.PointerEventTypes {
		c.AddEventListener(typ, func(e domain.Event) { events = append(events, e.(domain.PointerEvent)) })
	}
	c.Drag(10, 5, 40, 5)
	c.DoubleClick(1, 2)

	require.Len(t, events, 4)
	assert.Equal(t, domain.EventMouseDown, events[0].Type())
	assert.Equal(t, 40.0, events[1].X)
	assert.Equal(t, domain.EventDoubleClick, events[3].Type())
}

func TestNewCanvasRejectsNegativeSize(t *testing.T) {
	h := NewHost(WithCanvasFactory(mock.Factory))

	_, err := h.NewCanvas(-1, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	c, err := h.NewCanvas(3, 4)
	require.NoError(t, err)
	assert.IsType(t, &mock.Canvas{}, c)
}

func TestResizeObserver(t *testing.T) {
	h := NewHost()
	c := h.NewContainer(300, 150)
	other := h.NewContainer(10, 10)
	var sizes []domain.Size

	o := h.NewResizeObserver(func(s domain.Size) { sizes = append(sizes, s) })
	o.Observe(c)
	o.Observe(c)

	c.Resize(400, 200)
	c.Resize(400, 200)
	other.Resize(20, 20)

	assert.Equal(t, []domain.Size{{Width: 400, Height: 200}}, sizes)
	assert.Equal(t, 1, h.ActiveObservers())

	o.Unobserve(c)
	c.Resize(500, 200)
	assert.Len(t, sizes, 1)

	o.Observe(c)
	o.Disconnect()
	c.Resize(600, 200)
	assert.Len(t, sizes, 1)
	assert.Zero(t, h.ActiveObservers())
}

func TestFullscreen(t *testing.T) {
	h := NewHost(WithScreenSize(domain.Size{Width: 800, Height: 600}))
	c := h.NewContainer(300, 150)
	var sizes []domain.Size
	h.NewResizeObserver(func(s domain.Size) { sizes = append(sizes, s) }).Observe(c)

	require.NoError(t, h.RequestFullscreen(c))
	assert.True(t, h.IsFullscreen())
	assert.Equal(t, domain.Size{Width: 800, Height: 600}, c.Size())

	require.NoError(t, h.ExitFullscreen())
	assert.False(t, h.IsFullscreen())
	assert.Equal(t, domain.Size{Width: 300, Height: 150}, c.Size())
	assert.Len(t, sizes, 2)

	assert.ErrorIs(t, h.ExitFullscreen(), domain.ErrNotFullscreen)
	assert.ErrorIs(t, NewHost().RequestFullscreen(c), domain.ErrInvalidOption)
}
