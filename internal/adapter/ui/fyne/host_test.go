package fyne

import (
	"testing"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audiomock "github.com/tejashwikalptaru/audiovis/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/audio/soft"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/dom"
	"github.com/tejashwikalptaru/audiovis/internal/adapter/surface/raster"
	"github.com/tejashwikalptaru/audiovis/internal/domain"
	"github.com/tejashwikalptaru/audiovis/internal/logger"
	"github.com/tejashwikalptaru/audiovis/internal/ports"
	"github.com/tejashwikalptaru/audiovis/internal/testutil"
	"github.com/tejashwikalptaru/audiovis/internal/visualizer"
)

func inline(fn func()) { fn() }

func newTestHost(t *testing.T) (*Host, *Surface, fyneapp.Window) {
	t.Helper()
	test.NewTempApp(t)
	w := test.NewWindow(widget.NewLabel(""))
	t.Cleanup(w.Close)

	h := NewHost(w, withDo(inline), WithLogger(logger.NewTestLogger()))
	s := h.NewSurface()
	w.SetContent(s)
	return h, s, w
}

func record(c *Container) *[]domain.PointerEvent {
	var got []domain.PointerEvent
	for _, typ := range domain.PointerEventTypes {
		c.AddEventListener(typ, func(e domain.Event) {
			got = append(got, e.(domain.PointerEvent))
		})
	}
	return &got
}

func TestSurfacePublishesPointerEvents(t *testing.T) {
	_, s, _ := newTestHost(t)
	got := record(s.Container())

	at := func(x, y float32) *desktop.MouseEvent {
		return &desktop.MouseEvent{PointEvent: fyneapp.PointEvent{Position: fyneapp.NewPos(x, y)}}
	}
	s.Tapped(&fyneapp.PointEvent{Position: fyneapp.NewPos(10, 20)})
	s.DoubleTapped(&fyneapp.PointEvent{Position: fyneapp.NewPos(11, 21)})
	s.MouseDown(at(30, 40))
	s.Dragged(&fyneapp.DragEvent{PointEvent: fyneapp.PointEvent{Position: fyneapp.NewPos(35, 40)}})
	s.MouseMoved(at(36, 41))
	s.MouseUp(at(37, 42))
	s.MouseOut()

	require.Len(t, *got, 7)
	want := []struct {
		typ  domain.EventType
		x, y float64
	}{
		{domain.EventClick, 10, 20},
		{domain.EventDoubleClick, 11, 21},
		{domain.EventMouseDown, 30, 40},
		{domain.EventMouseMove, 35, 40},
		{domain.EventMouseMove, 36, 41},
		{domain.EventMouseUp, 37, 42},
		{domain.EventMouseOut, 37, 42},
	}
	for i, w := range want {
		assert.Equal(t, w.typ, (*got)[i].Type(), "event %d", i)
		assert.Equal(t, w.x, (*got)[i].X, "event %d", i)
		assert.Equal(t, w.y, (*got)[i].Y, "event %d", i)
	}
}

func TestSurfaceResizeNotifiesObservers(t *testing.T) {
	h, s, _ := newTestHost(t)
	var sizes []domain.Size
	o := h.NewResizeObserver(func(size domain.Size) { sizes = append(sizes, size) })
	o.Observe(s.Container())

	s.Resize(fyneapp.NewSize(300, 150))
	s.Resize(fyneapp.NewSize(300, 150))
	assert.Equal(t, []domain.Size{{Width: 300, Height: 150}}, sizes)
	assert.Equal(t, domain.Size{Width: 300, Height: 150}, s.Container().Size())

	o.Disconnect()
	s.Resize(fyneapp.NewSize(200, 100))
	assert.Len(t, sizes, 1)
}

func TestSurfaceStacksCanvases(t *testing.T) {
	_, s, _ := newTestHost(t)
	c := s.Container()
	top, bottom := raster.New(100, 40), raster.New(100, 60)
	c.Mount(top)
	c.Mount(bottom)
	c.Mount(top)

	r := test.TempWidgetRenderer(t, s)
	objects := r.Objects()
	require.Len(t, objects, 2)
	r.Layout(s.Size())
	assert.Equal(t, fyneapp.NewPos(0, 40), objects[1].Position())
	assert.Equal(t, fyneapp.NewSize(100, 60), objects[1].Size())

	c.Unmount(top)
	assert.Len(t, r.Objects(), 1)
	assert.Equal(t, []ports.Canvas{bottom}, c.Canvases())
}

func TestHostFrames(t *testing.T) {
	h, _, _ := newTestHost(t)
	var order []int
	h.RequestFrame(func(time.Duration) { order = append(order, 1) })
	cancelled := h.RequestFrame(func(time.Duration) { order = append(order, 2) })
	h.RequestFrame(func(time.Duration) { order = append(order, 3) })
	h.CancelFrame(cancelled)

	assert.Equal(t, 2, h.runFrames(time.Millisecond))
	assert.Equal(t, []int{1, 3}, order)
	assert.Zero(t, h.runFrames(time.Millisecond))
}

func TestHostClockRunsFramesUntilStopped(t *testing.T) {
	defer testutil.VerifyNoLeaks(t, testutil.IgnoreFyneGoroutines()...)

	test.NewTempApp(t)
	w := test.NewWindow(widget.NewLabel(""))
	defer w.Close()
	h := NewHost(w, withDo(inline), WithFrameRate(500))

	ran := make(chan time.Duration, 1)
	h.RequestFrame(func(ts time.Duration) { ran <- ts })
	h.Start()
	h.Start()

	select {
	case ts := <-ran:
		assert.Positive(t, ts)
	case <-time.After(5 * time.Second):
		t.Fatal("frame never ran")
	}
	h.Stop()
	h.Stop()
}

func TestHostFullscreen(t *testing.T) {
	h, s, w := newTestHost(t)

	assert.ErrorIs(t, h.ExitFullscreen(), domain.ErrNotFullscreen)
	assert.ErrorIs(t, h.RequestFullscreen(dom.NewHost().NewContainer(10, 10)), domain.ErrInvalidOption)

	require.NoError(t, h.RequestFullscreen(s.Container()))
	assert.True(t, h.IsFullscreen())
	assert.True(t, w.FullScreen())

	require.NoError(t, h.ExitFullscreen())
	assert.False(t, h.IsFullscreen())
}

func TestHostDispatchAndCanvases(t *testing.T) {
	h, _, _ := newTestHost(t)
	ran := false
	h.Dispatch(func() { ran = true })
	h.Dispatch(nil)
	assert.True(t, ran)

	c, err := h.NewCanvas(30, 20)
	require.NoError(t, err)
	assert.Equal(t, 30, c.Width())
	_, err = h.NewCanvas(-1, 20)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)
}

func TestComponentRendersIntoSurface(t *testing.T) {
	h, s, _ := newTestHost(t)
	s.Resize(fyneapp.NewSize(200, 100))
	player := audiomock.NewElement()

	c, err := visualizer.New(visualizer.Config{
		Kind:            domain.KindBars,
		Player:          player,
		RenderTo:        s.Container(),
		Host:            h,
		NewAudioContext: soft.Factory(),
		Logger:          logger.NewTestLogger(),
	})
	require.NoError(t, err)
	defer func() { _ = c.Destroy() }()

	canvases := s.Container().Canvases()
	require.Len(t, canvases, 1)
	assert.Equal(t, 200, canvases[0].Width())

	require.NoError(t, player.Play())
	h.tick(16 * time.Millisecond)
	rc, ok := canvases[0].(*raster.Canvas)
	require.True(t, ok)
	assert.Equal(t, domain.ColorBlack, rc.At(5, 5), "silent frame is background only")

	// frames keep coming while playing
	assert.Equal(t, 1, h.runFrames(32*time.Millisecond))

	s.Resize(fyneapp.NewSize(120, 80))
	assert.Equal(t, 120, canvases[0].Width())

	require.NoError(t, c.Destroy())
	assert.Empty(t, s.Container().Canvases())
}
