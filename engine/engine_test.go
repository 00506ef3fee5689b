package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	frames        int
	delay         time.Duration
	closeRequests int

	update func()
	resize func(int, int)
	input  func(event.Input)
}

func (w *fakeWindow) SetUpdateCallback(cb func())                  { w.update = cb }
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.resize = cb }
func (w *fakeWindow) SetInputCallback(cb func(e event.Input))      { w.input = cb }
func (w *fakeWindow) SetTitle(string)                              {}
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor   { return nil }
func (w *fakeWindow) IsRunning() bool                              { return w.closeRequests == 0 }
func (w *fakeWindow) RequestClose()                                { w.closeRequests++ }
func (w *fakeWindow) Close() error                                 { return nil }
func (w *fakeWindow) Width() int                                   { return 64 }
func (w *fakeWindow) Height() int                                  { return 64 }
func (w *fakeWindow) ProcessMessages() {
	for i := 0; i < w.frames && w.IsRunning(); i++ {
		w.update()
		time.Sleep(w.delay)
	}
}

// fakeRenderer records the calls the engine makes. Methods the engine never calls are left to
// the embedded nil interface.
type fakeRenderer struct {
	renderer.Renderer

	dts      []time.Duration
	renders  int
	events   []event.App
	inputs   []event.Input
	sizes    [][2]int
	released bool

	renderErr error
	panicMsg  string
}

func (r *fakeRenderer) Update(dt time.Duration) error {
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	r.dts = append(r.dts, dt)
	return nil
}
func (r *fakeRenderer) Render() error {
	r.renders++
	return r.renderErr
}
func (r *fakeRenderer) Resize(w, h int) error {
	r.sizes = append(r.sizes, [2]int{w, h})
	return nil
}
func (r *fakeRenderer) HandleInput(e event.Input) bool {
	r.inputs = append(r.inputs, e)
	return true
}
func (r *fakeRenderer) HandleAppEvent(e event.App) error {
	r.events = append(r.events, e)
	return nil
}
func (r *fakeRenderer) Release() { r.released = true }

type fakeLibrary struct {
	scene.Library
	names []string
}

func (l fakeLibrary) SceneNames() []string { return l.names }

type fakePlugin struct {
	started, stopped bool
	events           []event.App
}

func (p *fakePlugin) Name() string { return "fake" }
func (p *fakePlugin) Start(ctx context.Context, sink event.Sink) error {
	p.started = true
	return nil
}
func (p *fakePlugin) HandleEvent(e event.App) { p.events = append(p.events, e) }
func (p *fakePlugin) Shutdown() error {
	p.stopped = true
	return nil
}

type counter struct{ n int }

func (c *counter) Toggle() { c.n++ }
func (c *counter) Reset()  { c.n++ }

// steppingClock advances by one 16ms frame on every call.
func steppingClock() func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(16 * time.Millisecond)
		return t
	}
}

func newTestEngine(frames int, options ...EngineBuilderOption) (*engine, *fakeWindow, *fakeRenderer) {
	w := &fakeWindow{frames: frames}
	r := &fakeRenderer{}
	e := NewEngine(w, r, fakeLibrary{names: []string{"Alpha", "Beta"}}, options...).(*engine)
	return e, w, r
}

func TestRunDrainsEventsEveryFrame(t *testing.T) {
	p := &fakePlugin{}
	e, _, r := newTestEngine(3, WithPlugins(p), withClock(steppingClock()))
	e.Queue().Push(event.SceneChange{Name: "Beta"})

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, []event.App{event.SceneChange{Name: "Beta"}}, r.events)
	assert.Equal(t, r.events, p.events)
	assert.Equal(t, 3, r.renders)
	require.Len(t, r.dts, 3)
	for _, dt := range r.dts {
		assert.Equal(t, 16*time.Millisecond, dt)
	}
	assert.True(t, r.released)
	assert.True(t, p.started)
	assert.True(t, p.stopped)
	assert.False(t, e.Queue().Push(event.GuiRedrawRequest{}), "queue closed after Run")
}

func TestOutOfMemoryStopsTheLoop(t *testing.T) {
	e, w, r := newTestEngine(10)
	r.renderErr = fmt.Errorf("present: %w", gpu.ErrSurfaceOutOfMemory)

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, gpu.ErrSurfaceOutOfMemory)
	assert.Equal(t, 1, r.renders)
	assert.Equal(t, 1, w.closeRequests)
}

func TestOtherRenderErrorsAreNotFatal(t *testing.T) {
	e, _, r := newTestEngine(4)
	r.renderErr = gpu.ErrSurfaceOther

	assert.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 4, r.renders)
}

func TestPanicInFrameQuits(t *testing.T) {
	e, w, r := newTestEngine(10)
	r.panicMsg = "boom"

	assert.NoError(t, e.Run(context.Background()))
	assert.Zero(t, r.renders)
	assert.Equal(t, 1, w.closeRequests)
	assert.True(t, r.released)
}

func TestCancelledContextQuits(t *testing.T) {
	e, w, r := newTestEngine(1000)
	w.delay = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, e.Run(ctx))
	assert.Less(t, r.renders, 1000)
	assert.Equal(t, 1, w.closeRequests)
}

func TestKeyBindings(t *testing.T) {
	info, cam := &counter{}, &counter{}
	e, w, r := newTestEngine(0, WithInfoToggle(info), WithCameraReset(cam))
	key := func(k uint32) { w.input(event.Input{Kind: event.InputKeyDown, Key: k}) }

	key(common.KeyF)
	assert.Equal(t, 1, info.n)
	assert.Equal(t, []event.App{event.GuiRedrawRequest{}}, e.Queue().Drain())

	key(common.KeyP)
	assert.True(t, e.Profiler().Logging())
	key(common.KeyP)
	assert.False(t, e.Profiler().Logging())

	key(common.KeyR)
	assert.Equal(t, 1, cam.n)

	key(common.Key1 + 1)
	key(common.Key9)
	assert.Equal(t, []event.App{event.SceneChange{Name: "Beta"}}, e.Queue().Drain())

	assert.Empty(t, r.inputs)
	w.input(event.Input{Kind: event.InputKeyUp, Key: common.KeyF})
	w.input(event.Input{Kind: event.InputScroll, Delta: 1})
	assert.Len(t, r.inputs, 2)
	assert.Equal(t, 1, info.n)
}

func TestResizeReachesRenderer(t *testing.T) {
	_, w, r := newTestEngine(0)
	w.resize(800, 600)
	assert.Equal(t, [][2]int{{800, 600}}, r.sizes)
}
