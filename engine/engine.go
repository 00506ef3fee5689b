package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/Carmen-Shannon/cubensis-go/engine/plugin"
	"github.com/Carmen-Shannon/cubensis-go/engine/profiler"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/Carmen-Shannon/cubensis-go/engine/window"
)

// Toggler is something the info key shows and hides.
type Toggler interface {
	Toggle()
}

// Resetter is something the reset key returns to its initial state, usually the camera.
type Resetter interface {
	Reset()
}

// engine implements the Engine interface.
// Runs every frame on the window's message loop, which owns the GPU.
type engine struct {
	window   window.Window
	renderer renderer.Renderer
	library  scene.Library

	queue    *event.Queue
	plugins  *plugin.Collection
	profiler *profiler.Profiler

	info   Toggler
	camera Resetter

	now              func() time.Time
	lastFrame        time.Time
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	// fatal is the error that stopped the loop, if any.
	fatal error
}

// Engine is the main entry point for the engine.
// It drains application events, updates and renders the scene once per window loop iteration.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Queue returns the application event queue plugins push into.
	Queue() *event.Queue

	// Profiler returns the frame profiler ticked once per frame.
	Profiler() *profiler.Profiler

	// Run starts the plugins and the window loop. It blocks until the window closes, Quit is
	// called, ctx is cancelled or rendering fails fatally, then stops the plugins and releases
	// the renderer. The window itself stays open for the caller to close.
	//
	// Parameters:
	//   - ctx: the engine lifetime, shared with the plugins
	//
	// Returns:
	//   - error: the fatal render error, or nil on a normal shutdown
	Run(ctx context.Context) error

	// Quit stops the window loop after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates an engine that drives r inside w's message loop.
//
// Parameters:
//   - w: the window whose loop runs the frames
//   - r: the renderer drawn each frame
//   - library: the scene library, used by the number keys
//   - options: functional options for engine configuration (plugins, profiler, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(w window.Window, r renderer.Renderer, library scene.Library, options ...EngineBuilderOption) Engine {
	e := &engine{
		window:      w,
		renderer:    r,
		library:     library,
		queue:       event.NewQueue(),
		plugins:     plugin.NewCollection(),
		profiler:    profiler.NewProfiler(),
		now:         time.Now,
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	w.SetResizeCallback(e.handleResize)
	w.SetInputCallback(e.handleInput)
	w.SetUpdateCallback(e.handleFrame)
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Queue() *event.Queue {
	return e.queue
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := e.plugins.StartAll(ctx, e.queue); err != nil {
		log.Printf("[Engine] some plugins are unavailable: %v", err)
	}
	go func() {
		select {
		case <-ctx.Done():
			e.Quit()
		case <-e.quitChannel:
		}
	}()

	e.lastFrame = e.now()
	e.window.ProcessMessages()
	e.Quit()

	e.queue.Close()
	if err := e.plugins.Shutdown(); err != nil {
		log.Printf("[Engine] plugin shutdown: %v", err)
	}
	e.renderer.Release()
	return e.fatal
}

// Quit signals the loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

// handleFrame runs one frame: pending application events, then update, render and profiling.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleFrame() {
	if e.quitting() {
		e.window.RequestClose()
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] frame recovered from panic: %v", r)
			e.Quit()
		}
	}()

	for _, ev := range e.queue.Drain() {
		common.Debugf("[Engine] handling %v", ev)
		if err := e.renderer.HandleAppEvent(ev); err != nil {
			log.Printf("[Engine] %v: %v", ev, err)
		}
		e.plugins.HandleEvent(ev)
	}

	now := e.now()
	dt := now.Sub(e.lastFrame)
	e.lastFrame = now

	if err := e.renderer.Update(dt); err != nil {
		log.Printf("[Engine] update failed: %v", err)
	}
	if err := e.renderer.Render(); err != nil {
		if errors.Is(err, gpu.ErrSurfaceOutOfMemory) {
			log.Printf("[Engine] stopping: %v", err)
			e.fatal = err
			e.Quit()
			return
		}
		log.Printf("[Engine] render failed: %v", err)
	}
	e.profiler.Tick()

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(now); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

func (e *engine) handleResize(width, height int) {
	if err := e.renderer.Resize(width, height); err != nil {
		log.Printf("[Engine] resize to %dx%d failed: %v", width, height, err)
	}
}

// handleInput applies the engine key bindings and passes everything else to the renderer.
func (e *engine) handleInput(in event.Input) {
	if in.Kind == event.InputKeyDown {
		switch {
		case in.Key == common.KeyF && e.info != nil:
			e.info.Toggle()
			e.queue.Push(event.GuiRedrawRequest{})
			return
		case in.Key == common.KeyP:
			e.profiler.SetLogging(!e.profiler.Logging())
			log.Printf("[Engine] profiler logging: %t", e.profiler.Logging())
			return
		case in.Key == common.KeyR && e.camera != nil:
			e.camera.Reset()
			return
		case in.Key >= common.Key1 && in.Key <= common.Key9:
			names := e.library.SceneNames()
			if i := int(in.Key - common.Key1); i < len(names) {
				e.queue.Push(event.SceneChange{Name: names[i]})
			}
			return
		}
	}
	e.renderer.HandleInput(in)
}
