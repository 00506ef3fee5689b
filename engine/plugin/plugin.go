// Package plugin runs optional background services next to the render loop. Plugins never touch
// renderer state; they communicate by pushing application events into an event.Sink.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
)

// Plugin is a background service started once with the engine.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Start launches the plugin's goroutines and returns without blocking. The plugin stops
	// when ctx is cancelled or Shutdown is called.
	//
	// Parameters:
	//   - ctx: the engine lifetime
	//   - sink: where the plugin pushes application events
	//
	// Returns:
	//   - error: error if the plugin could not start
	Start(ctx context.Context, sink event.Sink) error

	// HandleEvent observes an application event after the renderer handled it.
	HandleEvent(e event.App)

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown() error
}

// Collection starts, notifies and stops a fixed set of plugins.
type Collection struct {
	mu      *sync.Mutex
	plugins []Plugin
	started []Plugin
	cancel  context.CancelFunc
}

// NewCollection creates a collection of plugins started in the given order.
//
// Parameters:
//   - plugins: the plugins, nil entries are skipped
//
// Returns:
//   - *Collection: the collection
func NewCollection(plugins ...Plugin) *Collection {
	c := &Collection{mu: &sync.Mutex{}}
	for _, p := range plugins {
		if p != nil {
			c.plugins = append(c.plugins, p)
		}
	}
	return c
}

// Plugins returns the plugins in start order.
func (c *Collection) Plugins() []Plugin {
	return append([]Plugin(nil), c.plugins...)
}

// StartAll starts every plugin under a context derived from ctx. A plugin that fails to start is
// logged and skipped, the others keep running.
//
// Parameters:
//   - ctx: the engine lifetime
//   - sink: where plugins push application events
//
// Returns:
//   - error: the joined start failures, or nil
func (c *Collection) StartAll(ctx context.Context, sink event.Sink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, c.cancel = context.WithCancel(ctx)
	var errs []error
	for _, p := range c.plugins {
		if err := p.Start(ctx, sink); err != nil {
			log.Printf("[Plugin] %s failed to start: %v", p.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		common.Debugf("[Plugin] started %s", p.Name())
		c.started = append(c.started, p)
	}
	return errors.Join(errs...)
}

// HandleEvent forwards e to every running plugin.
func (c *Collection) HandleEvent(e event.App) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.started {
		p.HandleEvent(e)
	}
}

// Shutdown cancels the shared context and stops every running plugin in reverse start order.
//
// Returns:
//   - error: the joined shutdown failures, or nil
func (c *Collection) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	var errs []error
	for i := len(c.started) - 1; i >= 0; i-- {
		p := c.started[i]
		if err := p.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	c.started = nil
	return errors.Join(errs...)
}
