// Package camera provides the arcball camera the renderer exposes to shaders as a uniform.
package camera

import (
	"sync"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/chewxy/math32"
)

const (
	// DefaultFov is the vertical field of view in radians (80 degrees).
	DefaultFov = 80 * math32.Pi / 180
	// DefaultNear is the near clipping plane distance.
	DefaultNear = 0.01
	// DefaultFar is the far clipping plane distance.
	DefaultFar = 200.0
	// WheelElapsed is the time factor applied to each wheel step.
	WheelElapsed = 0.16
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	projectionMatrix     [16]float32
	viewMatrix           [16]float32
	inverseViewMatrix    [16]float32
	viewProjectionMatrix [16]float32

	controller CameraController

	cursor     [2]float32
	haveCursor bool
	rotating   bool
	panning    bool
	dirty      bool
}

// Camera holds the perspective settings and derives the view and projection matrices from an
// arcball CameraController. It also turns window input into controller motion: left-drag
// rotates, right-drag pans and the wheel zooms.
type Camera interface {
	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the current view matrix (column-major).
	ViewMatrix() [16]float32

	// InverseViewMatrix returns the inverse of the view matrix (column-major).
	InverseViewMatrix() [16]float32

	// ProjectionMatrix returns the perspective projection with WebGPU depth range (column-major).
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns projection * view (column-major).
	ViewProjectionMatrix() [16]float32

	// Controller returns the arcball controller.
	Controller() CameraController

	// Resize updates the aspect ratio and the controller's screen size.
	//
	// Parameters:
	//   - width, height: the surface size in pixels
	Resize(width, height int)

	// HandleInput applies a window input event.
	//
	// Parameters:
	//   - e: the input event
	//
	// Returns:
	//   - bool: true if the camera consumed the event
	HandleInput(e event.Input) bool

	// Reset restores the controller's initial pose.
	Reset()

	// TakeUniform returns the GPU uniform and whether anything changed since the previous call.
	//
	// Returns:
	//   - GPUCameraUniform: the current matrices
	//   - bool: true if the uniform must be uploaded
	TakeUniform() (GPUCameraUniform, bool)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera with an 80 degree field of view, near 0.01 and far 200.
// A default arcball controller is created unless WithController is given.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    DefaultFov,
		aspect: 1,
		near:   DefaultNear,
		far:    DefaultFar,
		dirty:  true,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewCameraController()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) InverseViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseViewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Controller() CameraController {
	return c.controller
}

func (c *cameraImpl) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := math32.Max(float32(width), 1)
	h := math32.Max(float32(height), 1)
	c.aspect = w / h
	c.controller.SetScreenSize(w, h)
	c.updateMatrices()
}

func (c *cameraImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller.Reset()
	c.updateMatrices()
}

func (c *cameraImpl) HandleInput(e event.Input) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case event.InputMouseMove:
		prev, had := c.cursor, c.haveCursor
		c.cursor, c.haveCursor = [2]float32{e.X, e.Y}, true
		if !had {
			return false
		}
		switch {
		case c.rotating:
			c.controller.Rotate(prev[0], prev[1], e.X, e.Y)
		case c.panning:
			c.controller.Pan(e.X-prev[0], e.Y-prev[1])
		default:
			return false
		}
		c.updateMatrices()
		return true

	case event.InputMouseDown, event.InputMouseUp:
		pressed := e.Kind == event.InputMouseDown
		switch e.Button {
		case event.MouseLeft:
			c.rotating = pressed
		case event.MouseRight:
			c.panning = pressed
		default:
			return false
		}
		return true

	case event.InputScroll:
		if e.Delta == 0 {
			return false
		}
		c.controller.Zoom(e.Delta, WheelElapsed)
		c.updateMatrices()
		return true
	}
	return false
}

func (c *cameraImpl) TakeUniform() (GPUCameraUniform, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dirty := c.dirty
	c.dirty = false
	return GPUCameraUniform{
		View:           c.viewMatrix,
		InverseView:    c.inverseViewMatrix,
		Projection:     c.projectionMatrix,
		ViewProjection: c.viewProjectionMatrix,
	}, dirty
}

// updateMatrices recomputes every matrix from the controller and marks the uniform dirty.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	var perspective [16]float32
	common.PerspectiveGL(perspective[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.projectionMatrix[:], common.OpenGLToWGPU[:], perspective[:])

	c.viewMatrix = c.controller.ViewMatrix()
	c.inverseViewMatrix = c.controller.InverseViewMatrix()
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	c.dirty = true
}
