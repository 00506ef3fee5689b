package camera

import (
	"sync"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/chewxy/math32"
)

// cameraControllerImpl is a Shoemake arcball. Cursor positions are mapped onto a unit
// hemisphere over the screen; dragging from one point to another composes the rotation
// between them onto the current orientation.
type cameraControllerImpl struct {
	mu *sync.Mutex

	center    [3]float32
	distance  float32
	zoomSpeed float32
	invScreen [2]float32

	translation       [16]float32
	centerTranslation [16]float32
	rotation          common.Quat

	view    [16]float32
	invView [16]float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates an arcball controller looking at the origin from one unit away.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:        &sync.Mutex{},
		distance:  1,
		zoomSpeed: 1,
		invScreen: [2]float32{1, 1},
	}
	for _, option := range options {
		option(cc)
	}
	cc.reset()
	return cc
}

func (cc *cameraControllerImpl) Rotate(prevX, prevY, curX, curY float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cur := cc.toBall(curX, curY)
	prev := cc.toBall(prevX, prevY)
	cc.rotation = cur.Mul(prev).Mul(cc.rotation)
	cc.update()
}

func (cc *cameraControllerImpl) Pan(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	zoomDist := math32.Abs(cc.translation[14])
	delta := [4]float32{
		dx * cc.invScreen[0] * zoomDist,
		-dy * cc.invScreen[1] * zoomDist,
		0,
		0,
	}
	motion := common.MulVec4(cc.invView[:], delta)

	var step [16]float32
	common.Translation(step[:], motion[0], motion[1], motion[2])
	common.Mul4(cc.centerTranslation[:], step[:], cc.centerTranslation[:])
	cc.update()
}

func (cc *cameraControllerImpl) Zoom(amount, elapsed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	var step [16]float32
	common.Translation(step[:], 0, 0, amount*cc.zoomSpeed*elapsed)
	common.Mul4(cc.translation[:], step[:], cc.translation[:])
	cc.update()
}

func (cc *cameraControllerImpl) SetScreenSize(width, height float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.setScreenSize(width, height)
}

func (cc *cameraControllerImpl) Reset() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.reset()
}

func (cc *cameraControllerImpl) ViewMatrix() [16]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.view
}

func (cc *cameraControllerImpl) InverseViewMatrix() [16]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.invView
}

func (cc *cameraControllerImpl) EyePosition() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.invView[12], cc.invView[13], cc.invView[14]
}

func (cc *cameraControllerImpl) Distance() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return math32.Abs(cc.translation[14])
}

func (cc *cameraControllerImpl) Rotation() common.Quat {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.rotation
}

// --- internal helpers ---

// setScreenSize stores the reciprocal screen size. Degenerate sizes are treated as one pixel.
func (cc *cameraControllerImpl) setScreenSize(width, height float32) {
	cc.invScreen = [2]float32{1 / math32.Max(width, 1), 1 / math32.Max(height, 1)}
}

// reset rebuilds the initial state from center and distance.
// Caller must hold the mutex (or own cc exclusively).
func (cc *cameraControllerImpl) reset() {
	common.Translation(cc.translation[:], 0, 0, -cc.distance)
	common.Translation(cc.centerTranslation[:], -cc.center[0], -cc.center[1], -cc.center[2])
	cc.rotation = common.QuatIdentity()
	cc.update()
}

// toBall maps a pixel position onto the arcball as a pure quaternion. Points outside the unit
// disk are projected onto its rim.
func (cc *cameraControllerImpl) toBall(px, py float32) common.Quat {
	x := common.Clamp(px*2*cc.invScreen[0]-1, -1, 1)
	y := common.Clamp(1-2*py*cc.invScreen[1], -1, 1)
	dist := x*x + y*y
	if dist <= 1 {
		return common.Quat{X: x, Y: y, Z: math32.Sqrt(1 - dist)}
	}
	l := math32.Sqrt(dist)
	return common.Quat{X: x / l, Y: y / l}
}

// update recomputes view = translation * rotation * centerTranslation and its inverse.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) update() {
	var rot [16]float32
	cc.rotation.Mat4(rot[:])
	common.Mul4(cc.view[:], cc.translation[:], rot[:])
	common.Mul4(cc.view[:], cc.view[:], cc.centerTranslation[:])
	if !common.Invert4(cc.invView[:], cc.view[:]) {
		common.Identity(cc.invView[:])
	}
}
