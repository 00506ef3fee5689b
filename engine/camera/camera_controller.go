package camera

import "github.com/Carmen-Shannon/cubensis-go/common"

// CameraController owns the camera's positional state. The arcball implementation keeps a
// distance translation, a rotation quaternion and a center translation, and composes them
// into the view matrix as translation * rotation * center.
type CameraController interface {
	// Rotate turns the camera from the orientation under the previous cursor position to the
	// orientation under the current one. Positions are in pixels.
	//
	// Parameters:
	//   - prevX, prevY: the previous cursor position
	//   - curX, curY: the current cursor position
	Rotate(prevX, prevY, curX, curY float32)

	// Pan moves the focus point with the cursor. The motion scales with the zoom distance.
	//
	// Parameters:
	//   - dx, dy: the cursor movement in pixels
	Pan(dx, dy float32)

	// Zoom moves the camera along its view axis. Positive amounts move closer.
	//
	// Parameters:
	//   - amount: the wheel delta
	//   - elapsed: the time factor applied to the motion
	Zoom(amount, elapsed float32)

	// SetScreenSize updates the pixel dimensions used to normalize cursor input.
	//
	// Parameters:
	//   - width, height: the surface size in pixels
	SetScreenSize(width, height float32)

	// Reset restores the initial distance, rotation and center.
	Reset()

	// ViewMatrix returns the world-to-eye matrix (column-major).
	ViewMatrix() [16]float32

	// InverseViewMatrix returns the eye-to-world matrix (column-major).
	InverseViewMatrix() [16]float32

	// EyePosition returns the camera position in world space.
	EyePosition() (x, y, z float32)

	// Distance returns the current distance between the eye and the focus point.
	Distance() float32

	// Rotation returns the current orientation.
	Rotation() common.Quat
}
