package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithCenter sets the point the arcball orbits around.
//
// Parameters:
//   - x, y, z: world-space focus point
//
// Returns:
//   - CameraControllerOption: functional option to set the center
func WithCenter(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.center = [3]float32{x, y, z}
	}
}

// WithDistance sets the initial distance between the eye and the center.
//
// Parameters:
//   - distance: the eye distance (positive)
//
// Returns:
//   - CameraControllerOption: functional option to set the distance
func WithDistance(distance float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if distance > 0 {
			cc.distance = distance
		}
	}
}

// WithZoomSpeed sets the multiplier applied to wheel input.
//
// Parameters:
//   - speed: the zoom speed
//
// Returns:
//   - CameraControllerOption: functional option to set the zoom speed
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}

// WithScreenSize sets the initial surface size used to normalize cursor input.
//
// Parameters:
//   - width, height: the surface size in pixels
//
// Returns:
//   - CameraControllerOption: functional option to set the screen size
func WithScreenSize(width, height float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.setScreenSize(width, height)
	}
}
