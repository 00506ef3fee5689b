package camera

type CameraBuilderOption func(*cameraImpl)

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithSize sets the initial surface size, which fixes the aspect ratio and the controller's
// cursor normalization. Apply after WithController when both are given.
//
// Parameters:
//   - width, height: the surface size in pixels
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's size
func WithSize(width, height int) CameraBuilderOption {
	return func(c *cameraImpl) {
		w, h := float32(max(width, 1)), float32(max(height, 1))
		c.aspect = w / h
		if c.controller == nil {
			c.controller = NewCameraController()
		}
		c.controller.SetScreenSize(w, h)
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = far
	}
}

// WithController attaches a controller to the camera.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
