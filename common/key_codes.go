package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyF = 70 // F key (ASCII), toggles the info overlay
	KeyP = 80 // P key (ASCII), toggles profiler logging
	KeyR = 82 // R key (ASCII), resets the camera

	Key1 = 49 // 1 key (ASCII), first scene in the library
	Key9 = 57 // 9 key (ASCII), ninth scene in the library
)
