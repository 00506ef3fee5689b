// Package event defines the application events produced by plugins and the window, and the
// thread-safe queue that carries application events to the render loop.
package event

import "fmt"

// App is an application-level event. Plugins produce App events from background goroutines;
// the render loop consumes them on the main thread.
type App interface {
	fmt.Stringer
	isApp()
}

// FileEdit reports that a tracked file was created or written.
type FileEdit struct {
	Path string
}

// SceneChange requests a switch to the named scene.
type SceneChange struct {
	Name string
}

// GuiRedrawRequest asks the overlay to refresh on the next frame.
type GuiRedrawRequest struct{}

func (FileEdit) isApp()         {}
func (SceneChange) isApp()      {}
func (GuiRedrawRequest) isApp() {}

func (e FileEdit) String() string       { return fmt.Sprintf("FileEdit(%s)", e.Path) }
func (e SceneChange) String() string    { return fmt.Sprintf("SceneChange(%s)", e.Name) }
func (GuiRedrawRequest) String() string { return "GuiRedrawRequest" }

// InputKind identifies the kind of window input event.
type InputKind int

const (
	InputMouseMove InputKind = iota
	InputMouseDown
	InputMouseUp
	InputScroll
	InputKeyDown
	InputKeyUp
)

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Input is a window input event in physical pixel coordinates.
type Input struct {
	Kind InputKind
	// X, Y is the cursor position for mouse events.
	X, Y float32
	// Button is set for InputMouseDown and InputMouseUp.
	Button MouseButton
	// Delta is the vertical wheel delta for InputScroll, positive away from the user.
	Delta float32
	// Key is the GLFW key code for key events.
	Key uint32
}
