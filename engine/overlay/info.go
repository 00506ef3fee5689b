package overlay

import (
	"fmt"
	"strings"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/profiler"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// Info shows the scene name, frame rate, audio device and camera state in the window title.
// It does not draw into the surface.
type Info struct {
	setTitle  func(string)
	stats     func() profiler.Stats
	baseTitle string
	interval  time.Duration

	scene     string
	visible   bool
	since     time.Duration
	text      string
	lastTitle string
}

var _ Overlay = &Info{}

// NewInfo creates a visible info overlay that refreshes the title four times a second.
//
// Parameters:
//   - setTitle: called with the new title whenever it changes
//   - options: functional options to configure the overlay
//
// Returns:
//   - *Info: the overlay
func NewInfo(setTitle func(string), options ...InfoBuilderOption) *Info {
	i := &Info{
		setTitle:  setTitle,
		stats:     func() profiler.Stats { return profiler.Stats{} },
		baseTitle: "cubensis",
		interval:  250 * time.Millisecond,
		visible:   true,
	}
	for _, option := range options {
		option(i)
	}
	return i
}

// SetScene sets the scene name shown in the title.
func (i *Info) SetScene(name string) {
	i.scene = name
	i.since = i.interval
}

// Visible reports whether the details are shown.
func (i *Info) Visible() bool {
	return i.visible
}

// Toggle shows or hides the details. Hidden, the title is only the base title.
func (i *Info) Toggle() {
	i.visible = !i.visible
	i.since = i.interval
}

// Text returns the detail line of the last refresh.
func (i *Info) Text() string {
	return i.text
}

func (i *Info) Update(col *resource.Collection, dt time.Duration) {
	i.since += dt
	if i.since < i.interval {
		return
	}
	i.since = 0

	i.text = i.describe(col)
	title := i.baseTitle
	if i.visible && i.text != "" {
		title = i.baseTitle + " | " + i.text
	}
	if title != i.lastTitle && i.setTitle != nil {
		i.setTitle(title)
	}
	i.lastTitle = title
}

func (i *Info) describe(col *resource.Collection) string {
	var parts []string
	if i.scene != "" {
		parts = append(parts, i.scene)
	}
	if s := i.stats(); s.FPS > 0 {
		parts = append(parts, fmt.Sprintf("%.0f fps", s.FPS))
	}
	if col != nil {
		if r, ok := col.Resource(resource.KindAudio); ok {
			parts = append(parts, r.Audio.Source().Info().String())
		}
		if r, ok := col.Resource(resource.KindCamera); ok {
			ctl := r.Camera.Camera().Controller()
			x, y, z := ctl.EyePosition()
			parts = append(parts, fmt.Sprintf("eye (%.2f, %.2f, %.2f) dist %.2f", x, y, z, ctl.Distance()))
		}
	}
	return strings.Join(parts, " | ")
}

func (i *Info) Draw(gpu.Encoder, *wgpu.TextureView) error {
	return nil
}
