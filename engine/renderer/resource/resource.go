// Package resource holds the GPU data sources every shader can bind: the time and camera uniforms,
// the audio wave and spectrum textures and the scene textures. A Collection combines them into one
// bind group whose layout is derived from the bindings a Registry hands out.
package resource

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/cogentcore/webgpu/wgpu"
)

// Kind identifies the variant held by a Resource.
type Kind int

const (
	KindTime Kind = iota
	KindCamera
	KindAudio
	KindTexture
)

func (k Kind) String() string {
	switch k {
	case KindTime:
		return "Time"
	case KindCamera:
		return "Camera"
	case KindAudio:
		return "Audio"
	case KindTexture:
		return "Texture"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// BindingCount returns the number of bind group entries a resource of this kind emits.
func (k Kind) BindingCount() uint32 {
	switch k {
	case KindTime, KindCamera:
		return 1
	case KindAudio:
		return 3
	case KindTexture:
		return TextureSlots + 1
	default:
		return 0
	}
}

// Resource is a tagged variant over the closed set of resource kinds. Exactly one payload
// matching Kind is non-nil.
type Resource struct {
	Kind    Kind
	Time    *Time
	Camera  *Camera
	Audio   *Audio
	Texture *Texture
}

// FromTime wraps a Time payload.
func FromTime(t *Time) *Resource { return &Resource{Kind: KindTime, Time: t} }

// FromCamera wraps a Camera payload.
func FromCamera(c *Camera) *Resource { return &Resource{Kind: KindCamera, Camera: c} }

// FromAudio wraps an Audio payload.
func FromAudio(a *Audio) *Resource { return &Resource{Kind: KindAudio, Audio: a} }

// FromTexture wraps a Texture payload.
func FromTexture(t *Texture) *Resource { return &Resource{Kind: KindTexture, Texture: t} }

// Binding returns the binding range of the payload.
func (r *Resource) Binding() Binding {
	switch r.Kind {
	case KindTime:
		return r.Time.binding
	case KindCamera:
		return r.Camera.binding
	case KindAudio:
		return r.Audio.binding
	case KindTexture:
		return r.Texture.binding
	}
	panic(fmt.Sprintf("resource: unhandled kind %s", r.Kind))
}

// Update advances the payload by dt.
//
// Parameters:
//   - dt: the time since the previous frame; zero leaves all state untouched
//
// Returns:
//   - bool: true if the bind group must be rebuilt
func (r *Resource) Update(dt time.Duration) bool {
	switch r.Kind {
	case KindTime:
		return r.Time.Update(dt)
	case KindCamera:
		return r.Camera.Update(dt)
	case KindAudio:
		return r.Audio.Update(dt)
	case KindTexture:
		return r.Texture.Update(dt)
	}
	panic(fmt.Sprintf("resource: unhandled kind %s", r.Kind))
}

// Resize forwards a surface size change. It never requires a rebuild.
func (r *Resource) Resize(width, height int) {
	switch r.Kind {
	case KindTime, KindAudio, KindTexture:
	case KindCamera:
		r.Camera.Resize(width, height)
	default:
		panic(fmt.Sprintf("resource: unhandled kind %s", r.Kind))
	}
}

// LayoutEntries returns exactly Binding().Count layout entries at [Offset, Offset+Count).
func (r *Resource) LayoutEntries() []wgpu.BindGroupLayoutEntry {
	switch r.Kind {
	case KindTime:
		return r.Time.LayoutEntries()
	case KindCamera:
		return r.Camera.LayoutEntries()
	case KindAudio:
		return r.Audio.LayoutEntries()
	case KindTexture:
		return r.Texture.LayoutEntries()
	}
	panic(fmt.Sprintf("resource: unhandled kind %s", r.Kind))
}

// Entries returns the bind group entries matching LayoutEntries.
func (r *Resource) Entries() ([]wgpu.BindGroupEntry, error) {
	switch r.Kind {
	case KindTime:
		return r.Time.provider.Entries(r.Time.LayoutEntries())
	case KindCamera:
		return r.Camera.provider.Entries(r.Camera.LayoutEntries())
	case KindAudio:
		return r.Audio.provider.Entries(r.Audio.LayoutEntries())
	case KindTexture:
		return r.Texture.provider.Entries(r.Texture.LayoutEntries())
	}
	panic(fmt.Sprintf("resource: unhandled kind %s", r.Kind))
}

// HandleOrCaptureEvent offers an input event to the payload.
//
// Returns:
//   - bool: true if the event was consumed and must not propagate
func (r *Resource) HandleOrCaptureEvent(e event.Input) bool {
	switch r.Kind {
	case KindTime, KindAudio, KindTexture:
		return false
	case KindCamera:
		return r.Camera.HandleInput(e)
	}
	panic(fmt.Sprintf("resource: unhandled kind %s", r.Kind))
}

// WGSL returns the declarations that expose the payload to shaders.
func (r *Resource) WGSL() string {
	switch r.Kind {
	case KindTime:
		return r.Time.WGSL()
	case KindCamera:
		return r.Camera.WGSL()
	case KindAudio:
		return r.Audio.WGSL()
	case KindTexture:
		return r.Texture.WGSL()
	}
	panic(fmt.Sprintf("resource: unhandled kind %s", r.Kind))
}

// Release releases every GPU handle of the payload.
func (r *Resource) Release() {
	switch r.Kind {
	case KindTime:
		r.Time.provider.Release(r.Time.dev)
	case KindCamera:
		r.Camera.provider.Release(r.Camera.dev)
	case KindAudio:
		r.Audio.provider.Release(r.Audio.dev)
	case KindTexture:
		r.Texture.provider.Release(r.Texture.dev)
	default:
		panic(fmt.Sprintf("resource: unhandled kind %s", r.Kind))
	}
}

// checkBinding verifies a registry binding fits kind.
func checkBinding(kind Kind, b Binding) error {
	if b.Count != kind.BindingCount() {
		return fmt.Errorf("%s resource needs %d bindings, registry reserved %d", kind, kind.BindingCount(), b.Count)
	}
	return nil
}
