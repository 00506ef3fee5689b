package resource

import (
	"fmt"

	"github.com/Carmen-Shannon/cubensis-go/engine/audio"
	"github.com/Carmen-Shannon/cubensis-go/engine/camera"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
)

// IncludeAll is the include group that expands to the declarations of every collection member.
const IncludeAll = "resources"

// IncludeName returns the shader include name for a kind.
func IncludeName(k Kind) string {
	switch k {
	case KindTime:
		return "time"
	case KindCamera:
		return "camera"
	case KindAudio:
		return "audio"
	case KindTexture:
		return "textures"
	}
	return fmt.Sprintf("kind%d", int(k))
}

// NewStandardCollection creates the time, camera, audio and texture resources at the bindings
// reserved in reg and combines them, in that order, into a Collection.
//
// Parameters:
//   - dev: the device to allocate with
//   - reg: the registry holding a reservation for every kind
//   - cam: the camera to expose
//   - source: the audio source to sample
//   - texturePaths: the resolved scene image paths
//
// Returns:
//   - *Collection: the collection
//   - error: error if a kind is not reserved or any GPU object cannot be created
func NewStandardCollection(dev gpu.Device, reg *Registry, cam camera.Camera, source audio.Source, texturePaths [TextureSlots]string) (*Collection, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	binding := func(k Kind) (Binding, error) {
		b, ok := reg.Binding(k)
		if !ok {
			return Binding{}, fmt.Errorf("%w: %s", ErrNotReserved, k)
		}
		return b, nil
	}

	var created []*Resource
	fail := func(err error) (*Collection, error) {
		for _, r := range created {
			r.Release()
		}
		return nil, err
	}

	b, err := binding(KindTime)
	if err != nil {
		return fail(err)
	}
	t, err := NewTime(dev, b)
	if err != nil {
		return fail(err)
	}
	created = append(created, FromTime(t))

	if b, err = binding(KindCamera); err != nil {
		return fail(err)
	}
	c, err := NewCamera(dev, b, cam)
	if err != nil {
		return fail(err)
	}
	created = append(created, FromCamera(c))

	if b, err = binding(KindAudio); err != nil {
		return fail(err)
	}
	a, err := NewAudio(dev, b, source)
	if err != nil {
		return fail(err)
	}
	created = append(created, FromAudio(a))

	if b, err = binding(KindTexture); err != nil {
		return fail(err)
	}
	tx, err := NewTexture(dev, b, texturePaths)
	if err != nil {
		return fail(err)
	}
	created = append(created, FromTexture(tx))

	col, err := NewCollection(dev, created...)
	if err != nil {
		return fail(fmt.Errorf("failed to build resource collection: %w", err))
	}
	return col, nil
}
