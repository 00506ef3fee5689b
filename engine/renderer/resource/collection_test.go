package resource

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/audio"
	"github.com/Carmen-Shannon/cubensis-go/engine/camera"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	wave, spectrum []float32
}

func (f *fakeSource) WaveAndSpectrum() ([]float32, []float32) { return f.wave, f.spectrum }
func (f *fakeSource) Info() audio.Info                        { return audio.Info{DeviceName: "fake"} }
func (f *fakeSource) Close() error                            { return nil }

func newStandard(t *testing.T, dev *gputest.Device, src *fakeSource, paths [TextureSlots]string) *Collection {
	t.Helper()
	col, err := NewStandardCollection(dev, NewStandardRegistry(), camera.NewCamera(camera.WithSize(100, 100)), src, paths)
	require.NoError(t, err)
	return col
}

func assertConsistent(t *testing.T, col *Collection, dev *gputest.Device) {
	t.Helper()
	var total int
	for _, r := range col.Resources() {
		total += int(r.Binding().Count)
	}
	entries := col.LayoutEntries()
	assert.Len(t, entries, total)

	seen := make(map[uint32]bool)
	for _, e := range entries {
		assert.False(t, seen[e.Binding], "binding %d repeated", e.Binding)
		seen[e.Binding] = true
	}

	last := dev.BindGroups[len(dev.BindGroups)-1]
	assert.Len(t, last.Entries, total)
	assert.Same(t, col.BindGroupLayouts()[0], last.Layout)
}

func TestStandardCollectionLayout(t *testing.T) {
	dev := gputest.NewDevice()
	col := newStandard(t, dev, &fakeSource{wave: make([]float32, 8), spectrum: make([]float32, 4)}, [TextureSlots]string{})

	assertConsistent(t, col, dev)
	entries := col.LayoutEntries()
	require.Len(t, entries, 11)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[0].Buffer.Type)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entries[1].Buffer.Type)
	assert.Equal(t, wgpu.TextureViewDimension1D, entries[2].Texture.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeUnfilterableFloat, entries[3].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeNonFiltering, entries[4].Sampler.Type)
	for i := 5; i < 10; i++ {
		assert.Equal(t, wgpu.TextureViewDimension2D, entries[i].Texture.ViewDimension)
	}
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, entries[10].Sampler.Type)

	require.Len(t, col.BindGroups(), 1)
	assert.NotNil(t, col.BindGroups()[0])
}

func TestAudioLengthChangeRebuilds(t *testing.T) {
	dev := gputest.NewDevice()
	src := &fakeSource{wave: make([]float32, 8), spectrum: make([]float32, 4)}
	col := newStandard(t, dev, src, [TextureSlots]string{})
	oldGroup := col.BindGroups()[0]

	rebuilt, err := col.Update(16 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, rebuilt, "same lengths keep the group")
	assert.Same(t, oldGroup, col.BindGroups()[0])

	src.wave = make([]float32, 32)
	rebuilt, err = col.Update(16 * time.Millisecond)
	require.NoError(t, err)
	assert.True(t, rebuilt)
	assert.NotSame(t, oldGroup, col.BindGroups()[0])
	assert.False(t, dev.Live(oldGroup))
	assertConsistent(t, col, dev)

	r, ok := col.Resource(KindAudio)
	require.True(t, ok)
	w, s := r.Audio.Widths()
	assert.Equal(t, uint32(32), w)
	assert.Equal(t, uint32(4), s)
}

func TestEmptySpectrumStillBindsOneTexel(t *testing.T) {
	dev := gputest.NewDevice()
	col := newStandard(t, dev, &fakeSource{}, [TextureSlots]string{})
	r, _ := col.Resource(KindAudio)
	w, s := r.Audio.Widths()
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), s)
}

func TestZeroDeltaIsNoop(t *testing.T) {
	dev := gputest.NewDevice()
	src := &fakeSource{wave: make([]float32, 8), spectrum: make([]float32, 4)}
	col := newStandard(t, dev, src, [TextureSlots]string{})
	writes, texWrites := dev.BufferWrites, dev.TextureWrites

	src.wave = make([]float32, 64)
	rebuilt, err := col.Update(0)
	require.NoError(t, err)
	assert.False(t, rebuilt)
	assert.Equal(t, writes, dev.BufferWrites)
	assert.Equal(t, texWrites, dev.TextureWrites)

	r, _ := col.Resource(KindTime)
	assert.Zero(t, r.Time.Frame())
}

func TestTimeAdvances(t *testing.T) {
	dev := gputest.NewDevice()
	col := newStandard(t, dev, &fakeSource{}, [TextureSlots]string{})
	_, err := col.Update(500 * time.Millisecond)
	require.NoError(t, err)
	_, err = col.Update(250 * time.Millisecond)
	require.NoError(t, err)

	r, _ := col.Resource(KindTime)
	assert.Equal(t, uint32(2), r.Time.Frame())
	assert.Equal(t, 750*time.Millisecond, r.Time.Elapsed())
	assert.Len(t, r.Time.Marshal(), TimeUniformSize)
}

func TestCameraCapturesDrag(t *testing.T) {
	dev := gputest.NewDevice()
	col := newStandard(t, dev, &fakeSource{}, [TextureSlots]string{})

	assert.False(t, col.HandleOrCaptureEvent(event.Input{Kind: event.InputMouseMove, X: 10, Y: 10}))
	assert.True(t, col.HandleOrCaptureEvent(event.Input{Kind: event.InputMouseDown, Button: event.MouseLeft}))
	assert.True(t, col.HandleOrCaptureEvent(event.Input{Kind: event.InputMouseMove, X: 40, Y: 10}))
	assert.False(t, col.HandleOrCaptureEvent(event.Input{Kind: event.InputKeyDown, Key: 70}))

	writes := dev.BufferWrites
	_, err := col.Update(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, writes+2, dev.BufferWrites, "time and the moved camera are uploaded")

	writes = dev.BufferWrites
	_, err = col.Update(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, writes+1, dev.BufferWrites, "an unchanged camera is not uploaded")
}

func TestSceneTexturesReplaceAndFallback(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "red.png")
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(imgPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	dev := gputest.NewDevice()
	col := newStandard(t, dev, &fakeSource{}, [TextureSlots]string{})
	r, _ := col.Resource(KindTexture)

	paths := [TextureSlots]string{imgPath, filepath.Join(dir, "missing.png")}
	require.NoError(t, r.Texture.SetPaths(paths))
	assert.Equal(t, paths, r.Texture.Paths())

	rebuilt, err := col.Update(time.Millisecond)
	require.NoError(t, err)
	assert.True(t, rebuilt)
	assertConsistent(t, col, dev)

	var sizes []wgpu.Extent3D
	for _, desc := range dev.Textures[len(dev.Textures)-TextureSlots:] {
		sizes = append(sizes, desc.Size)
	}
	assert.Equal(t, uint32(2), sizes[0].Width)
	assert.Equal(t, uint32(3), sizes[0].Height)
	assert.Equal(t, uint32(1), sizes[1].Width, "unreadable images fall back to one texel")
	assert.Equal(t, uint32(1), sizes[4].Width)
}

func TestIncludesFollowBindings(t *testing.T) {
	dev := gputest.NewDevice()
	col := newStandard(t, dev, &fakeSource{}, [TextureSlots]string{})
	inc := col.Includes()

	assert.Contains(t, inc["time"], "@group(0) @binding(0) var<uniform> time: Time;")
	assert.Contains(t, inc["camera"], "@group(0) @binding(1) var<uniform> camera: Camera;")
	assert.Contains(t, inc["audio"], "@group(0) @binding(3) var audio_spectrum: texture_1d<f32>;")
	assert.Contains(t, inc["textures"], "@group(0) @binding(9) var texture_5: texture_2d<f32>;")
	assert.Contains(t, inc["textures"], "@group(0) @binding(10) var texture_sampler: sampler;")
	assert.NotContains(t, inc, IncludeAll)
	assert.Equal(t, []string{"time", "camera", "audio", "textures"}, col.IncludeNames())

	groups := col.LayoutGroups()
	require.Len(t, groups, 1)
	assert.Same(t, col.BindGroupLayouts()[0], groups[0].Layout)
	assert.Len(t, groups[0].Entries, 11)
}

func TestReleaseFreesEverything(t *testing.T) {
	dev := gputest.NewDevice()
	col := newStandard(t, dev, &fakeSource{wave: make([]float32, 8)}, [TextureSlots]string{})
	require.NotZero(t, dev.LiveCount())
	col.Release()
	assert.Zero(t, dev.LiveCount())
}

func TestMissingReservation(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Reserve(KindTime, 0, 1)
	require.NoError(t, err)

	dev := gputest.NewDevice()
	_, err = NewStandardCollection(dev, reg, camera.NewCamera(), &fakeSource{}, [TextureSlots]string{})
	assert.ErrorIs(t, err, ErrNotReserved)
	assert.Zero(t, dev.LiveCount(), "partially built resources are released")
}

func TestWrongBindingCount(t *testing.T) {
	_, err := NewTime(gputest.NewDevice(), Binding{Count: 2})
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Audio", KindAudio.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.Equal(t, uint32(6), KindTexture.BindingCount())
}

// flakyDevice fails the next failBindGroups calls to CreateBindGroup.
type flakyDevice struct {
	*gputest.Device
	failBindGroups int
}

func (d *flakyDevice) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	if d.failBindGroups > 0 {
		d.failBindGroups--
		return nil, gputest.ErrInjected
	}
	return d.Device.CreateBindGroup(desc)
}

func TestFailedRebuildIsRetried(t *testing.T) {
	dev := &flakyDevice{Device: gputest.NewDevice()}
	src := &fakeSource{wave: make([]float32, 8), spectrum: make([]float32, 4)}
	col, err := NewStandardCollection(dev, NewStandardRegistry(), camera.NewCamera(), src, [TextureSlots]string{})
	require.NoError(t, err)
	oldGroup := col.BindGroups()[0]

	src.wave = make([]float32, 16)
	dev.failBindGroups = 1
	rebuilt, err := col.Update(16 * time.Millisecond)
	assert.ErrorIs(t, err, gputest.ErrInjected)
	assert.False(t, rebuilt)
	assert.Same(t, oldGroup, col.BindGroups()[0])

	rebuilt, err = col.Update(16 * time.Millisecond)
	require.NoError(t, err)
	assert.True(t, rebuilt, "the pending rebuild is retried")
	assert.NotSame(t, oldGroup, col.BindGroups()[0])
	assertConsistent(t, col, dev.Device)

	last := dev.BindGroups[len(dev.BindGroups)-1]
	for _, e := range last.Entries {
		if e.TextureView != nil {
			assert.True(t, dev.Live(e.TextureView), "binding %d references a released view", e.Binding)
		}
	}

	rebuilt, err = col.Update(16 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, rebuilt)
}

func TestTimeCameraAudioCollection(t *testing.T) {
	dev := gputest.NewDevice()
	reg := NewRegistry()
	tb, err := reg.Reserve(KindTime, 0, KindTime.BindingCount())
	require.NoError(t, err)
	cb, err := reg.Reserve(KindCamera, 0, KindCamera.BindingCount())
	require.NoError(t, err)
	ab, err := reg.Reserve(KindAudio, 0, KindAudio.BindingCount())
	require.NoError(t, err)

	tm, err := NewTime(dev, tb)
	require.NoError(t, err)
	cam, err := NewCamera(dev, cb, camera.NewCamera())
	require.NoError(t, err)
	au, err := NewAudio(dev, ab, &fakeSource{wave: make([]float32, 8), spectrum: make([]float32, 4)})
	require.NoError(t, err)

	col, err := NewCollection(dev, FromTime(tm), FromCamera(cam), FromAudio(au))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), cb.Offset)
	assert.Equal(t, uint32(2), ab.Offset)
	assert.Len(t, col.LayoutEntries(), 5)
	assertConsistent(t, col, dev)
}
