package presentation

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDrawer struct {
	views []*wgpu.TextureView
	err   error
}

func (d *recordingDrawer) Draw(encoder gpu.Encoder, view *wgpu.TextureView) error {
	d.views = append(d.views, view)
	return d.err
}

func TestNewPassRejectsZeroDepth(t *testing.T) {
	_, err := NewPass(gputest.NewDevice(), 0, 10, 10)
	assert.ErrorIs(t, err, ErrInvalidHistoryDepth)
}

func TestNewPassCreatesTargets(t *testing.T) {
	dev := gputest.NewDevice()
	p, err := NewPass(dev, 2, 64, 32)
	require.NoError(t, err)

	// Three history textures and one depth texture.
	require.Len(t, dev.Textures, 4)
	for _, desc := range dev.Textures[:3] {
		assert.Equal(t, uint32(64), desc.Size.Width)
		assert.Equal(t, dev.Format, desc.Format)
		assert.NotZero(t, desc.Usage&wgpu.TextureUsageRenderAttachment)
		assert.NotZero(t, desc.Usage&wgpu.TextureUsageTextureBinding)
	}
	assert.Equal(t, gpu.DepthFormat, dev.Textures[3].Format)
	assert.Equal(t, 2, p.HistoryDepth())

	w, h := p.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)

	group := p.HistoryLayoutGroup()
	assert.Same(t, p.BindGroupLayout(), group.Layout)
	require.Len(t, group.Entries, 2)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, group.Entries[1].Sampler.Type)

	require.Equal(t, 1, dev.PipelineCount())
	composite := dev.Pipelines[0]
	assert.False(t, composite.DepthTest)
	assert.Equal(t, pipeline.BlendState(scene.BlendingReplace), composite.Blend)
	assert.Contains(t, composite.Source, "@group(0) @binding(0) var history_texture")
}

func TestStartFrameRotatesTargets(t *testing.T) {
	dev := gputest.NewDevice()
	p, err := NewPass(dev, 1, 8, 8)
	require.NoError(t, err)

	a, b := p.PresentationView(), p.CurrentBindGroup()
	require.NotNil(t, a)
	require.NotNil(t, b)

	p.StartFrame()
	assert.NotSame(t, a, p.PresentationView())
	assert.NotSame(t, b, p.CurrentBindGroup())

	p.StartFrame()
	assert.Same(t, a, p.PresentationView())
	assert.Same(t, b, p.CurrentBindGroup())
}

func TestPresentComposesThenOverlays(t *testing.T) {
	dev := gputest.NewDevice()
	p, err := NewPass(dev, 1, 8, 8)
	require.NoError(t, err)

	enc, err := dev.BeginEncoder("frame")
	require.NoError(t, err)
	drawer := &recordingDrawer{err: errors.New("ignored")}
	require.NoError(t, p.Present(enc, drawer))

	assert.Equal(t, 1, dev.Submits)
	assert.Equal(t, 1, dev.Presents)
	require.Len(t, dev.Passes, 1)
	cmds := dev.Passes[0]
	begin := cmds[0].Arg.(*wgpu.RenderPassDescriptor)
	require.Len(t, begin.ColorAttachments, 1)
	assert.Equal(t, wgpu.LoadOpClear, begin.ColorAttachments[0].LoadOp)
	assert.Same(t, begin.ColorAttachments[0].View, drawer.views[0])
	assert.Equal(t, "SetBindGroup", cmds[2].Op)
	assert.Equal(t, "SetVertexBuffer", cmds[3].Op)
	assert.True(t, dev.Live(cmds[3].Arg))
	assert.Equal(t, "DrawIndexed", cmds[5].Op)
	assert.Equal(t, uint32(6), cmds[5].Count)
}

func TestPresentSurfaceErrorSkipsSubmit(t *testing.T) {
	dev := gputest.NewDevice()
	p, err := NewPass(dev, 1, 8, 8)
	require.NoError(t, err)

	dev.SurfaceErr = errors.New("Surface lost")
	enc, err := dev.BeginEncoder("frame")
	require.NoError(t, err)
	err = p.Present(enc, nil)
	assert.ErrorIs(t, err, gpu.ErrSurfaceLost)
	assert.Zero(t, dev.Submits)
	assert.Zero(t, dev.Presents)
}

func TestResizeReplacesTargets(t *testing.T) {
	dev := gputest.NewDevice()
	p, err := NewPass(dev, 1, 8, 8)
	require.NoError(t, err)
	oldView, oldDepth := p.PresentationView(), p.DepthView()
	live := dev.LiveCount()

	require.NoError(t, p.Resize(0, -4))
	w, h := p.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.False(t, dev.Live(oldView))
	assert.False(t, dev.Live(oldDepth))
	assert.True(t, dev.Live(p.DepthView()))
	assert.Equal(t, live, dev.LiveCount())
	assert.Equal(t, 2, dev.PipelineCount())

	p.Release()
	assert.Zero(t, dev.LiveCount())
}
