package renderer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/engine/audio"
	"github.com/Carmen-Shannon/cubensis-go/engine/camera"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/resource"
	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 16 * time.Millisecond

type constantSource struct{}

func (constantSource) WaveAndSpectrum() ([]float32, []float32) {
	return make([]float32, 16), make([]float32, 8)
}
func (constantSource) Info() audio.Info { return audio.Info{DeviceName: "constant"} }
func (constantSource) Close() error     { return nil }

type recordingOverlay struct {
	scene   string
	updates int
	draws   int
}

func (o *recordingOverlay) SetScene(name string) { o.scene = name }
func (o *recordingOverlay) Update(*resource.Collection, time.Duration) {
	o.updates++
}
func (o *recordingOverlay) Draw(gpu.Encoder, *wgpu.TextureView) error {
	o.draws++
	return nil
}

type fixture struct {
	dir     string
	dev     *gputest.Device
	library scene.Library
}

func quadMesh(name string, shaders ...string) scene.MeshDescriptor {
	d := scene.MeshDescriptor{Name: name, GeometrySource: scene.QuadGeometry()}
	for _, s := range shaders {
		d.RenderShaders = append(d.RenderShaders, scene.RenderShader{Path: s, Name: s, Blending: scene.BlendingAlpha})
	}
	return d
}

// newFixture writes two shaders and three scenes: "Main" with two meshes, "Other" with one mesh
// and a texture, and "Broken" whose shader does not parse.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir(), dev: gputest.NewDevice()}
	f.write(t, "shared.wgsl", gputest.QuadShader)
	f.write(t, "own.wgsl", gputest.QuadShader)
	f.write(t, "broken.wgsl", gputest.BrokenShader)

	other := scene.Scene{Name: "Other", Meshes: []scene.MeshDescriptor{quadMesh("Solo", "own.wgsl")}}
	other.Textures.Texture1 = &scene.TextureAsset{Path: "missing.png"}
	for file, s := range map[string]scene.Scene{
		"main" + scene.FileExtension: {Name: "Main", Meshes: []scene.MeshDescriptor{
			quadMesh("First", "shared.wgsl", "shared.wgsl"),
			quadMesh("Second", "own.wgsl"),
		}},
		"other" + scene.FileExtension:  other,
		"broken" + scene.FileExtension: {Name: "Broken", Meshes: []scene.MeshDescriptor{quadMesh("Bad", "broken.wgsl")}},
	} {
		require.NoError(t, scene.Save(filepath.Join(f.dir, file), s))
	}

	lib, err := scene.LoadLibrary(f.dir, "Main")
	require.NoError(t, err)
	f.library = lib
	return f
}

func (f *fixture) write(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func (f *fixture) renderer(t *testing.T, options ...RendererBuilderOption) Renderer {
	t.Helper()
	col, err := resource.NewStandardCollection(f.dev, resource.NewStandardRegistry(),
		camera.NewCamera(camera.WithSize(64, 64)), constantSource{}, [resource.TextureSlots]string{})
	require.NoError(t, err)
	r, err := NewRenderer(f.dev, f.library, col, 64, 64, options...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

func ops(cmds []gputest.Command, op string) []gputest.Command {
	var out []gputest.Command
	for _, c := range cmds {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func TestNewRendererBuildsCurrentScene(t *testing.T) {
	f := newFixture(t)
	o := &recordingOverlay{}
	r := f.renderer(t, WithOverlay(o))

	assert.Equal(t, "Main", r.Scene().Name)
	assert.Equal(t, "Main", o.scene)
	meshes := r.Meshes()
	require.Len(t, meshes, 2)
	assert.Len(t, meshes[0].Pipelines(), 2)
	assert.Len(t, meshes[1].Pipelines(), 1)
	assert.Equal(t, 1, r.Presentation().HistoryDepth())

	// The composite pipeline plus one per pass.
	assert.Equal(t, 4, f.dev.PipelineCount())
}

func TestNewRendererRejectsBadHistoryDepth(t *testing.T) {
	f := newFixture(t)
	col, err := resource.NewStandardCollection(f.dev, resource.NewStandardRegistry(),
		camera.NewCamera(), constantSource{}, [resource.TextureSlots]string{})
	require.NoError(t, err)
	_, err = NewRenderer(f.dev, f.library, col, 64, 64, WithHistoryDepth(0))
	assert.Error(t, err)
}

func TestRenderDrawsMeshesIntoHistory(t *testing.T) {
	f := newFixture(t)
	o := &recordingOverlay{}
	r := f.renderer(t, WithOverlay(o))
	require.NoError(t, r.Update(frame))
	require.NoError(t, r.Render())

	assert.Equal(t, 1, f.dev.Submits)
	assert.Equal(t, 1, f.dev.Presents)
	assert.Equal(t, 1, o.draws)
	assert.Equal(t, 1, o.updates)
	require.Len(t, f.dev.Passes, 3)

	target := r.Presentation().PresentationView()
	history := r.Presentation().CurrentBindGroup()
	for i, pass := range f.dev.Passes[:2] {
		begin := pass[0].Arg.(*wgpu.RenderPassDescriptor)
		assert.Same(t, target, begin.ColorAttachments[0].View)
		require.NotNil(t, begin.DepthStencilAttachment)
		assert.Same(t, r.Presentation().DepthView(), begin.DepthStencilAttachment.View)
		if i == 0 {
			assert.Equal(t, wgpu.LoadOpClear, begin.ColorAttachments[0].LoadOp)
		} else {
			assert.Equal(t, wgpu.LoadOpLoad, begin.ColorAttachments[0].LoadOp)
		}
		for _, c := range ops(pass, "SetBindGroup") {
			if c.Index == 1 {
				assert.Same(t, history, c.Arg)
			}
		}
	}
	assert.Len(t, ops(f.dev.Passes[0], "DrawIndexed"), 2)
	assert.Len(t, ops(f.dev.Passes[1], "DrawIndexed"), 1)
	assert.NotSame(t, target, f.dev.Passes[2][0].Arg.(*wgpu.RenderPassDescriptor).ColorAttachments[0].View)
}

func TestRenderSurfaceErrors(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	textures := len(f.dev.Textures)

	f.dev.SurfaceErr = errors.New("Surface lost")
	require.NoError(t, r.Render())
	assert.Greater(t, len(f.dev.Textures), textures, "targets recreated")
	assert.Zero(t, f.dev.Submits)

	f.dev.SurfaceErr = errors.New("timeout")
	assert.NoError(t, r.Render())

	f.dev.SurfaceErr = errors.New("out of memory")
	assert.ErrorIs(t, r.Render(), gpu.ErrSurfaceOutOfMemory)

	f.dev.SurfaceErr = nil
	assert.NoError(t, r.Render())
	assert.Equal(t, 1, f.dev.Presents)
}

func TestFileEditRebuildsMatchingSlots(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	before := f.dev.PipelineCount()
	first := r.Meshes()[0].Pipelines()

	require.NoError(t, r.HandleAppEvent(event.FileEdit{Path: filepath.Join(f.dir, "shared.wgsl")}))
	assert.Equal(t, before+2, f.dev.PipelineCount())
	assert.NotSame(t, first[0], r.Meshes()[0].Pipelines()[0])

	f.write(t, "own.wgsl", gputest.BrokenShader)
	second := r.Meshes()[1].Pipelines()
	assert.Error(t, r.HandleAppEvent(event.FileEdit{Path: filepath.Join(f.dir, "own.wgsl")}))
	assert.Equal(t, second, r.Meshes()[1].Pipelines())

	assert.NoError(t, r.HandleAppEvent(event.FileEdit{Path: filepath.Join(f.dir, "notes.txt")}))
	assert.NoError(t, r.HandleAppEvent(event.GuiRedrawRequest{}))
}

func TestSceneChange(t *testing.T) {
	f := newFixture(t)
	o := &recordingOverlay{}
	r := f.renderer(t, WithOverlay(o))
	old := r.Meshes()

	require.NoError(t, r.HandleAppEvent(event.SceneChange{Name: "Other"}))
	assert.Equal(t, "Other", r.Scene().Name)
	assert.Equal(t, "Other", f.library.CurrentName())
	assert.Equal(t, "Other", o.scene)
	require.Len(t, r.Meshes(), 1)
	for _, m := range old {
		for _, p := range m.Pipelines() {
			assert.False(t, f.dev.Live(p.RenderPipeline()))
		}
	}

	tex, ok := r.Collection().Resource(resource.KindTexture)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(f.dir, "missing.png"), tex.Texture.Paths()[0])

	live := f.dev.LiveCount()
	err := r.SwitchScene("Broken")
	require.Error(t, err)
	assert.Equal(t, "Other", r.Scene().Name)
	assert.Equal(t, live, f.dev.LiveCount())

	assert.ErrorIs(t, r.SwitchScene("Nope"), scene.ErrSceneNotFound)
	assert.Equal(t, "Other", f.library.CurrentName())
}

func TestTextureChangeRecompilesMeshes(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	require.NoError(t, r.Update(frame))
	require.NoError(t, r.Update(frame))

	require.NoError(t, r.SwitchScene("Other"))
	before := f.dev.PipelineCount()
	require.NoError(t, r.Update(frame))
	assert.Equal(t, before+1, f.dev.PipelineCount())

	require.NoError(t, r.Update(frame))
	assert.Equal(t, before+1, f.dev.PipelineCount())
}

func TestResizeClampsAndRecompiles(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	before := f.dev.PipelineCount()
	live := f.dev.LiveCount()

	require.NoError(t, r.Resize(0, -1))
	w, h := r.Presentation().Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	// The composite pipeline and the three mesh passes.
	assert.Equal(t, before+4, f.dev.PipelineCount())
	assert.Equal(t, live, f.dev.LiveCount())
}

func TestHandleInputReachesCamera(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	assert.True(t, r.HandleInput(event.Input{Kind: event.InputScroll, Delta: 1}))
	assert.False(t, r.HandleInput(event.Input{Kind: event.InputKeyDown, Key: 70}))
}

// flakyDevice fails the next failPipelines calls to CreateRenderPipeline.
type flakyDevice struct {
	*gputest.Device
	failPipelines int
}

func (d *flakyDevice) CreateRenderPipeline(desc *gpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	if d.failPipelines > 0 {
		d.failPipelines--
		return nil, gputest.ErrInjected
	}
	return d.Device.CreateRenderPipeline(desc)
}

func TestFailedRecompileIsRetried(t *testing.T) {
	f := newFixture(t)
	dev := &flakyDevice{Device: f.dev}
	col, err := resource.NewStandardCollection(f.dev, resource.NewStandardRegistry(),
		camera.NewCamera(camera.WithSize(64, 64)), constantSource{}, [resource.TextureSlots]string{})
	require.NoError(t, err)
	r, err := NewRenderer(dev, f.library, col, 64, 64)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	require.NoError(t, r.Update(frame))

	require.NoError(t, r.SwitchScene("Other"))
	before := f.dev.PipelineCount()
	old := r.Meshes()[0].Pipelines()

	dev.failPipelines = 1
	assert.ErrorIs(t, r.Update(frame), gputest.ErrInjected)
	assert.Equal(t, before, f.dev.PipelineCount())
	assert.Equal(t, old, r.Meshes()[0].Pipelines())

	require.NoError(t, r.Update(frame))
	assert.Equal(t, before+1, f.dev.PipelineCount(), "the stale mesh is recompiled")

	require.NoError(t, r.Update(frame))
	assert.Equal(t, before+1, f.dev.PipelineCount())
}

func TestSceneFileEditReloadsLibrary(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)

	extra := filepath.Join(f.dir, "extra"+scene.FileExtension)
	require.NoError(t, scene.Save(extra, scene.Scene{Name: "Extra", Meshes: []scene.MeshDescriptor{quadMesh("Solo", "own.wgsl")}}))
	require.NoError(t, r.HandleAppEvent(event.FileEdit{Path: extra}))
	_, ok := f.library.Scene("Extra")
	assert.True(t, ok)
	assert.Equal(t, "Main", r.Scene().Name)
	require.Len(t, r.Meshes(), 2)

	main := filepath.Join(f.dir, "main"+scene.FileExtension)
	require.NoError(t, scene.Save(main, scene.Scene{Name: "Main", Meshes: []scene.MeshDescriptor{quadMesh("Only", "own.wgsl")}}))
	require.NoError(t, r.HandleAppEvent(event.FileEdit{Path: main}))
	require.Len(t, r.Meshes(), 1, "the displayed scene is rebuilt from the edited file")
	assert.Equal(t, "Only", r.Meshes()[0].Name())
	assert.Equal(t, "Main", f.library.CurrentName())
}
