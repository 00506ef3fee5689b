package renderer

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/Carmen-Shannon/cubensis-go/engine/overlay"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/hotreload"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/mesh"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/presentation"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/resource"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/shader"
	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// surfaceConfigurer is implemented by devices bound to a window surface.
type surfaceConfigurer interface {
	ConfigureSurface(width, height int)
}

// sceneNamer is implemented by overlays that display the current scene.
type sceneNamer interface {
	SetScene(name string)
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	dev        gpu.Device
	library    scene.Library
	collection *resource.Collection

	pp           shader.PreProcessor
	compiler     pipeline.Compiler
	presentation presentation.Pass
	coordinator  hotreload.Coordinator
	overlay      overlay.Overlay

	meshes []mesh.Mesh
	scene  scene.Scene
	// stale holds meshes whose last recompile failed. Update retries them.
	stale []mesh.Mesh

	// Pre-creation config collected from builder options
	historyDepth int
	policy       hotreload.Policy
	clearColor   wgpu.Color

	width, height int
}

// Renderer draws the meshes of the current scene into the render history every frame and
// presents the newest history texture. It also routes input and application events to the
// resources, the hot-reload coordinator and the scene library.
//
// All methods must be called from the render thread.
type Renderer interface {
	// Update advances the resources and the overlay. When the resource bind group was rebuilt,
	// every mesh pipeline is recompiled against the new layout.
	//
	// Parameters:
	//   - dt: the time since the previous frame
	//
	// Returns:
	//   - error: error if the resources or meshes could not be rebuilt; the previous state is kept
	Update(dt time.Duration) error

	// Render draws one frame. Lost and outdated surfaces are reconfigured and the frame is
	// skipped; timeouts are skipped silently.
	//
	// Returns:
	//   - error: gpu.ErrSurfaceOutOfMemory, which is fatal, or an encoder error
	Render() error

	// Resize reconfigures the surface and recreates every size-dependent object.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	//
	// Returns:
	//   - error: error if the history targets or any mesh could not be recreated
	Resize(width, height int) error

	// HandleInput offers an input event to the resources.
	//
	// Returns:
	//   - bool: true if a resource captured the event
	HandleInput(e event.Input) bool

	// HandleAppEvent applies a file edit or a scene change.
	//
	// Parameters:
	//   - e: the application event
	//
	// Returns:
	//   - error: the hot-reload or scene switch failure; the previous state stays active
	HandleAppEvent(e event.App) error

	// SwitchScene builds the meshes and textures of the named scene and makes it current. On
	// failure the previous scene keeps rendering.
	//
	// Parameters:
	//   - name: the scene name in the library
	//
	// Returns:
	//   - error: scene.ErrSceneNotFound, or the mesh or texture failure
	SwitchScene(name string) error

	// Scene returns the scene being rendered.
	Scene() scene.Scene

	// Meshes returns the meshes of the current scene in draw order.
	Meshes() []mesh.Mesh

	// Collection returns the resource collection.
	Collection() *resource.Collection

	// Presentation returns the history ring and composite pass.
	Presentation() presentation.Pass

	// Release releases the meshes, the presentation pass and the resource collection.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates the presentation pass and builds the meshes of the library's current
// scene. On success the renderer owns col and releases it in Release.
//
// Parameters:
//   - dev: the device, typically a gpu.Context
//   - library: the scene library
//   - col: the resource collection bound at group 0
//   - width: the initial surface width
//   - height: the initial surface height
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: error if the presentation pass or any mesh of the initial scene cannot be built
func NewRenderer(dev gpu.Device, library scene.Library, col *resource.Collection, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:           &sync.Mutex{},
		dev:          dev,
		library:      library,
		collection:   col,
		overlay:      overlay.Nop{},
		historyDepth: 1,
		policy:       hotreload.MatchAll,
		clearColor:   wgpu.Color{R: 0.01, G: 0.01, B: 0.01, A: 1},
		width:        max(width, 1),
		height:       max(height, 1),
	}
	for _, option := range options {
		option(r)
	}

	var err error
	r.presentation, err = presentation.NewPass(dev, r.historyDepth, r.width, r.height, presentation.WithClearColor(r.clearColor))
	if err != nil {
		return nil, fmt.Errorf("failed to create presentation pass: %w", err)
	}

	// The history group follows the resource groups.
	historyGroup := uint32(len(col.LayoutGroups()))
	r.pp = shader.NewPreProcessor(
		shader.WithIncludes(col.Includes()),
		shader.WithIncludeGroup(resource.IncludeAll, col.IncludeNames()...),
		shader.WithInclude(presentation.HistoryIncludeName, presentation.HistoryInclude(historyGroup)),
	)
	r.compiler = pipeline.NewCompiler(dev, r.pp, pipeline.WithPathResolver(library.ResolvePath))
	r.coordinator = hotreload.NewCoordinator(hotreload.WithPolicy(r.policy))
	col.Resize(r.width, r.height)

	initial := library.CurrentScene()
	if err := r.applyScene(initial); err != nil {
		r.presentation.Release()
		return nil, err
	}
	log.Printf("[Renderer] rendering scene %q with %d mesh(es), history depth %d", initial.Name, len(r.meshes), r.historyDepth)
	return r, nil
}

func (r *renderer) Update(dt time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rebuilt, err := r.collection.Update(dt)
	if err != nil {
		return fmt.Errorf("failed to rebuild resources: %w", err)
	}
	switch {
	case rebuilt:
		r.syncIncludes()
		if err := r.recompile(r.meshes); err != nil {
			return err
		}
	case len(r.stale) > 0:
		if err := r.recompile(r.stale); err != nil {
			return err
		}
	}
	r.overlay.Update(r.collection, dt)
	return nil
}

func (r *renderer) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.presentation.StartFrame()
	encoder, err := r.dev.BeginEncoder("Frame Encoder")
	if err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}

	view := r.presentation.PresentationView()
	depth := r.presentation.DepthView()
	history := r.presentation.CurrentBindGroup()
	groups := r.collection.BindGroups()

	if len(r.meshes) == 0 {
		encoder.BeginRenderPass(r.meshPassDescriptor(view, depth, true)).End()
	}
	for i, m := range r.meshes {
		rp := encoder.BeginRenderPass(r.meshPassDescriptor(view, depth, i == 0))
		m.Draw(rp, groups, history)
		rp.End()
	}

	err = r.presentation.Present(encoder, r.overlay)
	switch {
	case err == nil:
		return nil
	case gpu.IsRecoverableSurfaceError(err):
		log.Printf("[Renderer] %v, reconfiguring surface", err)
		if err := r.resizeLocked(r.width, r.height); err != nil {
			log.Printf("[Renderer] failed to recover surface: %v", err)
		}
		return nil
	case errors.Is(err, gpu.ErrSurfaceOutOfMemory):
		return err
	case errors.Is(err, gpu.ErrSurfaceTimeout):
		common.Debugf("[Renderer] %v, skipping frame", err)
		return nil
	default:
		log.Printf("[Renderer] frame dropped: %v", err)
		return nil
	}
}

// meshPassDescriptor targets the history write slot. The first pass of a frame clears color and
// depth, later passes load what the previous ones drew.
func (r *renderer) meshPassDescriptor(view, depth *wgpu.TextureView, first bool) *wgpu.RenderPassDescriptor {
	load := wgpu.LoadOpLoad
	if first {
		load = wgpu.LoadOpClear
	}
	return &wgpu.RenderPassDescriptor{
		Label: "Mesh Render Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     load,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: r.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     load,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	}
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resizeLocked(width, height)
}

func (r *renderer) resizeLocked(width, height int) error {
	width, height = max(width, 1), max(height, 1)
	if sc, ok := r.dev.(surfaceConfigurer); ok {
		sc.ConfigureSurface(width, height)
	}
	r.collection.Resize(width, height)
	if err := r.presentation.Resize(width, height); err != nil {
		return fmt.Errorf("failed to resize presentation: %w", err)
	}
	r.width, r.height = width, height
	return r.recompile(r.meshes)
}

// recompile recompiles meshes against the current layouts. A mesh that fails keeps its previous
// pipelines and is retried by the next Update.
func (r *renderer) recompile(meshes []mesh.Mesh) error {
	resources, history := r.collection.LayoutGroups(), r.presentation.HistoryLayoutGroup()
	var errs []error
	var failed []mesh.Mesh
	for _, m := range meshes {
		if err := m.Resize(resources, history); err != nil {
			errs = append(errs, fmt.Errorf("mesh %q: %w", m.Name(), err))
			failed = append(failed, m)
		}
	}
	r.stale = failed
	return errors.Join(errs...)
}

// syncIncludes refreshes the resource declarations seen by the pre-processor.
func (r *renderer) syncIncludes() {
	for name, src := range r.collection.Includes() {
		r.pp.SetInclude(name, src)
	}
	r.pp.SetIncludeGroup(resource.IncludeAll, r.collection.IncludeNames()...)
}

func (r *renderer) HandleInput(e event.Input) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collection.HandleOrCaptureEvent(e)
}

func (r *renderer) HandleAppEvent(e event.App) error {
	switch e := e.(type) {
	case event.FileEdit:
		if strings.HasSuffix(e.Path, scene.FileExtension) {
			return r.reloadLibrary(e.Path)
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		_, err := r.coordinator.HandleFileEdit(e.Path, r.meshes, r.collection.LayoutGroups(), r.presentation.HistoryLayoutGroup())
		return err
	case event.SceneChange:
		return r.SwitchScene(e.Name)
	case event.GuiRedrawRequest:
		r.mu.Lock()
		defer r.mu.Unlock()
		r.overlay.Update(r.collection, 0)
		return nil
	default:
		return fmt.Errorf("unhandled event %v", e)
	}
}

// reloadLibrary rescans the scene library after a scene file changed. The displayed scene is
// rebuilt only when its reloaded descriptor differs.
func (r *renderer) reloadLibrary(path string) error {
	if err := r.library.Reload(); err != nil {
		return fmt.Errorf("failed to reload scenes after editing %s: %w", path, err)
	}
	common.Debugf("[Renderer] scene library reloaded, %d scene(s)", len(r.library.SceneNames()))

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.library.Scene(r.scene.Name)
	if !ok || reflect.DeepEqual(s, r.scene) {
		return nil
	}
	return r.applyScene(s)
}

func (r *renderer) SwitchScene(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.library.Scene(name)
	if !ok {
		return fmt.Errorf("%w: %q", scene.ErrSceneNotFound, name)
	}
	if err := r.applyScene(s); err != nil {
		return err
	}
	if err := r.library.SetCurrent(name); err != nil {
		return err
	}
	log.Printf("[Renderer] switched to scene %q", name)
	return nil
}

// applyScene builds every mesh of s, then binds its textures, then swaps the meshes in. Nothing
// is replaced unless every step succeeds.
func (r *renderer) applyScene(s scene.Scene) error {
	resources, history := r.collection.LayoutGroups(), r.presentation.HistoryLayoutGroup()
	meshes := make([]mesh.Mesh, 0, len(s.Meshes))
	releaseNew := func() {
		for _, m := range meshes {
			m.Release()
		}
	}
	for _, d := range s.Meshes {
		m, err := mesh.New(r.dev, d, r.compiler, resources, history)
		if err != nil {
			releaseNew()
			return fmt.Errorf("scene %q: %w", s.Name, err)
		}
		meshes = append(meshes, m)
	}

	if res, ok := r.collection.Resource(resource.KindTexture); ok {
		var paths [resource.TextureSlots]string
		for i, p := range s.Textures.Paths() {
			if p != "" {
				paths[i] = r.library.ResolvePath(p)
			}
		}
		if paths != res.Texture.Paths() {
			if err := res.Texture.SetPaths(paths); err != nil {
				releaseNew()
				return fmt.Errorf("scene %q: %w", s.Name, err)
			}
		}
	}

	for _, m := range r.meshes {
		m.Release()
	}
	r.meshes = meshes
	r.stale = nil
	r.scene = s
	if n, ok := r.overlay.(sceneNamer); ok {
		n.SetScene(s.Name)
	}
	return nil
}

func (r *renderer) Scene() scene.Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scene.Clone()
}

func (r *renderer) Meshes() []mesh.Mesh {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mesh.Mesh(nil), r.meshes...)
}

func (r *renderer) Collection() *resource.Collection {
	return r.collection
}

func (r *renderer) Presentation() presentation.Pass {
	return r.presentation
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.meshes {
		m.Release()
	}
	r.meshes = nil
	r.presentation.Release()
	r.collection.Release()
}
