package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine"
	"github.com/Carmen-Shannon/cubensis-go/engine/audio"
	"github.com/Carmen-Shannon/cubensis-go/engine/camera"
	"github.com/Carmen-Shannon/cubensis-go/engine/config"
	"github.com/Carmen-Shannon/cubensis-go/engine/overlay"
	"github.com/Carmen-Shannon/cubensis-go/engine/plugin/filewatch"
	"github.com/Carmen-Shannon/cubensis-go/engine/plugin/rpc"
	"github.com/Carmen-Shannon/cubensis-go/engine/profiler"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/gpu"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/hotreload"
	"github.com/Carmen-Shannon/cubensis-go/engine/renderer/resource"
	"github.com/Carmen-Shannon/cubensis-go/engine/scene"
	"github.com/Carmen-Shannon/cubensis-go/engine/window"
)

func main() {
	root := flag.String("config", "", "configuration directory (default ~/.cubensis)")
	sceneName := flag.String("scene", "", "scene to show first (default library.default_scene_name)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	common.SetDebug(*debug)
	if err := run(*root, *sceneName); err != nil {
		log.Printf("[Main] %v", err)
		os.Exit(1)
	}
}

func run(root, sceneName string) error {
	if root == "" {
		r, err := config.DefaultRoot()
		if err != nil {
			return err
		}
		root = r
	}
	paths := config.NewPaths(root)
	if _, err := config.CreateIfMissing(paths); err != nil {
		return err
	}
	cfg := config.LoadOrDefault(paths.ConfigFile)
	if sceneName == "" {
		sceneName = cfg.Library.DefaultSceneName
	}
	if _, err := scene.CreateIfMissing(paths.Scenes, paths.Shaders); err != nil {
		return err
	}
	library, err := scene.LoadLibrary(paths.Scenes, sceneName)
	if err != nil {
		return err
	}
	policy, err := hotreload.ParsePolicy(cfg.HotReload.Policy)
	if err != nil {
		log.Printf("[Main] %v, using %s", err, policy)
	}

	// ── Window + GPU ────────────────────────────────────────────────────
	win := window.NewWindow(
		window.WithTitle("cubensis"),
		window.WithSize(cfg.Graphics.Width, cfg.Graphics.Height),
		window.WithSizeLimits(cfg.Graphics.MinWidth, cfg.Graphics.MinHeight, cfg.Graphics.MaxWidth, cfg.Graphics.MaxHeight),
	)
	defer win.Close()

	gctx, err := gpu.NewContext(win.SurfaceDescriptor(),
		gpu.WithVSync(cfg.Graphics.EnableVSync),
		gpu.WithFallbackAdapter(cfg.Graphics.PreferLegacyBackends),
	)
	if err != nil {
		return fmt.Errorf("failed to create GPU context: %w", err)
	}
	defer gctx.Destroy()
	gctx.ConfigureSurface(win.Width(), win.Height())

	// ── Resources ───────────────────────────────────────────────────────
	source := audio.NewSource(cfg.Audio.Source, cfg.Audio.BufferSize)
	defer source.Close()

	cam := camera.NewCamera(
		camera.WithSize(win.Width(), win.Height()),
		camera.WithController(camera.NewCameraController(
			camera.WithScreenSize(float32(win.Width()), float32(win.Height())),
		)),
	)
	col, err := resource.NewStandardCollection(gctx, resource.NewStandardRegistry(), cam, source, [resource.TextureSlots]string{})
	if err != nil {
		return err
	}

	// ── Renderer + overlay ──────────────────────────────────────────────
	prof := profiler.NewProfiler()
	info := overlay.NewInfo(win.SetTitle, overlay.WithStats(prof.Stats))
	r, err := renderer.NewRenderer(gctx, library, col, win.Width(), win.Height(),
		renderer.WithHistoryDepth(cfg.Graphics.HistoryDepth),
		renderer.WithHotReloadPolicy(policy),
		renderer.WithOverlay(info),
	)
	if err != nil {
		col.Release()
		return err
	}

	// ── Engine ──────────────────────────────────────────────────────────
	eng := engine.NewEngine(win, r, library,
		engine.WithProfiler(prof),
		engine.WithInfoToggle(info),
		engine.WithCameraReset(cam),
		engine.WithPlugins(
			filewatch.NewWatcher([]string{paths.Root},
				filewatch.WithDebounce(time.Duration(cfg.HotReload.DebounceMillis)*time.Millisecond)),
			rpc.NewServer(cfg.Network.Addr(), rpc.WithSceneLookup(func(name string) bool {
				_, ok := library.Scene(name)
				return ok
			})),
		),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	log.Printf("[Main] showing %q from %s", library.CurrentName(), library.Dir())
	return eng.Run(ctx)
}
