// Command oxytrace opens a window and progressively path traces a JSON scene into it.
//
// Controls: arrow keys or left-drag orbit, WASD/QE or right-drag pan, the scroll wheel zooms, C restarts
// accumulation and P toggles the profiler.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine"
	"github.com/Carmen-Shannon/oxy-trace/engine/camera"
	"github.com/Carmen-Shannon/oxy-trace/engine/composer"
	"github.com/Carmen-Shannon/oxy-trace/engine/config"
	"github.com/Carmen-Shannon/oxy-trace/engine/loader"
	"github.com/Carmen-Shannon/oxy-trace/engine/logger"
	"github.com/Carmen-Shannon/oxy-trace/engine/renderer"
	"github.com/Carmen-Shannon/oxy-trace/engine/tracer"
	"github.com/Carmen-Shannon/oxy-trace/engine/window"
	"go.uber.org/zap"
)

func init() {
	// glfw and the surface must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "oxytrace:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "JSON config file")
	scenePath := flag.String("scene", "assets/scenes/spheres.json", "JSON scene file")
	strict := flag.Bool("strict", false, "validate every specialized shader")
	maxPasses := flag.Int("max-passes", -1, "stop accumulating after this many passes (0 = never)")
	fallback := flag.Bool("fallback-adapter", false, "render on the CPU fallback adapter")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *strict {
		cfg.StrictShaders = true
	}
	if *maxPasses >= 0 {
		cfg.MaxPasses = *maxPasses
	}
	if *fallback {
		cfg.FallbackAdapter = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.Init(cfg.Log.Development, cfg.Log.Level); err != nil {
		return err
	}
	defer logger.Sync()

	sc, desc, err := loader.LoadScene(*scenePath)
	if err != nil {
		return err
	}

	win := window.NewWindow(windowOptions(cfg)...)

	presentMode := renderer.PresentModeVSync
	if cfg.PresentMode == config.PresentModeUncapped {
		presentMode = renderer.PresentModeUncapped
	}
	r := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(presentMode),
		renderer.WithFallbackAdapter(cfg.FallbackAdapter),
	)
	defer r.Release()

	cam, ctrl := newCamera(desc, win)

	tr := tracer.NewTracer(
		tracer.WithResolution(cfg.Resolution.Width, cfg.Resolution.Height),
		tracer.WithPixelSampler(tracer.PixelSampler{
			Stratifier: tracer.Stratifier(cfg.PixelSampler.Stratifier),
			Degree:     cfg.PixelSampler.Degree,
		}),
		tracer.WithRandomSeedCount(cfg.RandomSeeds),
		tracer.WithStrictShaders(cfg.StrictShaders),
	)
	comp, err := composer.NewComposer(r, cfg.Resolution.Width, cfg.Resolution.Height)
	if err != nil {
		return fmt.Errorf("create composer: %w", err)
	}
	defer comp.Release()

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithTickRate(60),
		engine.WithMaxPasses(cfg.MaxPasses),
		engine.WithScene(sc),
		engine.WithCamera(cam),
	)
	eng.SetView(tr, comp, r)
	if win.Width() != cfg.Resolution.Width || win.Height() != cfg.Resolution.Height {
		// high-DPI framebuffers are larger than the requested client size
		eng.Resize(win.Width(), win.Height())
	}

	bindControls(eng, win, ctrl)

	logger.Log.Info("tracing",
		zap.String("scene", *scenePath),
		zap.Int("materials", len(sc.Materials())),
		zap.Int("geometry", len(sc.Geometry())),
		zap.Int("lights", len(sc.Lights())),
		zap.Bool("strict", cfg.StrictShaders),
		zap.Int("max_passes", cfg.MaxPasses),
	)
	eng.Run()
	return nil
}

// windowOptions opens the window at the tracing resolution so the traced image maps one to one onto the surface.
func windowOptions(cfg config.Config) []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Resolution.Width, cfg.Resolution.Height),
	}
}

// newCamera builds an orbit camera that starts at the scene's viewpoint, or at the controller default when the scene
// has none.
func newCamera(desc *loader.CameraDescription, win window.Window) (camera.Camera, camera.CameraController) {
	aspect := float32(win.Width()) / float32(win.Height())
	var camOpts []camera.CameraBuilderOption
	var ctrlOpts []camera.CameraControllerOption
	if desc != nil {
		camOpts = desc.Options()
		ctrlOpts = desc.ControllerOptions()
	}
	ctrl := camera.NewCameraController(ctrlOpts...)
	camOpts = append(camOpts, camera.WithAspect(aspect), camera.WithController(ctrl))
	return camera.NewCamera(camOpts...), ctrl
}

func bindControls(eng engine.Engine, win window.Window, ctrl camera.CameraController) {
	profiling := false
	win.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyLeft:
			ctrl.OrbitLeft()
		case common.KeyRight:
			ctrl.OrbitRight()
		case common.KeyUp:
			ctrl.OrbitUp()
		case common.KeyDown:
			ctrl.OrbitDown()
		case common.KeyW:
			ctrl.PanForward(ctrl.PanSpeed())
		case common.KeyS:
			ctrl.PanForward(-ctrl.PanSpeed())
		case common.KeyA:
			ctrl.PanRight(-ctrl.PanSpeed())
		case common.KeyD:
			ctrl.PanRight(ctrl.PanSpeed())
		case common.KeyE:
			ctrl.PanUp(ctrl.PanSpeed())
		case common.KeyQ:
			ctrl.PanUp(-ctrl.PanSpeed())
		case common.KeyC:
			eng.Invalidate()
		case common.KeyP:
			profiling = !profiling
			if profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		}
	})

	win.SetDragCallback(func(button window.MouseButton, dx, dy float32) {
		switch button {
		case window.MouseButtonLeft:
			ctrl.Orbit(dx*ctrl.OrbitSpeed()*0.1, -dy*ctrl.OrbitSpeed()*0.1)
		case window.MouseButtonRight:
			ctrl.PanRight(-dx * ctrl.PanSpeed() * 0.1)
			ctrl.PanUp(dy * ctrl.PanSpeed() * 0.1)
		}
	})

	win.SetScrollCallback(func(delta float32) {
		ctrl.Zoom(delta)
	})

	title := win.Title()
	lastPasses := -1
	win.SetUpdateCallback(func() {
		passes := eng.PassCount()
		if passes == lastPasses {
			return
		}
		lastPasses = passes
		status := fmt.Sprintf("%s - %d passes", title, passes)
		if eng.Converged() {
			status += " (converged)"
		}
		win.SetTitle(status)
	})
}
