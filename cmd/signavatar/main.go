// Command signavatar opens a window, loads a signing avatar, and plays
// sign animations selected from the built-in catalogue. Number keys select
// signs, dragging orbits the camera, scrolling zooms, Escape quits.
package main

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/silentbridge/signavatar/common"
	"github.com/silentbridge/signavatar/engine/camera"
	"github.com/silentbridge/signavatar/engine/profiler"
	"github.com/silentbridge/signavatar/engine/renderer"
	"github.com/silentbridge/signavatar/engine/scene"
	"github.com/silentbridge/signavatar/engine/window"
	"github.com/silentbridge/signavatar/internal/catalog"
	"github.com/silentbridge/signavatar/internal/config"
	"github.com/silentbridge/signavatar/internal/logger"
	"github.com/silentbridge/signavatar/internal/screen"
)

func main() {
	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		os.Stderr.WriteString("logger error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Fatal("viewer failed", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithWidth(cfg.Window.Width),
		window.WithHeight(cfg.Window.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	rendererOptions := []renderer.RendererBuilderOption{
		renderer.WithClearColor(
			float64(cfg.Viewer.Background[0]),
			float64(cfg.Viewer.Background[1]),
			float64(cfg.Viewer.Background[2]),
			1,
		),
	}
	if cfg.Window.MSAA <= 1 {
		rendererOptions = append(rendererOptions, renderer.WithMSAA(renderer.MSAAOff))
	}
	if !cfg.Window.VSync {
		rendererOptions = append(rendererOptions, renderer.WithPresentMode(renderer.PresentModeUncapped))
	}

	r, err := renderer.NewRenderer(win.SurfaceDescriptor(), win.Width(), win.Height(), rendererOptions...)
	if err != nil {
		return err
	}
	defer r.Release()

	controller := camera.NewOrbitController()
	cam := camera.NewCamera(
		camera.WithAspect(float32(win.Width())/float32(win.Height())),
		camera.WithController(controller),
	)

	stage := scene.NewStage(cam, r,
		scene.WithBackground(cfg.Viewer.Background[0], cfg.Viewer.Background[1], cfg.Viewer.Background[2]),
	)

	characterPath := filepath.Join(cfg.Assets.Root, cfg.Assets.Character)
	scr := screen.NewScreen(stage, cfg.Assets.Root, characterPath,
		screen.WithPlayingTimer(cfg.Viewer.PlayingTimer),
		screen.WithBackground(cfg.Viewer.Background[0], cfg.Viewer.Background[1], cfg.Viewer.Background[2]),
	)
	defer scr.Teardown()

	signs := catalog.Builtin()
	logger.Info("sign catalogue ready", zap.Int("signs", len(signs)))
	for i, sign := range signs {
		if i >= 9 {
			break
		}
		logger.Info("sign binding", zap.Int("key", i+1), zap.String("sign", sign.Label))
	}

	// Input state for drag-to-orbit.
	var dragging bool
	var lastX, lastY int32

	win.SetDragStartCallback(func(x, y int32) {
		dragging = true
		lastX, lastY = x, y
	})
	win.SetDragEndCallback(func(x, y int32) {
		dragging = false
	})
	win.SetMouseMoveCallback(func(x, y int32) {
		if !dragging {
			return
		}
		controller.Rotate(float32(x-lastX), float32(y-lastY))
		lastX, lastY = x, y
	})
	win.SetScrollCallback(func(delta float32) {
		controller.Zoom(delta)
	})
	win.SetResizeCallback(func(width, height int) {
		scr.Resize(width, height)
	})
	win.SetKeyDownCallback(func(keyCode uint32) {
		if keyCode >= common.Key1 && keyCode <= common.Key9 {
			index := int(keyCode - common.Key1)
			if index < len(signs) {
				scr.Select(signs[index].ID)
			}
		}
	})

	frameStats := profiler.NewProfiler(5 * time.Second)
	lastFrame := time.Now()
	win.SetUpdateCallback(func() {
		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		lastFrame = now
		frameStats.Tick()

		// Clamp pauses (debugger, window drag) so animation never jumps.
		if dt > 0.25 {
			dt = 0.25
		}

		if err := stage.Update(dt); err != nil {
			logger.Debug("frame skipped", zap.Error(err))
		}
	})

	scr.Ready()
	win.ProcessMessages()

	return nil
}
