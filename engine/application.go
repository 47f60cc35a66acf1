package engine

import (
	"fmt"
	"sync"

	"github.com/kilnengine/kiln/engine/core"
	"github.com/kilnengine/kiln/engine/platform"
	"github.com/kilnengine/kiln/engine/renderer/metadata"
	"github.com/kilnengine/kiln/engine/systems"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name string
	// Minimum severity the logging facade reports.
	LogLevel core.LogLevel
	// Render views the game registers during FnBoot; created against the
	// renderer once the window and system manager exist.
	RenderViewConfigs []*metadata.RenderViewConfig
}

type applicationState struct {
	GameInstance  *Game
	IsRunning     bool
	IsSuspended   bool
	PlatformState *platform.Platform
	Width         uint32
	Height        uint32
	Clock         *core.Clock
	LastTime      float64
}

var newApplication sync.Once

var (
	initialize bool = false
	appState   *applicationState
)

func ApplicationCreate(gameInstance *Game) error {
	if initialize {
		return fmt.Errorf("application already initialized")
	}

	newApplication.Do(func() {
		appState = &applicationState{
			GameInstance: gameInstance,
			Clock:        core.NewClock(),
			IsRunning:    true,
			IsSuspended:  false,
			Width:        0,
			Height:       0,
			LastTime:     0,
		}
	})

	core.SetLogLevel(appState.GameInstance.ApplicationConfig.LogLevel)

	// initialize input
	if err := core.InputInitialize(); err != nil {
		return err
	}

	// initialize events
	if !core.EventInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}

	// register some events
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, applicationOnEvent)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, applicationOnKey)
	core.EventRegister(core.EVENT_CODE_KEY_RELEASED, applicationOnKey)
	core.EventRegister(core.EVENT_CODE_RESIZED, applicationOnResized)

	p, err := platform.New()
	if err != nil {
		return err
	}

	if err := p.Startup(appState.GameInstance.ApplicationConfig.Name,
		appState.GameInstance.ApplicationConfig.StartPosX,
		appState.GameInstance.ApplicationConfig.StartPosY,
		appState.GameInstance.ApplicationConfig.StartWidth,
		appState.GameInstance.ApplicationConfig.StartHeight); err != nil {
		return err
	}
	appState.PlatformState = p
	appState.Width = appState.GameInstance.ApplicationConfig.StartWidth
	appState.Height = appState.GameInstance.ApplicationConfig.StartHeight

	engineCfg, err := core.LoadEngineConfig("engine.toml")
	if err != nil {
		return err
	}

	sm, err := systems.NewSystemManager(appState.GameInstance.ApplicationConfig.Name, appState.Width, appState.Height, p, engineCfg)
	if err != nil {
		return err
	}
	if err := sm.Initialize(); err != nil {
		return err
	}
	appState.GameInstance.SystemManager = sm

	if appState.GameInstance.FnBoot != nil {
		if err := appState.GameInstance.FnBoot(); err != nil {
			return err
		}
	}

	for _, rvc := range appState.GameInstance.ApplicationConfig.RenderViewConfigs {
		if err := sm.RenderViewCreate(rvc); err != nil {
			return err
		}
	}

	if err := appState.GameInstance.FnInitialize(); err != nil {
		return err
	}

	if err := appState.GameInstance.FnOnResize(appState.Width, appState.Height); err != nil {
		return err
	}

	initialize = true

	return nil
}

func ApplicationRun() error {
	appState.Clock.Start()
	appState.Clock.Update()

	appState.LastTime = appState.Clock.Elapsed()

	var runningTime float64 = 0.0
	var frameCount uint64 = 0
	var targetFrameSeconds float64 = 1.0 / 60.0

	for appState.IsRunning {
		if appState.PlatformState.ShouldClose() {
			appState.IsRunning = false
			break
		}

		appState.PlatformState.PumpMessages()

		if !appState.IsSuspended {
			appState.Clock.Update()
			currentTime := appState.Clock.Elapsed()
			deltaTime := currentTime - appState.LastTime

			frameStartTime := appState.PlatformState.AbsoluteTime()

			if err := appState.GameInstance.FnUpdate(deltaTime); err != nil {
				core.LogFatal("game update failed, shutting down: %s", err)
				appState.IsRunning = false
				break
			}

			packet := &metadata.RenderPacket{}
			if err := appState.GameInstance.FnRender(packet, deltaTime); err != nil {
				core.LogFatal("game render failed, shutting down: %s", err)
				appState.IsRunning = false
				break
			}

			if err := appState.GameInstance.SystemManager.DrawFrame(packet); err != nil {
				core.LogFatal("draw frame failed, shutting down: %s", err)
				appState.IsRunning = false
				break
			}

			if err := core.InputUpdate(deltaTime); err != nil {
				return err
			}

			frameEndTime := appState.PlatformState.AbsoluteTime()
			frameElapsedTime := frameEndTime - frameStartTime
			runningTime += frameElapsedTime
			core.MetricsUpdate(frameElapsedTime)
			remainingSeconds := targetFrameSeconds - frameElapsedTime

			if remainingSeconds > 0 {
				appState.PlatformState.Sleep(uint64(remainingSeconds * 1000))
			}

			frameCount++
			appState.LastTime = currentTime
		}
	}

	appState.IsRunning = false

	if appState.GameInstance.FnShutdown != nil {
		if err := appState.GameInstance.FnShutdown(); err != nil {
			return err
		}
	}

	if err := appState.GameInstance.SystemManager.Shutdown(); err != nil {
		return err
	}

	if err := core.EventShutdown(); err != nil {
		return err
	}
	if err := core.InputShutdown(); err != nil {
		return err
	}

	return appState.PlatformState.Shutdown()
}

// ApplicationGetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func ApplicationGetFramebufferSize() (uint32, uint32) {
	w, h := appState.PlatformState.GetFramebufferSize()
	return uint32(w), uint32(h)
}

func applicationOnEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT recieved, shutting down.\n")
		appState.IsRunning = false
		return true
	}
	return false
}

func applicationOnKey(context core.EventContext) bool {
	keyEvent, ok := context.Data.(*core.KeyEvent)
	if !ok {
		return false
	}

	if context.Type == core.EVENT_CODE_KEY_PRESSED {
		if keyEvent.KeyCode == core.KEY_ESCAPE {
			// NOTE: Technically firing an event to itself, but there may be other listeners.
			core.EventFire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
			// Block anything else from processing this.
			return true
		} else if keyEvent.KeyCode == core.KEY_A {
			// Example on checking for a key
			core.LogDebug("Explicit - A key pressed!")
		} else {
			core.LogDebug("'%d' key pressed in window.", keyEvent.KeyCode)
		}
	} else if context.Type == core.EVENT_CODE_KEY_RELEASED {
		if keyEvent.KeyCode == core.KEY_B {
			// Example on checking for a key
			core.LogDebug("Explicit - B key released!")
		} else {
			core.LogDebug("'%d' key released in window.", keyEvent.KeyCode)
		}
	}
	return false
}

func applicationOnResized(context core.EventContext) bool {
	resizeEvent, ok := context.Data.(*core.ResizeEvent)
	if !ok {
		return false
	}
	width := resizeEvent.Width
	height := resizeEvent.Height

	// Check if different. If so, trigger a resize event.
	if width != uint16(appState.Width) || height != uint16(appState.Height) {
		appState.Width = uint32(width)
		appState.Height = uint32(height)

		core.LogDebug("Window resize: %d, %d", width, height)

		// Handle minimization
		if width == 0 || height == 0 {
			core.LogInfo("Window minimized, suspending application.")
			appState.IsSuspended = true
			return true
		} else {
			if appState.IsSuspended {
				core.LogInfo("Window restored, resuming application.")
				appState.IsSuspended = false
			}
			appState.GameInstance.FnOnResize(uint32(width), uint32(height))
		}
	}
	// Event purposely not handled to allow other listeners to get this.
	return false
}
