package platform

import (
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/kilnengine/kiln/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

type Platform struct {
	Window    *glfw.Window
	startTime float64
}

func New() (*Platform, error) {
	return &Platform{
		Window: nil,
	}, nil
}

func (p *Platform) Startup(applicationName string, x uint32, y uint32, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogFatal("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		core.LogFatal("failed to create window: %s", err)
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(keyCallback)
	p.Window.SetMouseButtonCallback(mouseButtonCallback)
	p.Window.SetCursorPosCallback(cursorPosCallback)
	p.Window.SetScrollCallback(scrollCallback)
	p.Window.SetFramebufferSizeCallback(framebufferSizeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	p.startTime = glfw.GetTime()

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
	}
	glfw.Terminate()
	return nil
}

// PumpMessages drains the platform's pending window/input events, invoking
// the callbacks registered in Startup.
func (p *Platform) PumpMessages() {
	glfw.PollEvents()
}

// ShouldClose reports whether the OS has requested the window be closed
// (e.g. the user clicked the close button).
func (p *Platform) ShouldClose() bool {
	if p.Window == nil {
		return true
	}
	return p.Window.ShouldClose()
}

// AbsoluteTime returns a monotonic clock reading in seconds, suitable for
// frame-delta computation.
func (p *Platform) AbsoluteTime() float64 {
	return glfw.GetTime()
}

// Sleep yields the current goroutine for roughly ms milliseconds, used to
// cap the frame rate when vsync/present-mode limiting isn't in play.
func (p *Platform) Sleep(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// GetRequiredExtensionNames returns the Vulkan instance extensions GLFW
// needs for this platform's windowing system (surface creation etc).
func (p *Platform) GetRequiredExtensionNames() []string {
	return glfw.GetRequiredInstanceExtensions()
}

func (p *Platform) GetFramebufferSize() (int, int) {
	if p.Window == nil {
		return 0, 0
	}
	return p.Window.GetFramebufferSize()
}

func keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	code := translateKeyCode(key)
	core.InputProcessKey(code, action == glfw.Press)
}

func mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	var b core.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = core.BUTTON_LEFT
	case glfw.MouseButtonRight:
		b = core.BUTTON_RIGHT
	case glfw.MouseButtonMiddle:
		b = core.BUTTON_MIDDLE
	default:
		return
	}
	core.InputProcessButton(b, action == glfw.Press)
}

func cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	core.InputProcessMouseMove(uint16(xpos), uint16(ypos))
}

func scrollCallback(w *glfw.Window, xoff, yoff float64) {
	delta := int8(0)
	if yoff > 0 {
		delta = 1
	} else if yoff < 0 {
		delta = -1
	}
	core.InputProcessMouseWheel(delta)
}

func framebufferSizeCallback(w *glfw.Window, width, height int) {
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.ResizeEvent{
			Width:  uint16(width),
			Height: uint16(height),
		},
	})
}

// translateKeyCode maps a subset of GLFW key tokens onto the engine's
// Windows-virtual-key-style KeyCode space. Printable ASCII keys (letters,
// digits, punctuation) already share GLFW's numbering with the VK layout
// and pass through unchanged; the named special keys below are the ones
// that don't.
func translateKeyCode(key glfw.Key) core.KeyCode {
	switch key {
	case glfw.KeyEscape:
		return core.KEY_ESCAPE
	case glfw.KeyEnter:
		return core.KEY_ENTER
	case glfw.KeyTab:
		return core.KEY_TAB
	case glfw.KeyBackspace:
		return core.KEY_BACKSPACE
	case glfw.KeyInsert:
		return core.KEY_INSERT
	case glfw.KeyDelete:
		return core.KEY_DELETE
	case glfw.KeyRight:
		return core.KEY_RIGHT
	case glfw.KeyLeft:
		return core.KEY_LEFT
	case glfw.KeyDown:
		return core.KEY_DOWN
	case glfw.KeyUp:
		return core.KEY_UP
	case glfw.KeyPageUp:
		return core.KEY_PRIOR
	case glfw.KeyPageDown:
		return core.KEY_NEXT
	case glfw.KeyHome:
		return core.KEY_HOME
	case glfw.KeyEnd:
		return core.KEY_END
	case glfw.KeyCapsLock:
		return core.KEY_CAPITAL
	case glfw.KeyNumLock:
		return core.KEY_NUMLOCK
	case glfw.KeyPrintScreen:
		return core.KEY_PRINT
	case glfw.KeyPause:
		return core.KEY_PAUSE
	case glfw.KeyF1:
		return core.KEY_F1
	case glfw.KeyF2:
		return core.KEY_F2
	case glfw.KeyF3:
		return core.KEY_F3
	case glfw.KeyF4:
		return core.KEY_F4
	case glfw.KeyF5:
		return core.KEY_F5
	case glfw.KeyF6:
		return core.KEY_F6
	case glfw.KeyF7:
		return core.KEY_F7
	case glfw.KeyF8:
		return core.KEY_F8
	case glfw.KeyF9:
		return core.KEY_F9
	case glfw.KeyF10:
		return core.KEY_F10
	case glfw.KeyF11:
		return core.KEY_F11
	case glfw.KeyF12:
		return core.KEY_F12
	case glfw.KeyLeftShift:
		return core.KEY_LSHIFT
	case glfw.KeyRightShift:
		return core.KEY_RSHIFT
	case glfw.KeyLeftControl:
		return core.KEY_LCONTROL
	case glfw.KeyRightControl:
		return core.KEY_RCONTROL
	case glfw.KeyLeftAlt:
		return core.KEY_LMENU
	case glfw.KeyRightAlt:
		return core.KEY_RMENU
	case glfw.KeyLeftSuper:
		return core.KEY_LWIN
	case glfw.KeyRightSuper:
		return core.KEY_RWIN
	case glfw.KeySemicolon:
		return core.KEY_SEMICOLON
	case glfw.KeyEqual:
		return core.KEY_PLUS
	case glfw.KeyComma:
		return core.KEY_COMMA
	case glfw.KeyMinus:
		return core.KEY_MINUS
	case glfw.KeyPeriod:
		return core.KEY_PERIOD
	case glfw.KeySlash:
		return core.KEY_SLASH
	case glfw.KeyGraveAccent:
		return core.KEY_GRAVE
	case glfw.KeyKP0:
		return core.KEY_NUMPAD0
	case glfw.KeyKP1:
		return core.KEY_NUMPAD1
	case glfw.KeyKP2:
		return core.KEY_NUMPAD2
	case glfw.KeyKP3:
		return core.KEY_NUMPAD3
	case glfw.KeyKP4:
		return core.KEY_NUMPAD4
	case glfw.KeyKP5:
		return core.KEY_NUMPAD5
	case glfw.KeyKP6:
		return core.KEY_NUMPAD6
	case glfw.KeyKP7:
		return core.KEY_NUMPAD7
	case glfw.KeyKP8:
		return core.KEY_NUMPAD8
	case glfw.KeyKP9:
		return core.KEY_NUMPAD9
	case glfw.KeyKPMultiply:
		return core.KEY_MULTIPLY
	case glfw.KeyKPAdd:
		return core.KEY_ADD
	case glfw.KeyKPSubtract:
		return core.KEY_SUBTRACT
	case glfw.KeyKPDecimal:
		return core.KEY_DECIMAL
	case glfw.KeyKPDivide:
		return core.KEY_DIVIDE
	default:
		return core.KeyCode(key)
	}
}
