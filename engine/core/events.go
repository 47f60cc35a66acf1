package core

import "sync"

// EventCode identifies the kind of event being dispatched. The system
// range is reserved 0x00-0xFF; application-defined codes start at 256.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01
	// Keyboard key pressed. Data: *KeyEvent.
	EVENT_CODE_KEY_PRESSED EventCode = 0x02
	// Keyboard key released. Data: *KeyEvent.
	EVENT_CODE_KEY_RELEASED EventCode = 0x03
	// Mouse button pressed. Data: *MouseEvent.
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04
	// Mouse button released. Data: *MouseEvent.
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05
	// Mouse moved. Data: *MouseEvent (PosX/PosY).
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06
	// Mouse wheel scrolled. Data: *MouseEvent (Scroll, -1 or +1).
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07
	// Window resized/resolution changed. Data: *ResizeEvent.
	EVENT_CODE_RESIZED EventCode = 0x08
	// A render target attached to the default window surface needs
	// to be regenerated (e.g. after a resize or swapchain recreation).
	// Data: a *metadata.RenderView.
	EVENT_CODE_DEFAULT_RENDERTARGET_REFRESH_REQUIRED EventCode = 0x09
	// Requests a world-view debug render mode change. Data: the new
	// metadata.RendererDebugViewMode value.
	EVENT_CODE_SET_RENDER_MODE EventCode = 0x0A

	EVENT_CODE_DEBUG0 EventCode = 0x10
	EVENT_CODE_DEBUG1 EventCode = 0x11
	EVENT_CODE_DEBUG2 EventCode = 0x12
	// The picked object under the cursor changed. Data: uint32 object id.
	EVENT_CODE_OBJECT_HOVER_ID_CHANGED EventCode = 0x13
	EVENT_CODE_DEBUG4                  EventCode = 0x14

	MaxSystemEventCode EventCode = 0xFF
)

// KeyEvent carries the payload for EVENT_CODE_KEY_PRESSED/KEY_RELEASED.
type KeyEvent struct {
	KeyCode KeyCode
}

// MouseEvent carries the payload for the button/move/wheel mouse events.
// Only the fields relevant to the firing event code are populated.
type MouseEvent struct {
	Button Button
	PosX   uint16
	PosY   uint16
	Scroll int8
}

// ResizeEvent carries the payload for EVENT_CODE_RESIZED.
type ResizeEvent struct {
	Width  uint16
	Height uint16
}

// EventContext is the payload handed to every listener when an event
// fires. Data holds whatever type the firing code's doc comment names.
type EventContext struct {
	Type EventCode
	Data interface{}
}

// EventListener handles a fired event. Returning true marks the event as
// handled, stopping it from reaching any listener registered after this
// one for the same code.
type EventListener func(context EventContext) bool

const maxEventCodes = 16384

type eventCodeEntry struct {
	listeners []EventListener
}

type eventBus struct {
	mu         sync.RWMutex
	registered [maxEventCodes]eventCodeEntry
}

var onceEvents sync.Once
var events *eventBus
var eventsInitialized bool

func EventInitialize() bool {
	if eventsInitialized {
		return false
	}
	onceEvents.Do(func() {
		events = &eventBus{}
	})
	eventsInitialized = true
	return true
}

func EventShutdown() error {
	if events == nil {
		return nil
	}
	events.mu.Lock()
	defer events.mu.Unlock()
	for i := range events.registered {
		events.registered[i].listeners = nil
	}
	return nil
}

// EventRegister adds a listener for the given code. Registrations are not
// deduplicated: registering the same listener twice invokes it twice.
func EventRegister(code EventCode, listener EventListener) bool {
	if !eventsInitialized || listener == nil {
		return false
	}
	events.mu.Lock()
	defer events.mu.Unlock()
	entry := &events.registered[code]
	entry.listeners = append(entry.listeners, listener)
	return true
}

// EventFire dispatches context to every listener registered for
// context.Type, in registration order, stopping as soon as one returns
// true. Returns true if the event was handled by some listener.
func EventFire(context EventContext) bool {
	if !eventsInitialized {
		return false
	}
	events.mu.RLock()
	listeners := events.registered[context.Type].listeners
	events.mu.RUnlock()

	for _, listener := range listeners {
		if listener(context) {
			return true
		}
	}
	return false
}
