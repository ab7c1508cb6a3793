// Package input turns SDL2 events into camera controls.
package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/heightstream/internal/engine/camera"
)

// Event types forwarded to the frame loop.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
}

// Input polls SDL and keeps the state needed to build camera controls:
// held keys, the cursor, and drag and wheel deltas since the last Update.
type Input struct {
	events  []Event
	held    map[sdl.Scancode]bool
	looking bool

	cursorX, cursorY int
	dragX, dragY     float32
	wheel            float32
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		held:   make(map[sdl.Scancode]bool),
	}
}

// Update polls SDL events. Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	i.dragX, i.dragY, i.wheel = 0, 0, 0

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED {
				i.events = append(i.events, Event{
					Type:   EventWindowResize,
					Width:  int(e.Data1),
					Height: int(e.Data2),
				})
			}

		case *sdl.KeyboardEvent:
			if e.Repeat != 0 {
				continue
			}
			switch e.Type {
			case sdl.KEYDOWN:
				i.held[e.Keysym.Scancode] = true
				i.events = append(i.events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
				if e.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
					i.events = append(i.events, Event{Type: EventQuit})
					return true
				}
			case sdl.KEYUP:
				delete(i.held, e.Keysym.Scancode)
			}

		case *sdl.MouseMotionEvent:
			i.cursorX, i.cursorY = int(e.X), int(e.Y)
			if i.looking {
				i.dragX += float32(e.XRel)
				i.dragY += float32(e.YRel)
			}

		case *sdl.MouseButtonEvent:
			if e.Button == sdl.BUTTON_RIGHT {
				i.looking = e.Type == sdl.MOUSEBUTTONDOWN
			}

		case *sdl.MouseWheelEvent:
			i.wheel += float32(e.Y)
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// ScreenshotRequested reports whether F12 was pressed this frame.
func (i *Input) ScreenshotRequested() bool {
	return i.IsKeyPressed(sdl.SCANCODE_F12)
}

// DumpTileRequested reports whether F11 was pressed this frame.
func (i *Input) DumpTileRequested() bool {
	return i.IsKeyPressed(sdl.SCANCODE_F11)
}

// Resized reports the last window resize seen this frame.
func (i *Input) Resized() (width, height int, ok bool) {
	for n := len(i.events) - 1; n >= 0; n-- {
		if e := i.events[n]; e.Type == EventWindowResize {
			return e.Width, e.Height, true
		}
	}
	return 0, 0, false
}

// Controls returns this frame's camera controls. WASD moves, Space and
// left Shift climb and sink, the right mouse button drags the view.
func (i *Input) Controls() camera.Controls {
	return camera.Controls{
		Forward: i.axis(sdl.SCANCODE_W, sdl.SCANCODE_S),
		Right:   i.axis(sdl.SCANCODE_D, sdl.SCANCODE_A),
		Up:      i.axis(sdl.SCANCODE_SPACE, sdl.SCANCODE_LSHIFT),
		DragX:   i.dragX,
		DragY:   i.dragY,
		Wheel:   i.wheel,
		CursorX: i.cursorX,
		CursorY: i.cursorY,
	}
}

func (i *Input) axis(positive, negative sdl.Scancode) float32 {
	var v float32
	if i.held[positive] {
		v++
	}
	if i.held[negative] {
		v--
	}
	return v
}
