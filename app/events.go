package app

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// EventHandler routes GLFW input to registered options and actions.
type EventHandler struct {
	options map[glfw.Key][]keyOption
	actions map[glfw.Key][]func()
	steps   []stepOption

	dragging bool
	lastX    float64
	lastY    float64
	cursorX  float64
	cursorY  float64
	onDrag   []func(dx, dy float64)
	onScroll []func(yOffset float64)
	onResize []func(width, height int)
}

func NewEventHandler() *EventHandler {
	return &EventHandler{
		options: make(map[glfw.Key][]keyOption),
		actions: make(map[glfw.Key][]func()),
	}
}

type KeyCallbackKind int

const (
	Switch KeyCallbackKind = iota
	Hold
)

type keyOption struct {
	kind  KeyCallbackKind
	value *bool
}

// AddOption binds value to key. A key may drive several options.
func (eh *EventHandler) AddOption(key glfw.Key, value *bool, kind KeyCallbackKind) {
	eh.options[key] = append(eh.options[key], keyOption{
		kind:  kind,
		value: value,
	})
}

// AddAction runs fn every time key is pressed.
func (eh *EventHandler) AddAction(key glfw.Key, fn func()) {
	eh.actions[key] = append(eh.actions[key], fn)
}

type stepOption struct {
	value    *float32
	delta    float32
	min, max float32
	inc, dec *bool
}

// AddStep changes value by delta per Update while inc or dec is held,
// keeping it within [min, max].
func (eh *EventHandler) AddStep(inc, dec glfw.Key, value *float32, delta, min, max float32) {
	step := stepOption{
		value: value,
		delta: delta,
		min:   min,
		max:   max,
		inc:   new(bool),
		dec:   new(bool),
	}
	eh.AddOption(inc, step.inc, Hold)
	eh.AddOption(dec, step.dec, Hold)
	eh.steps = append(eh.steps, step)
}

func (eh *EventHandler) OnDrag(fn func(dx, dy float64)) {
	eh.onDrag = append(eh.onDrag, fn)
}

func (eh *EventHandler) OnScroll(fn func(yOffset float64)) {
	eh.onScroll = append(eh.onScroll, fn)
}

func (eh *EventHandler) OnResize(fn func(width, height int)) {
	eh.onResize = append(eh.onResize, fn)
}

// Update applies held steps and reports the mouse movement since the last
// call to drag listeners. Call once per frame.
func (eh *EventHandler) Update() {
	for _, s := range eh.steps {
		v := *s.value
		if *s.inc {
			v += s.delta
		}
		if *s.dec {
			v -= s.delta
		}
		*s.value = min(max(v, s.min), s.max)
	}

	dx, dy := eh.lastX-eh.cursorX, eh.lastY-eh.cursorY
	if eh.dragging && (dx != 0 || dy != 0) {
		for _, fn := range eh.onDrag {
			fn(dx, dy)
		}
	}
	eh.lastX, eh.lastY = eh.cursorX, eh.cursorY
}

func (eh *EventHandler) KeyCallback() glfw.KeyCallback {
	return func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Press {
			for _, fn := range eh.actions[key] {
				fn()
			}
		}

		for _, option := range eh.options[key] {
			switch option.kind {
			case Switch:
				if action == glfw.Press {
					*option.value = !*option.value
				}
			case Hold:
				*option.value = (action != glfw.Release)
			}
		}
	}
}

// Left and right buttons both drag.
func (eh *EventHandler) MouseButtonCallback() glfw.MouseButtonCallback {
	return func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft && button != glfw.MouseButtonRight {
			return
		}
		eh.dragging = action == glfw.Press
		eh.lastX, eh.lastY = eh.cursorX, eh.cursorY
	}
}

func (eh *EventHandler) CursorPosCallback() glfw.CursorPosCallback {
	return func(w *glfw.Window, xpos, ypos float64) {
		eh.cursorX, eh.cursorY = xpos, ypos
	}
}

func (eh *EventHandler) ScrollCallback() glfw.ScrollCallback {
	return func(w *glfw.Window, xoff, yoff float64) {
		for _, fn := range eh.onScroll {
			fn(yoff)
		}
	}
}

func (eh *EventHandler) FramebufferSizeCallback() glfw.FramebufferSizeCallback {
	return func(w *glfw.Window, width, height int) {
		for _, fn := range eh.onResize {
			fn(width, height)
		}
	}
}

// Attach installs all callbacks on window.
func (eh *EventHandler) Attach(window *glfw.Window) {
	window.SetKeyCallback(eh.KeyCallback())
	window.SetMouseButtonCallback(eh.MouseButtonCallback())
	window.SetCursorPosCallback(eh.CursorPosCallback())
	window.SetScrollCallback(eh.ScrollCallback())
	window.SetFramebufferSizeCallback(eh.FramebufferSizeCallback())
}
