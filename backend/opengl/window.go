package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/go-theft-auto/batch"
)

// WindowConfig describes the window to open.
type WindowConfig struct {
	Title   string
	Width   int
	Height  int
	Visible bool // false for offscreen capture
	VSync   bool
}

// Window owns a GLFW window with a current OpenGL 4.1 core context and the
// Device that draws into it. GLFW requires every call to come from the main
// thread; lock it with runtime.LockOSThread in an init function.
type Window struct {
	win    *glfw.Window
	device *Device

	onResize func(width, height int)
	onKey    func(key glfw.Key, pressed bool)
}

// NewWindow initializes GLFW and GL and opens the window.
func NewWindow(cfg WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if !cfg.Visible {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}
	win.MakeContextCurrent()
	if cfg.VSync {
		glfw.SwapInterval(1)
	}

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("gl init: %w", err)
	}

	w := &Window{win: win, device: NewDevice()}
	win.SetFramebufferSizeCallback(w.framebufferSizeCallback)
	win.SetKeyCallback(w.keyCallback)
	return w, nil
}

// Device returns the device bound to the window's context.
func (w *Window) Device() *Device { return w.device }

// FramebufferSize returns the size in pixels, which differs from the window
// size on high-DPI displays.
func (w *Window) FramebufferSize() (width, height int) {
	return w.win.GetFramebufferSize()
}

// OnResize registers a callback for framebuffer size changes, typically
// Renderer.Resize.
func (w *Window) OnResize(fn func(width, height int)) {
	w.onResize = fn
}

// OnKey registers a callback for key presses and releases. Repeats are
// reported as presses.
func (w *Window) OnKey(fn func(key glfw.Key, pressed bool)) {
	w.onKey = fn
}

func (w *Window) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	if width == 0 || height == 0 {
		return // minimized
	}
	batch.Logger().Debug("framebuffer resized", "width", width, "height", height)
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *Window) keyCallback(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if w.onKey == nil {
		return
	}
	switch action {
	case glfw.Press, glfw.Repeat:
		w.onKey(key, true)
	case glfw.Release:
		w.onKey(key, false)
	}
}

func (w *Window) ShouldClose() bool { return w.win.ShouldClose() }

// Close requests the window to close at the end of the frame.
func (w *Window) Close() { w.win.SetShouldClose(true) }

// EndFrame presents the back buffer and processes pending events.
func (w *Window) EndFrame() {
	w.win.SwapBuffers()
	glfw.PollEvents()
}

// Destroy releases the device, the window and GLFW.
func (w *Window) Destroy() {
	w.device.Delete()
	w.win.Destroy()
	glfw.Terminate()
}
