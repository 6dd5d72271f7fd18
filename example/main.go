// Example draws a field of rotating sprites from a generated atlas plus
// lines and polygons, all batched through the quad and primitive
// compositors.
//
// Prerequisites:
//
//	Install devbox: https://www.jetify.com/devbox
//	devbox shell              # enter the dev environment (provides Go + OpenGL/X11 headers)
//	go run ./example/         # run this example
//
// Flags:
//
//	-config file.yaml   renderer settings (see batch.Config)
//	-verbose            debug logging
//	-screenshot out.png render a few frames offscreen, save a PNG and exit
//
// Keys: Escape quits, B cycles blend modes, L simulates a lost context (the
// device frees every object, the renderer recreates them on the next frame).
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/go-theft-auto/batch"
	"github.com/go-theft-auto/batch/backend/opengl"
)

const (
	windowWidth  = 800
	windowHeight = 600
	windowTitle  = "batch example"

	cellSize        = 32
	screenshotFrame = 3
)

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML renderer config")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	screenshot := flag.String("screenshot", "", "save a PNG of the third frame to this path and exit")
	flag.Parse()

	cfg := batch.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = batch.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *verbose {
		cfg.Verbose = true
	}

	window, err := opengl.NewWindow(opengl.WindowConfig{
		Title:   windowTitle,
		Width:   windowWidth,
		Height:  windowHeight,
		Visible: *screenshot == "",
		VSync:   true,
	})
	if err != nil {
		return err
	}
	defer window.Destroy()

	fbWidth, fbHeight := window.FramebufferSize()
	renderer, err := batch.NewRenderer(window.Device(), fbWidth, fbHeight, batch.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer renderer.Close()

	window.OnResize(func(w, h int) {
		if err := renderer.Resize(w, h); err != nil {
			batch.Logger().Error("resize", "err", err)
		}
	})

	atlas := batch.NewAtlas(spriteSheet(4, 4))
	if err := atlas.AddGrid("cell", cellSize, cellSize); err != nil {
		return err
	}

	blend := batch.BlendNormal
	loseContext := false
	window.OnKey(func(key glfw.Key, pressed bool) {
		if !pressed {
			return
		}
		switch key {
		case glfw.KeyEscape:
			window.Close()
		case glfw.KeyB:
			blend = (blend + 1) % (batch.BlendScreen + 1)
		case glfw.KeyL:
			loseContext = true
		}
	})

	for frame := 0; !window.ShouldClose(); frame++ {
		if loseContext {
			// A lost context is restored on the next frame.
			window.Device().SimulateContextLoss()
			loseContext = false
		} else if window.Device().ContextLost() {
			window.Device().Restore()
		}

		if err := renderer.BeginFrame(); err != nil {
			if errors.Is(err, batch.ErrContextLost) {
				window.EndFrame()
				continue
			}
			return err
		}
		if err := drawScene(renderer, atlas, blend, float32(frame)/60); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		stats, err := renderer.EndFrame()
		if err != nil {
			return err
		}
		if frame%300 == 0 {
			batch.Logger().Info("frame stats", "frame", frame,
				"drawCalls", stats.DrawCalls, "vertices", stats.Vertices,
				"quads", stats.Quads, "primitives", stats.Primitives,
				"programSwitches", stats.ProgramSwitches, "textureBinds", stats.TextureBinds)
		}

		if *screenshot != "" && frame == screenshotFrame {
			w, h := renderer.Size()
			if err := opengl.SavePNG(*screenshot, w, h); err != nil {
				return err
			}
			batch.Logger().Info("screenshot saved", "path", *screenshot)
			return nil
		}
		window.EndFrame()
	}
	return nil
}

// drawScene submits one frame: a grid of sprites, a clipped band of
// additive sprites, and vector shapes on top.
func drawScene(r *batch.Renderer, atlas *batch.Atlas, blend batch.BlendMode, t float32) error {
	w, h := r.Size()
	if err := r.SetBlendMode(blend); err != nil {
		return err
	}

	cols := w / (cellSize * 2)
	rows := h / (cellSize * 2)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r.Save()
			cx := float32(x*cellSize*2 + cellSize)
			cy := float32(y*cellSize*2 + cellSize)
			r.Translate(cx, cy)
			r.Rotate(t + float32(x+y)*0.2)
			r.SetGlobalAlpha(0.5 + 0.5*float32(math.Sin(float64(t)+float64(x))))
			key := fmt.Sprintf("cell%d", (x+y*cols)%16)
			if err := r.AddQuad(atlas, key, -cellSize/2, -cellSize/2, cellSize, cellSize); err != nil {
				return err
			}
			if err := r.Restore(); err != nil {
				return err
			}
		}
	}

	r.Save()
	if err := r.ClipRect(0, h/2-cellSize, w, cellSize*2); err != nil {
		return err
	}
	if err := r.SetBlendMode(batch.BlendAdditive); err != nil {
		return err
	}
	r.SetTint(batch.Color{R: 1, G: 0.6, B: 0.2, A: 0.8})
	offset := float32(math.Mod(float64(t*120), float64(w)))
	for i := 0; i < 8; i++ {
		if err := r.DrawImage(atlas, offset+float32(i*160)-float32(w), float32(h/2-64)); err != nil {
			return err
		}
	}
	if err := r.Restore(); err != nil {
		return err
	}

	r.SetColor(batch.Color{R: 0.2, G: 0.9, B: 0.4, A: 1})
	if err := r.StrokeRect(8, 8, float32(w-16), float32(h-16)); err != nil {
		return err
	}
	for i := 0; i < 12; i++ {
		x := float32(i) * float32(w) / 12
		if err := r.StrokeLine(x, 0, float32(w)-x, float32(h)); err != nil {
			return err
		}
	}

	center := batch.Vec2{X: float32(w) / 2, Y: float32(h) / 2}
	outline := star(center.X, center.Y, 60, 25, t)
	// Fanning from the center covers the concave outline.
	fan := append([]batch.Vec2{center}, outline...)
	fan = append(fan, outline[0])
	r.SetColor(batch.Color{R: 0.9, G: 0.2, B: 0.3, A: 0.7})
	if err := r.FillPolygon(fan); err != nil {
		return err
	}
	r.SetColor(batch.White)
	return r.StrokePolygon(outline)
}

// star returns the outline of a five-pointed star.
func star(cx, cy, outer, inner, angle float32) []batch.Vec2 {
	pts := make([]batch.Vec2, 0, 10)
	for i := 0; i < 10; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := float64(angle) + float64(i)*math.Pi/5
		pts = append(pts, batch.Vec2{
			X: cx + r*float32(math.Cos(a)),
			Y: cy + r*float32(math.Sin(a)),
		})
	}
	return pts
}

// spriteSheet generates a cols x rows sheet of distinct colored cells with a
// transparent border.
func spriteSheet(cols, rows int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, cols*cellSize, rows*cellSize))
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			hue := float64(cx+cy*cols) / float64(cols*rows)
			c := color.NRGBA{
				R: uint8(127 + 127*math.Sin(2*math.Pi*hue)),
				G: uint8(127 + 127*math.Sin(2*math.Pi*(hue+1.0/3))),
				B: uint8(127 + 127*math.Sin(2*math.Pi*(hue+2.0/3))),
				A: 255,
			}
			for y := 2; y < cellSize-2; y++ {
				for x := 2; x < cellSize-2; x++ {
					img.SetNRGBA(cx*cellSize+x, cy*cellSize+y, c)
				}
			}
		}
	}
	return img
}
