/*
Package batch is a 2D sprite and primitive batching layer for OpenGL-style
devices. It collects textured quads and untextured geometry into interleaved
vertex buffers and submits each batch with a single draw call.

# Overview

The package is layered bottom-up:

  - VertexBuffer: a growable byte arena of interleaved vertices.
  - ShaderProgram: a linked program with fixed attribute locations and
    cached uniform state.
  - DeviceState: the shared record of what is bound on the device, used to
    skip redundant program, texture and blend changes.
  - TextureUnitTable: maps textures onto a bounded set of texture units.
  - QuadCompositor and PrimitiveCompositor: batch vertices for one program
    and draw mode.
  - Renderer: the facade that picks the active compositor and flushes on
    frame boundaries and state changes.

The GPU is reached only through the Device interface. The backend/opengl
package implements it on go-gl; tests implement it with a recorder.

# Quick Start

	window, _ := opengl.NewWindow(opengl.WindowConfig{Title: "demo", Width: 800, Height: 600, Visible: true})
	defer window.Destroy()

	w, h := window.FramebufferSize()
	r, _ := batch.NewRenderer(window.Device(), w, h, batch.WithPrecision(batch.PrecisionHigh))
	defer r.Close()
	window.OnResize(func(w, h int) { r.Resize(w, h) })

	sheet := batch.NewAtlas(img)
	sheet.AddGrid("frame", 32, 32)

	for !window.ShouldClose() {
	    r.BeginFrame()
	    r.Save()
	    r.Translate(100, 100)
	    r.AddQuad(sheet, "frame3", 0, 0, 32, 32)
	    r.Restore()
	    r.SetColor(batch.Red)
	    r.StrokeLine(0, 0, 100, 100)
	    stats, _ := r.EndFrame()
	    _ = stats.DrawCalls
	    window.EndFrame()
	}

# Batching

Vertices carry everything that varies per sprite: position already
multiplied by the current transform, a packed 0xAABBGGRR color with the
global alpha baked in, and for quads the texture unit index and UVs.
Changing the transform, tint or alpha therefore never flushes. Changing the
program, draw mode, blend mode, clip rectangle or projection does, as does
switching between the quad and primitive compositors.

A submission whose packed alpha is zero writes nothing. A batch never holds
a partial primitive: capacity is checked before a quad or vertex list is
written, and vertex lists that do not form whole primitives for their mode
are rejected with ErrIncompletePrimitive.

Line strips, line loops, triangle strips and fans are drawn as soon as they
are submitted; triangle, line and point lists coalesce across calls.

# Texture units

The quad program samples from up to DefaultMaxTextureUnits units (fewer if
the device has fewer). Each quad's unit index is written into its vertices,
so textures referenced by the pending batch stay bound until it is flushed.
When every unit is in use and a new texture arrives, the batch is flushed
and the least recently chosen unit is reused.

# Context loss

When Device.ContextLost reports true, BeginFrame drops every program,
buffer and texture without calling the device and returns ErrContextLost.
Once the device is usable again, compositors, programs and textures are
recreated on first use.

# Logging

Diagnostics go through log/slog. SetVerbose(true) enables debug records
(buffer growth, program switches, texture uploads and evictions, compositor
switches); SetLogger routes them to another handler.

# Configuration

Config can be built with options (WithMaxTextureUnits, WithMaxBatchVertices,
...) or loaded from YAML with LoadConfig.
*/
package batch
