package batch_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/go-theft-auto/batch"
)

func newPrimitiveCompositor(t *testing.T, dev *mockDevice) (*batch.PrimitiveCompositor, *batch.RenderState) {
	t.Helper()
	render := &batch.RenderState{Tint: batch.White, Fill: batch.White, Alpha: 1}
	p, err := batch.NewPrimitiveCompositor(batch.NewDeviceState(dev), render, batch.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return p, render
}

func pts(coords ...float32) []batch.Vec2 {
	out := make([]batch.Vec2, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, batch.Vec2{X: coords[i], Y: coords[i+1]})
	}
	return out
}

func TestPrimitiveListModesCoalesce(t *testing.T) {
	dev := newMockDevice()
	p, _ := newPrimitiveCompositor(t, dev)

	tri := pts(0, 0, 1, 0, 0, 1)
	for i := 0; i < 2; i++ {
		if err := p.DrawVertices(batch.Triangles, tri); err != nil {
			t.Fatal(err)
		}
	}
	if p.Pending() != 6 || len(dev.draws) != 0 {
		t.Fatalf("pending = %d, draws = %d; want 6, 0", p.Pending(), len(dev.draws))
	}
	if err := p.Flush(); err != nil {
		t.Fatal(err)
	}
	if want := []drawCall{{mode: batch.Triangles, count: 6}}; !slices.Equal(dev.draws, want) {
		t.Errorf("draws = %+v, want %+v", dev.draws, want)
	}
}

func TestPrimitiveConnectedModesFlushImmediately(t *testing.T) {
	for _, mode := range []batch.DrawMode{batch.LineStrip, batch.LineLoop, batch.TriangleStrip, batch.TriangleFan} {
		t.Run(mode.String(), func(t *testing.T) {
			dev := newMockDevice()
			p, _ := newPrimitiveCompositor(t, dev)

			if err := p.DrawVertices(mode, pts(0, 0, 10, 0, 10, 10)); err != nil {
				t.Fatal(err)
			}
			if p.Pending() != 0 {
				t.Errorf("pending = %d, want 0", p.Pending())
			}
			if want := []drawCall{{mode: mode, count: 3}}; !slices.Equal(dev.draws, want) {
				t.Errorf("draws = %+v, want %+v", dev.draws, want)
			}
		})
	}
}

func TestPrimitiveModeSwitchFlushes(t *testing.T) {
	dev := newMockDevice()
	p, _ := newPrimitiveCompositor(t, dev)

	if err := p.DrawVertices(batch.Triangles, pts(0, 0, 1, 0, 0, 1)); err != nil {
		t.Fatal(err)
	}
	if err := p.DrawVertices(batch.Lines, pts(0, 0, 5, 5)); err != nil {
		t.Fatal(err)
	}

	if want := []drawCall{{mode: batch.Triangles, count: 3}}; !slices.Equal(dev.draws, want) {
		t.Errorf("draws = %+v, want %+v", dev.draws, want)
	}
	if p.Mode() != batch.Lines || p.Pending() != 2 {
		t.Errorf("mode = %s pending = %d; want lines, 2", p.Mode(), p.Pending())
	}
}

func TestPrimitiveRejectsIncompletePrimitives(t *testing.T) {
	tests := []struct {
		mode batch.DrawMode
		n    int
	}{
		{batch.Triangles, 4},
		{batch.Lines, 3},
		{batch.LineStrip, 1},
		{batch.TriangleFan, 2},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			dev := newMockDevice()
			p, _ := newPrimitiveCompositor(t, dev)
			points := make([]batch.Vec2, tt.n)

			if err := p.DrawVertices(tt.mode, points); !errors.Is(err, batch.ErrIncompletePrimitive) {
				t.Errorf("error = %v, want ErrIncompletePrimitive", err)
			}
			if p.Pending() != 0 {
				t.Errorf("pending = %d after rejected call", p.Pending())
			}
		})
	}
}

func TestPrimitiveEmptyIsNoop(t *testing.T) {
	dev := newMockDevice()
	p, _ := newPrimitiveCompositor(t, dev)
	if err := p.DrawVertices(batch.LineStrip, nil); err != nil {
		t.Fatal(err)
	}
	if len(dev.draws) != 0 {
		t.Error("empty submission drew")
	}
}

func TestPrimitiveColorAndTransform(t *testing.T) {
	dev := newMockDevice()
	p, render := newPrimitiveCompositor(t, dev)
	render.Fill = batch.Color{R: 1, G: 0, B: 0, A: 1}
	render.Alpha = 0.5
	tr := &countingTransform{dx: 100}
	render.Transform = tr

	if err := p.DrawVertices(batch.Points, pts(1, 2)); err != nil {
		t.Fatal(err)
	}

	vb := p.Buffer()
	if x, y := vb.Float32At(0, 0), vb.Float32At(0, 4); x != 101 || y != 2 {
		t.Errorf("point = (%v, %v), want (101, 2)", x, y)
	}
	if got, want := vb.Uint32At(0, 8), batch.RGBA(255, 0, 0, 128); got != want {
		t.Errorf("color = %#x, want %#x", got, want)
	}
	if tr.applies != 1 {
		t.Errorf("applies = %d, want 1", tr.applies)
	}
}

func TestPrimitiveInvisibleFillSkipped(t *testing.T) {
	dev := newMockDevice()
	p, render := newPrimitiveCompositor(t, dev)
	render.Fill = batch.Transparent

	if err := p.DrawVertices(batch.LineStrip, pts(0, 0, 1, 1)); err != nil {
		t.Fatal(err)
	}
	if p.Pending() != 0 || len(dev.draws) != 0 {
		t.Error("transparent line was submitted")
	}
}
