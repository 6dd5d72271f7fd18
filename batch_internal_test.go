package batch

import (
	"bytes"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func TestQuadIndices(t *testing.T) {
	want := []uint16{0, 1, 2, 2, 1, 3, 4, 5, 6, 6, 5, 7}
	if got := quadIndices(2); !slices.Equal(got, want) {
		t.Errorf("quadIndices(2) = %v, want %v", got, want)
	}
	last := quadIndices(maxIndexedVertices / 4)
	if got := last[len(last)-1]; got != maxIndexedVertices-1 {
		t.Errorf("last index = %d, want %d", got, maxIndexedVertices-1)
	}
}

func TestValidVertexCount(t *testing.T) {
	tests := []struct {
		mode DrawMode
		n    int
		want bool
	}{
		{Triangles, 3, true},
		{Triangles, 5, false},
		{Lines, 4, true},
		{Lines, 1, false},
		{LineStrip, 2, true},
		{LineLoop, 1, false},
		{TriangleStrip, 3, true},
		{TriangleFan, 2, false},
		{Points, 1, true},
	}
	for _, tt := range tests {
		if got := validVertexCount(tt.mode, tt.n); got != tt.want {
			t.Errorf("validVertexCount(%s, %d) = %v, want %v", tt.mode, tt.n, got, tt.want)
		}
	}
}

func TestDrawModeCoalesces(t *testing.T) {
	for _, m := range []DrawMode{Triangles, Lines, Points} {
		if !m.coalesces() {
			t.Errorf("%s should coalesce", m)
		}
	}
	for _, m := range []DrawMode{TriangleStrip, TriangleFan, LineStrip, LineLoop} {
		if m.coalesces() {
			t.Errorf("%s should not coalesce", m)
		}
	}
}

func TestDebugLoggingFollowsLogger(t *testing.T) {
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	vb := NewVertexBuffer(8, 1, 1)
	vb.Push(1, 2)
	vb.Push(3, 4)

	if !strings.Contains(buf.String(), "vertex buffer grown") {
		t.Errorf("growth not logged: %q", buf.String())
	}

	buf.Reset()
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	vb.Push(5, 6)
	if buf.Len() != 0 {
		t.Errorf("debug record emitted at info level: %q", buf.String())
	}
}

func TestSetVerbose(t *testing.T) {
	t.Cleanup(func() { SetVerbose(false) })
	SetVerbose(true)
	if batchLogLevel.Level() != slog.LevelDebug {
		t.Error("SetVerbose(true) did not enable debug")
	}
	SetVerbose(false)
	if batchLogLevel.Level() != slog.LevelInfo {
		t.Error("SetVerbose(false) did not restore info")
	}
}
