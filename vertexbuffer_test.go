package batch_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-theft-auto/batch"
)

func TestVertexBufferGrowthPreservesContents(t *testing.T) {
	prev := batch.Logger()
	t.Cleanup(func() { batch.SetLogger(prev) })
	var logs bytes.Buffer
	batch.SetLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	// Two float32 words per vertex, room for 256.
	vb := batch.NewVertexBuffer(8, 1, 256)
	for i := 0; i < 256; i++ {
		vb.Push(float32(i), float32(-i))
	}
	if vb.Capacity() != 256 {
		t.Fatalf("capacity before growth = %d, want 256", vb.Capacity())
	}

	for i := 256; i < 300; i++ {
		vb.Push(float32(i), float32(-i))
	}

	if vb.Capacity() != 512 {
		t.Errorf("capacity after growth = %d, want 512", vb.Capacity())
	}
	if n := strings.Count(logs.String(), "vertex buffer grown"); n != 1 {
		t.Errorf("buffer grew %d times, want 1", n)
	}
	if vb.Count() != 300 {
		t.Fatalf("count = %d, want 300", vb.Count())
	}
	for i := 0; i < 300; i++ {
		x, y := vb.Float32At(i, 0), vb.Float32At(i, 4)
		if x != float32(i) || y != float32(-i) {
			t.Fatalf("vertex %d = (%v, %v), want (%d, %d)", i, x, y, i, -i)
		}
	}
}

func TestVertexBufferPushVertexColorBytes(t *testing.T) {
	vb := batch.NewVertexBuffer(12, 1, 4)
	vb.PushVertex(1.5, -2, batch.RGBA(10, 20, 30, 40))

	b := vb.ByteView(0, 1)
	if len(b) != 12 {
		t.Fatalf("view length = %d, want 12", len(b))
	}
	if got := [4]byte(b[8:12]); got != [4]byte{10, 20, 30, 40} {
		t.Errorf("color bytes = %v, want [10 20 30 40]", got)
	}
	if got := vb.Uint32At(0, 8); got != batch.RGBA(10, 20, 30, 40) {
		t.Errorf("Uint32At = %#x", got)
	}
	if got := vb.Float32View(0, 1); got[0] != 1.5 || got[1] != -2 {
		t.Errorf("Float32View position = %v", got[:2])
	}
}

func TestVertexBufferIsFullAndClear(t *testing.T) {
	vb := batch.NewVertexBuffer(12, 4, 4)
	vb.SetMaxVertices(8)

	for i := 0; i < 4; i++ {
		vb.PushVertex(0, 0, 0)
	}
	if vb.IsFull(4) {
		t.Error("IsFull(4) with 4 of 8 written")
	}
	for i := 0; i < 4; i++ {
		vb.PushVertex(0, 0, 0)
	}
	if !vb.IsFull(4) {
		t.Error("IsFull(4) with 8 of 8 written should be true")
	}
	if vb.IsFull(0) {
		t.Error("IsFull(0) at the limit should be false")
	}

	capBefore := vb.Capacity()
	vb.Clear()
	if vb.Count() != 0 {
		t.Errorf("count after Clear = %d", vb.Count())
	}
	if vb.Capacity() != capBefore {
		t.Errorf("Clear changed capacity %d -> %d", capBefore, vb.Capacity())
	}
}

func TestVertexBufferMaxVerticesNotBelowStride(t *testing.T) {
	vb := batch.NewVertexBuffer(24, 4, 16)
	vb.SetMaxVertices(2)
	if vb.MaxVertices() != 4 {
		t.Errorf("MaxVertices = %d, want 4", vb.MaxVertices())
	}
}

func TestVertexBufferPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"unaligned vertex size", func() { batch.NewVertexBuffer(6, 1, 4) }},
		{"push wrong arity", func() { batch.NewVertexBuffer(8, 1, 4).Push(1) }},
		{"push vertex wrong arity", func() { batch.NewVertexBuffer(24, 4, 4).PushVertex(0, 0, 0) }},
		{"read past count", func() { batch.NewVertexBuffer(8, 1, 4).Float32At(0, 0) }},
		{"view past count", func() { batch.NewVertexBuffer(8, 1, 4).ByteView(0, 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}
