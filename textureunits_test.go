package batch_test

import (
	"errors"
	"testing"

	"github.com/go-theft-auto/batch"
)

func TestTextureUnitTableCapacity(t *testing.T) {
	tests := []struct {
		name      string
		deviceMax int
		limit     int
		want      int
	}{
		{"default cap", 32, 0, batch.DefaultMaxTextureUnits},
		{"device fewer", 8, 24, 8},
		{"configured fewer", 32, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newMockDevice()
			dev.maxUnits = tt.deviceMax
			table := batch.NewTextureUnitTable(batch.NewDeviceState(dev), tt.limit)
			if table.Capacity() != tt.want {
				t.Errorf("capacity = %d, want %d", table.Capacity(), tt.want)
			}
			if n := len(table.Samplers()); n != tt.want {
				t.Errorf("samplers = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestTextureUnitTableReusesResidentTexture(t *testing.T) {
	dev := newMockDevice()
	table := batch.NewTextureUnitTable(batch.NewDeviceState(dev), 4)
	tex := solidTexture(4, 4)

	u1, err := table.Assign(tex)
	if err != nil {
		t.Fatal(err)
	}
	u2, err := table.Assign(tex)
	if err != nil {
		t.Fatal(err)
	}
	if u1 != u2 {
		t.Errorf("units differ: %d, %d", u1, u2)
	}
	if dev.calls["CreateTexture"] != 1 || dev.calls["BindTexture"] != 1 {
		t.Errorf("CreateTexture=%d BindTexture=%d, want 1 each", dev.calls["CreateTexture"], dev.calls["BindTexture"])
	}
}

func TestTextureUnitTableRoundRobinEviction(t *testing.T) {
	dev := newMockDevice()
	table := batch.NewTextureUnitTable(batch.NewDeviceState(dev), 2)
	a, b, c, d := solidTexture(1, 1), solidTexture(1, 1), solidTexture(1, 1), solidTexture(1, 1)

	for _, tex := range []*batch.Atlas{a, b} {
		if _, err := table.Assign(tex); err != nil {
			t.Fatal(err)
		}
	}
	if !table.Exhausted() {
		t.Fatal("both units hot, table should be exhausted")
	}
	table.EndBatch()
	if table.Exhausted() {
		t.Fatal("new batch should have cold units")
	}

	if u, _ := table.Assign(c); u != 0 {
		t.Errorf("c assigned to %d, want 0", u)
	}
	if table.Resident(a) {
		t.Error("a should have been evicted")
	}
	// Unit 0 is hot now; the next eviction must take unit 1.
	if u, _ := table.Assign(d); u != 1 {
		t.Errorf("d assigned to %d, want 1", u)
	}

	// Re-assigning an evicted texture rebinds without re-uploading.
	table.EndBatch()
	if _, err := table.Assign(a); err != nil {
		t.Fatal(err)
	}
	if dev.calls["CreateTexture"] != 4 {
		t.Errorf("CreateTexture = %d, want 4", dev.calls["CreateTexture"])
	}
}

func TestTextureUnitTableExhaustion(t *testing.T) {
	dev := newMockDevice()
	table := batch.NewTextureUnitTable(batch.NewDeviceState(dev), 2)
	for i := 0; i < 2; i++ {
		if _, err := table.Assign(solidTexture(1, 1)); err != nil {
			t.Fatal(err)
		}
	}

	_, err := table.Assign(solidTexture(1, 1))
	var ce *batch.CapacityExhaustionError
	if !errors.As(err, &ce) || ce.Capacity != 2 {
		t.Errorf("error = %v, want CapacityExhaustionError{2}", err)
	}
}

func TestTextureUnitTableRelease(t *testing.T) {
	dev := newMockDevice()
	state := batch.NewDeviceState(dev)
	table := batch.NewTextureUnitTable(state, 4)
	tex := solidTexture(2, 2)

	u, err := table.Assign(tex)
	if err != nil {
		t.Fatal(err)
	}
	table.Release(tex)

	if table.Resident(tex) {
		t.Error("released texture still resident")
	}
	if dev.calls["DeleteTexture"] != 1 {
		t.Errorf("DeleteTexture = %d, want 1", dev.calls["DeleteTexture"])
	}
	if state.BoundTexture(u) != 0 {
		t.Error("state still records the deleted texture")
	}
}
