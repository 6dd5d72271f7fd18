package batch

// DefaultMaxTextureUnits caps the unit count regardless of what the device
// reports; longer sampler if/else chains make fragment compilers crawl.
const DefaultMaxTextureUnits = 24

type unitSlot struct {
	texture Texture
	hotGen  uint64 // batch generation that last referenced the unit
}

// TextureUnitTable assigns textures to a bounded set of texture units. The
// assigned index is baked into vertex data, so a unit referenced by
// unflushed vertices ("hot") must not be rebound until the batch flushes.
type TextureUnitTable struct {
	state *DeviceState

	units   []unitSlot
	byID    map[TextureID]int
	handles map[TextureID]TextureHandle // uploaded once per texture
	cursor  int                         // round-robin eviction start
	gen     uint64                      // current batch generation, starts at 1
}

// NewTextureUnitTable sizes the table to min(device units, limit). A limit
// of zero means DefaultMaxTextureUnits.
func NewTextureUnitTable(state *DeviceState, limit int) *TextureUnitTable {
	if limit <= 0 {
		limit = DefaultMaxTextureUnits
	}
	n := min(state.device.MaxTextureUnits(), limit)
	if n < 1 {
		n = 1
	}
	return &TextureUnitTable{
		state:   state,
		units:   make([]unitSlot, n),
		byID:    make(map[TextureID]int, n),
		handles: make(map[TextureID]TextureHandle),
		gen:     1,
	}
}

// Capacity returns the number of units managed.
func (t *TextureUnitTable) Capacity() int { return len(t.units) }

// Unit returns the unit tex is resident in.
func (t *TextureUnitTable) Unit(tex Texture) (int, bool) {
	u, ok := t.byID[tex.ID()]
	return u, ok
}

// Resident reports whether tex currently occupies a unit.
func (t *TextureUnitTable) Resident(tex Texture) bool {
	_, ok := t.byID[tex.ID()]
	return ok
}

// Exhausted reports whether every unit is referenced by the current batch,
// i.e. a non-resident texture cannot be assigned without a flush.
func (t *TextureUnitTable) Exhausted() bool {
	for i := range t.units {
		if t.units[i].hotGen != t.gen {
			return false
		}
	}
	return true
}

// Assign returns the unit for tex, binding it first when it is not
// resident. It must be called before any vertex naming the unit is written.
func (t *TextureUnitTable) Assign(tex Texture) (int, error) {
	id := tex.ID()
	if u, ok := t.byID[id]; ok {
		t.units[u].hotGen = t.gen
		// Re-assert the binding in case foreign code rebound the unit.
		t.state.BindTexture(u, t.handles[id])
		return u, nil
	}

	u := t.pickUnit()
	if u < 0 {
		return 0, &CapacityExhaustionError{Capacity: len(t.units)}
	}
	if old := t.units[u].texture; old != nil {
		delete(t.byID, old.ID())
		if debugEnabled() {
			Logger().Debug("texture unit evicted", "unit", u, "texture", old.ID(), "by", id)
		}
	}

	handle, ok := t.handles[id]
	if !ok {
		handle = t.state.device.CreateTexture(toRGBA(tex.Image()))
		t.handles[id] = handle
		if debugEnabled() {
			Logger().Debug("texture uploaded", "texture", id, "handle", handle, "size", tex.Image().Bounds().Size())
		}
	}
	t.state.BindTexture(u, handle)

	t.units[u] = unitSlot{texture: tex, hotGen: t.gen}
	t.byID[id] = u
	return u, nil
}

// pickUnit returns a free unit, else the next cold unit in round-robin
// order, else -1.
func (t *TextureUnitTable) pickUnit() int {
	for i := range t.units {
		if t.units[i].texture == nil {
			return i
		}
	}
	n := len(t.units)
	for i := 0; i < n; i++ {
		u := (t.cursor + i) % n
		if t.units[u].hotGen != t.gen {
			t.cursor = (u + 1) % n
			return u
		}
	}
	return -1
}

// EndBatch marks every unit cold. Compositors call it after each flush.
func (t *TextureUnitTable) EndBatch() {
	t.gen++
}

// Release deletes the uploaded texture and frees its unit. The caller must
// flush first if unflushed vertices reference tex.
func (t *TextureUnitTable) Release(tex Texture) {
	id := tex.ID()
	if u, ok := t.byID[id]; ok {
		t.units[u] = unitSlot{}
		delete(t.byID, id)
	}
	if h, ok := t.handles[id]; ok {
		t.state.device.DeleteTexture(h)
		t.state.forgetTexture(h)
		delete(t.handles, id)
	}
}

// Samplers returns the sampler indices for the uSampler array uniform.
func (t *TextureUnitTable) Samplers() []int32 {
	s := make([]int32, len(t.units))
	for i := range s {
		s[i] = int32(i)
	}
	return s
}

// Destroy deletes every uploaded texture.
func (t *TextureUnitTable) Destroy() {
	for id, h := range t.handles {
		t.state.device.DeleteTexture(h)
		t.state.forgetTexture(h)
		delete(t.handles, id)
	}
	t.Reset()
}

// Reset forgets every assignment and upload without touching the device,
// for use after context loss.
func (t *TextureUnitTable) Reset() {
	clear(t.units)
	clear(t.byID)
	clear(t.handles)
	t.cursor = 0
	t.gen++
}
