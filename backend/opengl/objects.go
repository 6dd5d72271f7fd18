package opengl

// objectSet records the GL names a Device created and has not deleted.
type objectSet struct {
	programs map[uint32]struct{}
	buffers  map[uint32]struct{}
	textures map[uint32]struct{}
}

func newObjectSet() objectSet {
	return objectSet{
		programs: make(map[uint32]struct{}),
		buffers:  make(map[uint32]struct{}),
		textures: make(map[uint32]struct{}),
	}
}

// len returns the number of live names of every kind.
func (o objectSet) len() int {
	return len(o.programs) + len(o.buffers) + len(o.textures)
}

// drain passes every recorded name to the matching delete function and
// forgets it.
func (o objectSet) drain(deleteProgram, deleteBuffer, deleteTexture func(name uint32)) {
	for p := range o.programs {
		deleteProgram(p)
	}
	for b := range o.buffers {
		deleteBuffer(b)
	}
	for t := range o.textures {
		deleteTexture(t)
	}
	o.forget()
}

// forget drops every name without deleting it, for a context that is
// already gone.
func (o objectSet) forget() {
	clear(o.programs)
	clear(o.buffers)
	clear(o.textures)
}
