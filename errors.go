package batch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContextLost is returned when the device lost every object it held.
	ErrContextLost = errors.New("batch: graphics context lost")
	// ErrProgramDestroyed is returned when a destroyed program is used.
	ErrProgramDestroyed = errors.New("batch: shader program destroyed")
	// ErrIncompletePrimitive is returned when a vertex list does not form
	// whole primitives for its draw mode.
	ErrIncompletePrimitive = errors.New("batch: incomplete primitive")
	// ErrUnsupportedUniform is returned for uniform values of an unknown Go type.
	ErrUnsupportedUniform = errors.New("batch: unsupported uniform value")
	// ErrInvalidConfig is wrapped by Config.Validate failures.
	ErrInvalidConfig = errors.New("batch: invalid config")
	// ErrClosed is returned by Renderer methods after Close.
	ErrClosed = errors.New("batch: renderer closed")
)

// ShaderStage names the step of program creation that failed.
type ShaderStage string

const (
	StageVertex   ShaderStage = "vertex"
	StageFragment ShaderStage = "fragment"
	StageLink     ShaderStage = "link"
)

// CompileError carries the raw compiler or linker diagnostic.
type CompileError struct {
	Stage ShaderStage
	Log   string
}

func (e *CompileError) Error() string {
	if e.Stage == StageLink {
		return fmt.Sprintf("shader program linking failed: %s", strings.TrimRight(e.Log, "\x00\n "))
	}
	return fmt.Sprintf("%s shader compilation failed: %s", e.Stage, strings.TrimRight(e.Log, "\x00\n "))
}

// UnknownUniformError reports a uniform name the linked program does not
// declare.
type UnknownUniformError struct {
	Name string
}

func (e *UnknownUniformError) Error() string {
	return fmt.Sprintf("batch: undefined uniform %q", e.Name)
}

// CapacityExhaustionError reports that every texture unit is referenced by
// unflushed vertices, so a new texture cannot be bound without a flush.
type CapacityExhaustionError struct {
	Capacity int
}

func (e *CapacityExhaustionError) Error() string {
	return fmt.Sprintf("batch: all %d texture units are in use by the current batch", e.Capacity)
}

// UnknownRegionError reports a texture region key that the texture does not
// define.
type UnknownRegionError struct {
	Texture TextureID
	Key     string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("batch: texture %d has no region %q", e.Texture, e.Key)
}
