package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds renderer settings. It can be built from options or loaded
// from YAML:
//
//	precision: highp
//	max_texture_units: 16
//	vertex_capacity: 4096
//	max_batch_vertices: 16384
//	clear_color: [0.1, 0.1, 0.12, 1]
//	verbose: true
type Config struct {
	// Precision is the default fragment float precision: lowp, mediump or highp.
	Precision string `yaml:"precision"`
	// MaxTextureUnits caps the texture unit table; the device may report fewer.
	MaxTextureUnits int `yaml:"max_texture_units"`
	// VertexCapacity is the initial vertex capacity of each compositor buffer.
	VertexCapacity int `yaml:"vertex_capacity"`
	// MaxBatchVertices is the most vertices one draw call may carry.
	MaxBatchVertices int `yaml:"max_batch_vertices"`
	// ClearColor is used by Renderer.BeginFrame.
	ClearColor [4]float32 `yaml:"clear_color"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// maxIndexedVertices is the largest batch addressable with uint16 indices.
const maxIndexedVertices = 1 << 16

// DefaultConfig returns the settings used when no option overrides them.
func DefaultConfig() Config {
	return Config{
		Precision:        "mediump",
		MaxTextureUnits:  DefaultMaxTextureUnits,
		VertexCapacity:   4096,
		MaxBatchVertices: 16384,
		ClearColor:       [4]float32{0, 0, 0, 1},
	}
}

// Validate reports the first invalid setting, wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	if _, err := ParsePrecision(c.Precision); err != nil {
		return err
	}
	if c.MaxTextureUnits < 1 {
		return fmt.Errorf("%w: max_texture_units must be positive, got %d", ErrInvalidConfig, c.MaxTextureUnits)
	}
	if c.VertexCapacity < 4 {
		return fmt.Errorf("%w: vertex_capacity must be at least 4, got %d", ErrInvalidConfig, c.VertexCapacity)
	}
	if c.MaxBatchVertices < 4 || c.MaxBatchVertices > maxIndexedVertices {
		return fmt.Errorf("%w: max_batch_vertices must be in [4, %d], got %d", ErrInvalidConfig, maxIndexedVertices, c.MaxBatchVertices)
	}
	return nil
}

// precision returns the parsed precision; Validate has already run.
func (c Config) precision() Precision {
	p, _ := ParsePrecision(c.Precision)
	return p
}

// ParseConfig decodes YAML over DefaultConfig. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Option configures a Renderer.
type Option func(*Config)

// WithConfig replaces every setting.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithPrecision sets the default fragment precision.
func WithPrecision(p Precision) Option {
	return func(c *Config) { c.Precision = p.String() }
}

// WithMaxTextureUnits caps the texture unit table.
func WithMaxTextureUnits(n int) Option {
	return func(c *Config) { c.MaxTextureUnits = n }
}

// WithVertexCapacity sets the initial vertex capacity per compositor.
func WithVertexCapacity(n int) Option {
	return func(c *Config) { c.VertexCapacity = n }
}

// WithMaxBatchVertices sets the per-draw-call vertex limit.
func WithMaxBatchVertices(n int) Option {
	return func(c *Config) { c.MaxBatchVertices = n }
}

// WithClearColor sets the color BeginFrame clears to.
func WithClearColor(col Color) Option {
	return func(c *Config) { c.ClearColor = [4]float32{col.R, col.G, col.B, col.A} }
}

// applyOptions applies all options over DefaultConfig and validates.
func applyOptions(opts []Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
