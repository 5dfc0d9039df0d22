package gpu

import (
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	gpuimpl "github.com/gogpu/pixview/internal/gpu"
)

// Option configures a Display during creation.
type Option func(*config)

type config struct {
	context gpuimpl.ContextConfig
	stages  gpuimpl.ShaderStages
	clear   gputypes.Color

	// memoryMB is the frame texture budget; zero means unlimited.
	memoryMB int
}

func defaultConfig() config {
	return config{
		stages: gpuimpl.DefaultShaderStages(),
		clear:  gputypes.Color{R: 0, G: 0, B: 0, A: 1},
	}
}

// WithSurfaceFormat requests a surface pixel format. Unsupported formats
// fall back to BGRA8Unorm.
func WithSurfaceFormat(format gputypes.TextureFormat) Option {
	return func(c *config) {
		c.context.Format = format
	}
}

// WithPresentMode requests a presentation mode. The default is FIFO.
func WithPresentMode(mode hal.PresentMode) Option {
	return func(c *config) {
		c.context.PresentMode = mode
	}
}

// WithScaleFactor sets the display backing scale: physical pixels per
// logical point. A View sizes its frames by it. Non-positive values mean 1.
func WithScaleFactor(scale float64) Option {
	return func(c *config) {
		c.context.ScaleFactor = scale
	}
}

// WithLowPower prefers integrated adapters over discrete ones.
func WithLowPower() Option {
	return func(c *config) {
		c.context.PreferLowPower = true
	}
}

// WithClearColor sets the color behind the frame. The default is opaque
// black.
func WithClearColor(col color.Color) Option {
	return func(c *config) {
		r, g, b, a := col.RGBA()
		c.clear = gputypes.Color{
			R: float64(r) / 0xffff,
			G: float64(g) / 0xffff,
			B: float64(b) / 0xffff,
			A: float64(a) / 0xffff,
		}
	}
}

// WithShader replaces the presentation shader. The program must bind the
// frame texture at group 0 binding 0 and a sampler at binding 1, and read
// a vec2 position at location 0 and a vec2 texture coordinate at location 1.
func WithShader(label, wgsl, vertexEntry, fragmentEntry string) Option {
	return func(c *config) {
		c.stages = gpuimpl.ShaderStages{
			Label:         label,
			Source:        wgsl,
			VertexEntry:   vertexEntry,
			FragmentEntry: fragmentEntry,
		}
	}
}

// WithMemoryBudget limits the memory held by frame textures, including
// replaced textures still in use by the GPU. Budgets below 16 MB select
// the 256 MB default. Updates that do not fit return
// ErrMemoryBudgetExceeded.
func WithMemoryBudget(megabytes int) Option {
	return func(c *config) {
		c.memoryMB = max(megabytes, 1)
	}
}
