// Package gpu provides the GPU variant of pixview.Display.
//
// Frames are uploaded into an RGBA8 texture and drawn with a fullscreen
// quad through gogpu/wgpu, so any backend the HAL supports (Vulkan, Metal,
// DX12, GLES, software) can present them.
//
// Usage:
//
//	disp, err := gpu.NewDisplay(instance, surface, gpu.WithScaleFactor(2))
//	if errors.Is(err, gpu.ErrNoGPU) {
//	    // fall back to surface.NewImageDisplay
//	}
package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixview"
	gpuimpl "github.com/gogpu/pixview/internal/gpu"
)

var (
	// ErrNoGPU is returned when no adapter can drive the surface.
	ErrNoGPU = gpuimpl.ErrNoGPU

	// ErrShaderCompile is returned when the presentation shader fails to
	// compile.
	ErrShaderCompile = gpuimpl.ErrShaderCompile

	// ErrPipelineCreation is returned when the render pipeline cannot be
	// built.
	ErrPipelineCreation = gpuimpl.ErrPipelineCreation

	// ErrZeroArea is returned when resizing to an empty surface.
	ErrZeroArea = gpuimpl.ErrZeroArea

	// ErrTextureTooLarge is returned for frames beyond the device limit.
	ErrTextureTooLarge = gpuimpl.ErrTextureTooLarge

	// ErrMemoryBudgetExceeded is returned when a frame does not fit the
	// budget set by WithMemoryBudget.
	ErrMemoryBudgetExceeded = gpuimpl.ErrMemoryBudgetExceeded

	// ErrClosed is returned by operations on a closed Display.
	ErrClosed = errors.New("gpu: display closed")
)

// MinMemoryMB is the smallest budget accepted by WithMemoryBudget.
const MinMemoryMB = gpuimpl.MinMemoryMB

// MemoryStats reports frame texture memory use.
type MemoryStats = gpuimpl.MemoryStats

// Stats counts display activity.
type Stats struct {
	Presented   uint64
	Skipped     uint64
	Uploads     uint64
	Allocations uint64
}

// Display shows frames through the GPU. It implements pixview.Display and
// pixview.Resizer. A Display is driven from a single goroutine.
type Display struct {
	ctx       *gpuimpl.GraphicsContext
	pipeline  *gpuimpl.PipelineConfig
	geometry  *gpuimpl.Geometry
	texture   *gpuimpl.FrameTexture
	presenter *gpuimpl.Presenter
	budget    *gpuimpl.MemoryBudget
	scale     float64
	closed    bool
}

var (
	_ pixview.Display       = (*Display)(nil)
	_ pixview.Resizer       = (*Display)(nil)
	_ pixview.ScaleReporter = (*Display)(nil)
)

// NewDisplay opens a device for surface and builds the presentation
// pipeline. The caller keeps ownership of instance and surface.
//
// Failures are returned instead of aborting the process: ErrNoGPU when no
// adapter exists, ErrShaderCompile or ErrPipelineCreation when the pipeline
// cannot be built. Everything built before the failure is released.
func NewDisplay(instance hal.Instance, surface hal.Surface, opts ...Option) (*Display, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, err := gpuimpl.NewGraphicsContext(instance, surface, cfg.context)
	if err != nil {
		return nil, err
	}
	d := &Display{ctx: ctx, scale: ctx.ScaleFactor()}

	d.pipeline, err = gpuimpl.BuildPipeline(ctx.HalDevice(), cfg.stages, ctx.SurfaceFormat())
	if err != nil {
		d.release()
		return nil, err
	}
	d.geometry, err = gpuimpl.NewGeometry(ctx.HalDevice(), ctx.HalQueue())
	if err != nil {
		d.release()
		return nil, fmt.Errorf("gpu: %w", err)
	}
	d.texture = gpuimpl.NewFrameTexture(ctx.HalDevice(), ctx.HalQueue(), d.pipeline, ctx.MaxTextureDimension())
	if cfg.memoryMB > 0 {
		d.budget = gpuimpl.NewMemoryBudget(cfg.memoryMB)
		d.texture.SetMemoryBudget(d.budget)
	}
	d.presenter = gpuimpl.NewPresenter(ctx, d.pipeline, d.geometry, d.texture, cfg.clear)

	pixview.Logger().Debug("gpu: display ready",
		"adapter", ctx.AdapterInfo().Name,
		"format", ctx.SurfaceFormat(),
	)
	return d, nil
}

// Update uploads pix, a width x height RGBA buffer, and presents it once.
// The surface is configured to the frame size on the first accepted frame.
// A rejected buffer leaves the previous frame and the surface untouched.
func (d *Display) Update(pix []byte, width, height int) error {
	if d.closed {
		return ErrClosed
	}
	if err := pixview.CheckSize(len(pix), width, height); err != nil {
		return err
	}
	if err := d.texture.Update(pix, width, height); err != nil {
		return fmt.Errorf("gpu: update frame: %w", err)
	}
	if !d.ctx.Configured() {
		if err := d.ctx.Configure(width, height); err != nil {
			return fmt.Errorf("gpu: %w", err)
		}
	}
	d.presenter.Draw()
	return nil
}

// Resize reconfigures the surface to the view's pixel size.
func (d *Display) Resize(width, height int) error {
	if d.closed {
		return ErrClosed
	}
	if err := d.ctx.Configure(width, height); err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	return nil
}

// Present draws the current frame again. It reports false when the frame
// was skipped.
func (d *Display) Present() bool {
	if d.closed {
		return false
	}
	return d.presenter.Draw()
}

// Size returns the configured surface size in pixels.
func (d *Display) Size() (width, height int) {
	if d.closed {
		return 0, 0
	}
	return d.ctx.SurfaceSize()
}

// ScaleFactor returns the backing scale the display was created with.
// A View driving the display uses it unless a scale is injected into the
// View directly.
func (d *Display) ScaleFactor() float64 {
	return d.scale
}

// FrameSize returns the size of the current frame texture.
func (d *Display) FrameSize() (width, height int) {
	if d.closed {
		return 0, 0
	}
	return d.texture.Width(), d.texture.Height()
}

// Stats returns display counters.
func (d *Display) Stats() Stats {
	if d.presenter == nil {
		return Stats{}
	}
	ps := d.presenter.Stats()
	return Stats{
		Presented:   ps.Presented,
		Skipped:     ps.Skipped,
		Uploads:     d.texture.Uploads(),
		Allocations: d.texture.Allocations(),
	}
}

// Memory returns frame texture memory statistics. It reports false when no
// budget was configured.
func (d *Display) Memory() (MemoryStats, bool) {
	if d.budget == nil {
		return MemoryStats{}, false
	}
	return d.budget.Stats(), true
}

// Provider exposes the display's device for sharing with other gogpu
// libraries.
func (d *Display) Provider() gpucontext.DeviceProvider {
	return d.ctx
}

// Close releases all GPU resources. Safe to call multiple times.
func (d *Display) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.release()
	return nil
}

// release tears down in reverse construction order.
func (d *Display) release() {
	if d.presenter != nil {
		d.presenter.Destroy()
	}
	if d.texture != nil {
		d.texture.Destroy()
	}
	d.geometry.Destroy()
	d.pipeline.Destroy()
	if d.ctx != nil {
		d.ctx.Destroy()
	}
}
