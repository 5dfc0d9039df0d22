// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ContextConfig configures GraphicsContext creation.
type ContextConfig struct {
	// Format is the preferred surface format. Zero selects BGRA8Unorm when
	// the surface supports it.
	Format gputypes.TextureFormat

	// PresentMode is the preferred presentation mode. Zero selects FIFO.
	PresentMode hal.PresentMode

	// ScaleFactor is the display backing scale. Zero means 1.
	ScaleFactor float64

	// PreferLowPower ranks integrated adapters above discrete ones.
	PreferLowPower bool
}

// GraphicsContext owns the GPU device and queue and binds them to a
// presentation surface. The instance and surface remain owned by the caller.
type GraphicsContext struct {
	instance hal.Instance
	surface  hal.Surface
	adapter  hal.Adapter
	info     gputypes.AdapterInfo
	limits   gputypes.Limits

	device hal.Device
	queue  hal.Queue

	format      gputypes.TextureFormat
	presentMode hal.PresentMode
	alphaMode   hal.CompositeAlphaMode
	scale       float64

	width, height uint32
	configured    bool
}

// NewGraphicsContext selects an adapter able to drive surface, opens a
// device on it and chooses the surface format and presentation mode.
// The surface is configured lazily by Configure.
//
// It returns ErrNoGPU when no adapter is available.
func NewGraphicsContext(instance hal.Instance, surface hal.Surface, cfg ContextConfig) (*GraphicsContext, error) {
	if surface == nil {
		return nil, ErrNilSurface
	}
	adapters := instance.EnumerateAdapters(surface)
	if len(adapters) == 0 {
		return nil, ErrNoGPU
	}
	exposed := pickAdapter(adapters, cfg.PreferLowPower)

	caps := exposed.Adapter.SurfaceCapabilities(surface)
	if caps == nil || len(caps.Formats) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSurfaceUnsupported, exposed.Info.Name)
	}

	open, err := exposed.Adapter.Open(0, exposed.Capabilities.Limits)
	if err != nil {
		return nil, fmt.Errorf("open device on %s: %w", exposed.Info.Name, err)
	}

	scale := cfg.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	c := &GraphicsContext{
		instance:    instance,
		surface:     surface,
		adapter:     exposed.Adapter,
		info:        exposed.Info,
		limits:      exposed.Capabilities.Limits,
		device:      open.Device,
		queue:       open.Queue,
		format:      chooseFormat(caps.Formats, cfg.Format),
		presentMode: choosePresentMode(caps.PresentModes, cfg.PresentMode),
		alphaMode:   chooseAlphaMode(caps.AlphaModes),
		scale:       scale,
	}

	slogger().Info("gpu: adapter selected",
		"name", c.info.Name,
		"type", c.info.DeviceType,
		"backend", c.info.Backend,
		"format", c.format,
	)
	return c, nil
}

// adapterRank orders device types from most to least preferred.
func adapterRank(t gputypes.DeviceType, lowPower bool) int {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		if lowPower {
			return 1
		}
		return 0
	case gputypes.DeviceTypeIntegratedGPU:
		if lowPower {
			return 0
		}
		return 1
	case gputypes.DeviceTypeVirtualGPU:
		return 2
	case gputypes.DeviceTypeCPU:
		return 3
	default:
		return 4
	}
}

func pickAdapter(adapters []hal.ExposedAdapter, lowPower bool) *hal.ExposedAdapter {
	best := 0
	for i := 1; i < len(adapters); i++ {
		if adapterRank(adapters[i].Info.DeviceType, lowPower) < adapterRank(adapters[best].Info.DeviceType, lowPower) {
			best = i
		}
	}
	return &adapters[best]
}

func chooseFormat(supported []gputypes.TextureFormat, preferred gputypes.TextureFormat) gputypes.TextureFormat {
	if preferred != gputypes.TextureFormatUndefined && slices.Contains(supported, preferred) {
		return preferred
	}
	if slices.Contains(supported, gputypes.TextureFormatBGRA8Unorm) {
		return gputypes.TextureFormatBGRA8Unorm
	}
	return supported[0]
}

func choosePresentMode(supported []hal.PresentMode, preferred hal.PresentMode) hal.PresentMode {
	if preferred != gputypes.PresentModeUndefined && slices.Contains(supported, preferred) {
		return preferred
	}
	return hal.PresentModeFifo
}

func chooseAlphaMode(supported []hal.CompositeAlphaMode) hal.CompositeAlphaMode {
	if len(supported) == 0 || slices.Contains(supported, hal.CompositeAlphaModeOpaque) {
		return hal.CompositeAlphaModeOpaque
	}
	return supported[0]
}

// Configure binds the surface to the device at the given pixel size.
// Configuring with the current size is a no-op. A zero size returns
// ErrZeroArea and keeps the previous configuration.
func (c *GraphicsContext) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrZeroArea, width, height)
	}
	w, h := uint32(width), uint32(height) //nolint:gosec // checked positive
	if c.configured && c.width == w && c.height == h {
		return nil
	}
	err := c.surface.Configure(c.device, &hal.SurfaceConfiguration{
		Width:       w,
		Height:      h,
		Format:      c.format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: c.presentMode,
		AlphaMode:   c.alphaMode,
	})
	if err != nil {
		if errors.Is(err, hal.ErrZeroArea) {
			return fmt.Errorf("%w: %dx%d", ErrZeroArea, width, height)
		}
		return fmt.Errorf("configure surface %dx%d: %w", width, height, err)
	}
	c.width, c.height = w, h
	c.configured = true
	slogger().Debug("gpu: surface configured", "width", width, "height", height)
	return nil
}

// Configured reports whether the surface has a valid configuration.
func (c *GraphicsContext) Configured() bool { return c.configured }

// SurfaceSize returns the configured surface size in pixels.
func (c *GraphicsContext) SurfaceSize() (width, height int) {
	return int(c.width), int(c.height)
}

// Surface returns the presentation surface.
func (c *GraphicsContext) Surface() hal.Surface { return c.surface }

// HalDevice returns the device.
func (c *GraphicsContext) HalDevice() hal.Device { return c.device }

// HalQueue returns the queue.
func (c *GraphicsContext) HalQueue() hal.Queue { return c.queue }

// ScaleFactor returns the display backing scale.
func (c *GraphicsContext) ScaleFactor() float64 { return c.scale }

// PresentMode returns the selected presentation mode.
func (c *GraphicsContext) PresentMode() hal.PresentMode { return c.presentMode }

// MaxTextureDimension returns the largest supported 2D texture side, or 0
// when the adapter reports no limit.
func (c *GraphicsContext) MaxTextureDimension() int {
	return int(c.limits.MaxTextureDimension2D)
}

// Device implements gpucontext.DeviceProvider.
func (c *GraphicsContext) Device() gpucontext.Device { return c.device }

// Queue implements gpucontext.DeviceProvider.
func (c *GraphicsContext) Queue() gpucontext.Queue { return c.queue }

// Adapter implements gpucontext.DeviceProvider.
func (c *GraphicsContext) Adapter() gpucontext.Adapter { return c.adapter }

// SurfaceFormat implements gpucontext.DeviceProvider.
func (c *GraphicsContext) SurfaceFormat() gputypes.TextureFormat { return c.format }

// AdapterInfo implements gpucontext.DeviceProvider.
func (c *GraphicsContext) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: c.info.Name, Type: adapterType(c.info.DeviceType)}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// Destroy waits for outstanding GPU work, unconfigures the surface and
// destroys the device. Safe to call multiple times.
func (c *GraphicsContext) Destroy() {
	if c.device == nil {
		return
	}
	if err := c.device.WaitIdle(); err != nil {
		slogger().Warn("gpu: wait idle before destroy", "err", err)
	}
	if c.configured {
		c.surface.Unconfigure(c.device)
		c.configured = false
	}
	c.device.Destroy()
	c.device = nil
	c.queue = nil
}
