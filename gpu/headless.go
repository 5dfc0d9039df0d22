package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixview"
)

// ErrNoFramebuffer is returned by Framebuffer when the backend keeps its
// pixels on the GPU.
var ErrNoFramebuffer = errors.New("gpu: backend has no readable framebuffer")

// Headless is a Display that owns its instance and an offscreen surface.
// It is used for tests, the command line tool, and rendering without a
// window.
type Headless struct {
	*Display
	instance hal.Instance
	surface  hal.Surface
}

// framebufferSurface is implemented by CPU backends that keep the presented
// image in host memory.
type framebufferSurface interface {
	GetFramebuffer() []byte
}

// OpenHeadless creates an instance from backend and a display bound to an
// offscreen surface.
func OpenHeadless(backend hal.Backend, opts ...Option) (*Headless, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s instance: %w", backend.Variant(), err)
	}
	surface, err := instance.CreateSurface(0, 0)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: create headless surface: %w", err)
	}
	d, err := NewDisplay(instance, surface, opts...)
	if err != nil {
		surface.Destroy()
		instance.Destroy()
		return nil, err
	}
	pixview.Logger().Debug("gpu: headless display opened", "backend", backend.Variant())
	return &Headless{Display: d, instance: instance, surface: surface}, nil
}

// Framebuffer returns a copy of the last presented image. Only CPU backends
// support it.
func (h *Headless) Framebuffer() (pixview.PixelBuffer, error) {
	if h.Display.closed {
		return pixview.PixelBuffer{}, ErrClosed
	}
	fs, ok := h.surface.(framebufferSurface)
	if !ok {
		return pixview.PixelBuffer{}, ErrNoFramebuffer
	}
	w, hgt := h.Size()
	pb := pixview.PixelBuffer{
		Pix:    append([]byte(nil), fs.GetFramebuffer()...),
		Width:  w,
		Height: hgt,
	}
	if err := pb.Validate(); err != nil {
		return pixview.PixelBuffer{}, fmt.Errorf("gpu: framebuffer: %w", err)
	}
	return pb, nil
}

// Close releases the display, then the surface and instance. The surface
// and instance are released even when the embedded Display was closed
// directly.
func (h *Headless) Close() error {
	if h.instance == nil {
		return nil
	}
	if err := h.Display.Close(); err != nil {
		return err
	}
	h.surface.Destroy()
	h.instance.Destroy()
	h.surface, h.instance = nil, nil
	return nil
}
