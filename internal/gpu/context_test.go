package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

var _ gpucontext.DeviceProvider = (*GraphicsContext)(nil)

func TestNewGraphicsContextErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*recorder)
		want  error
	}{
		{"no adapters", func(r *recorder) { r.noAdapters = true }, ErrNoGPU},
		{"no surface capabilities", func(r *recorder) { r.noCaps = true }, ErrSurfaceUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance, surface, rec := newRecordingHAL(t)
			tt.setup(rec)
			ctx, err := NewGraphicsContext(instance, surface, ContextConfig{})
			if !errors.Is(err, tt.want) {
				t.Errorf("NewGraphicsContext() error = %v, want %v", err, tt.want)
			}
			if ctx != nil {
				t.Error("NewGraphicsContext() returned a context on failure")
			}
		})
	}
}

func TestNewGraphicsContextNilSurface(t *testing.T) {
	instance, _, _ := newRecordingHAL(t)
	if _, err := NewGraphicsContext(instance, nil, ContextConfig{}); !errors.Is(err, ErrNilSurface) {
		t.Errorf("NewGraphicsContext(nil surface) error = %v, want ErrNilSurface", err)
	}
}

func TestGraphicsContextDefaults(t *testing.T) {
	ctx, rec := newTestContext(t, nil)

	if got := ctx.SurfaceFormat(); got != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("SurfaceFormat() = %v, want BGRA8Unorm", got)
	}
	if got := ctx.PresentMode(); got != hal.PresentModeFifo {
		t.Errorf("PresentMode() = %v, want Fifo", got)
	}
	if got := ctx.ScaleFactor(); got != 1 {
		t.Errorf("ScaleFactor() = %v, want 1", got)
	}
	if got := ctx.MaxTextureDimension(); got != int(gputypes.DefaultLimits().MaxTextureDimension2D) {
		t.Errorf("MaxTextureDimension() = %d", got)
	}
	if rec.openedLimits.MaxTextureDimension2D == 0 {
		t.Error("device opened without adapter limits")
	}
	if ctx.Configured() {
		t.Error("surface configured before Configure")
	}
	if ctx.Device() == nil || ctx.Queue() == nil || ctx.Adapter() == nil {
		t.Error("DeviceProvider accessors returned nil")
	}
	if info := ctx.AdapterInfo(); info.Name == "" || info.Type != gpucontext.AdapterTypeUnknown {
		t.Errorf("AdapterInfo() = %+v", info)
	}
}

func TestGraphicsContextPreferences(t *testing.T) {
	instance, surface, _ := newRecordingHAL(t)
	ctx, err := NewGraphicsContext(instance, surface, ContextConfig{
		Format:      gputypes.TextureFormatRGBA8Unorm,
		PresentMode: hal.PresentModeMailbox,
		ScaleFactor: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Destroy()

	if got := ctx.SurfaceFormat(); got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("SurfaceFormat() = %v, want RGBA8Unorm", got)
	}
	if got := ctx.PresentMode(); got != hal.PresentModeMailbox {
		t.Errorf("PresentMode() = %v, want Mailbox", got)
	}
	if got := ctx.ScaleFactor(); got != 2 {
		t.Errorf("ScaleFactor() = %v, want 2", got)
	}
}

func TestChooseFormatFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		supported []gputypes.TextureFormat
		preferred gputypes.TextureFormat
		want      gputypes.TextureFormat
	}{
		{"preferred supported", []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm}, gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8Unorm},
		{"preferred unsupported", []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm}, gputypes.TextureFormatRGBA16Float, gputypes.TextureFormatBGRA8Unorm},
		{"no BGRA", []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm}, gputypes.TextureFormatUndefined, gputypes.TextureFormatRGBA8Unorm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chooseFormat(tt.supported, tt.preferred); got != tt.want {
				t.Errorf("chooseFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPickAdapterRanking(t *testing.T) {
	types := []gputypes.DeviceType{
		gputypes.DeviceTypeCPU,
		gputypes.DeviceTypeIntegratedGPU,
		gputypes.DeviceTypeDiscreteGPU,
	}
	tests := []struct {
		name     string
		lowPower bool
		want     string
	}{
		{"high performance", false, "adapter-2"},
		{"low power", true, "adapter-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instance, surface, rec := newRecordingHAL(t)
			rec.adapterTypes = types
			ctx, err := NewGraphicsContext(instance, surface, ContextConfig{PreferLowPower: tt.lowPower})
			if err != nil {
				t.Fatal(err)
			}
			defer ctx.Destroy()
			if got := ctx.AdapterInfo().Name; got != tt.want {
				t.Errorf("selected %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGraphicsContextConfigure(t *testing.T) {
	ctx, rec := newTestContext(t, nil)

	if err := ctx.Configure(640, 480); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if len(rec.configs) != 1 {
		t.Fatalf("surface configured %d times, want 1", len(rec.configs))
	}
	cfg := rec.configs[0]
	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("configured %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if cfg.Format != ctx.SurfaceFormat() {
		t.Errorf("configured format %v, want %v", cfg.Format, ctx.SurfaceFormat())
	}
	if cfg.Usage != gputypes.TextureUsageRenderAttachment {
		t.Errorf("configured usage %v, want RenderAttachment", cfg.Usage)
	}
	if cfg.PresentMode != hal.PresentModeFifo || cfg.AlphaMode != hal.CompositeAlphaModeOpaque {
		t.Errorf("configured present/alpha = %v/%v, want Fifo/Opaque", cfg.PresentMode, cfg.AlphaMode)
	}

	// Same size is a no-op.
	if err := ctx.Configure(640, 480); err != nil {
		t.Fatal(err)
	}
	if len(rec.configs) != 1 {
		t.Errorf("same-size Configure reconfigured the surface")
	}

	if err := ctx.Configure(800, 600); err != nil {
		t.Fatal(err)
	}
	if w, h := ctx.SurfaceSize(); w != 800 || h != 600 {
		t.Errorf("SurfaceSize() = %dx%d, want 800x600", w, h)
	}
}

func TestGraphicsContextConfigureZeroArea(t *testing.T) {
	ctx, rec := newTestContext(t, nil)
	if err := ctx.Configure(320, 200); err != nil {
		t.Fatal(err)
	}
	for _, size := range [][2]int{{0, 200}, {320, 0}, {0, 0}, {-1, 5}} {
		if err := ctx.Configure(size[0], size[1]); !errors.Is(err, ErrZeroArea) {
			t.Errorf("Configure(%d, %d) = %v, want ErrZeroArea", size[0], size[1], err)
		}
	}
	if len(rec.configs) != 1 {
		t.Errorf("zero-area Configure reached the surface")
	}
	if w, h := ctx.SurfaceSize(); w != 320 || h != 200 {
		t.Errorf("SurfaceSize() = %dx%d, want previous 320x200", w, h)
	}
}

func TestGraphicsContextDestroy(t *testing.T) {
	ctx, rec := newTestContext(t, nil)
	if err := ctx.Configure(10, 10); err != nil {
		t.Fatal(err)
	}
	ctx.Destroy()
	ctx.Destroy()
	if rec.unconfigured != 1 {
		t.Errorf("surface unconfigured %d times, want 1", rec.unconfigured)
	}
	if rec.waitIdles != 1 {
		t.Errorf("WaitIdle called %d times, want 1", rec.waitIdles)
	}
	if ctx.HalDevice() != nil {
		t.Error("device kept after Destroy")
	}
}
