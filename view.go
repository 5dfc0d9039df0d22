package pixview

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNilDisplay is returned by NewView when no display is given.
	ErrNilDisplay = errors.New("pixview: display must not be nil")

	// ErrNilProducer is returned by NewView when no frame producer is given.
	ErrNilProducer = errors.New("pixview: frame producer must not be nil")

	// ErrNoWindow is returned by SyncWindow when no window was injected.
	ErrNoWindow = errors.New("pixview: no window provider")
)

// View keeps a Display in sync with the size of a host view.
//
// Every size change or explicit refresh asks the FrameProducer for a frame
// at the view's pixel size and hands it to the Display, which presents it
// once. Sizes passed to Resize are logical points; the pixel size is the
// logical size multiplied by the injected display scale.
//
// A View is driven from a single goroutine.
type View struct {
	display Display
	frames  FrameProducer
	opts    viewOptions

	width, height   int // logical points
	pwidth, pheight int // physical pixels, zero while hidden
}

// NewView creates a View. No frame is produced until the first Resize.
func NewView(display Display, frames FrameProducer, opts ...ViewOption) (*View, error) {
	if display == nil {
		return nil, ErrNilDisplay
	}
	if frames == nil {
		return nil, ErrNilProducer
	}
	o := defaultViewOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &View{display: display, frames: frames, opts: o}, nil
}

// ScaleFactor returns the physical pixels per logical point. The injected
// window wins, then WithScaleFactor, then a display implementing
// ScaleReporter. The default is 1.
func (v *View) ScaleFactor() float64 {
	if v.opts.window != nil {
		if s := v.opts.window.ScaleFactor(); s > 0 {
			return s
		}
	}
	if v.opts.scale > 0 {
		return v.opts.scale
	}
	if r, ok := v.display.(ScaleReporter); ok {
		if s := r.ScaleFactor(); s > 0 {
			return s
		}
	}
	return 1
}

// Size returns the logical size last passed to Resize.
func (v *View) Size() (width, height int) {
	return v.width, v.height
}

// PixelSize returns the drawable size in physical pixels. It is 0x0 while
// the view has zero area.
func (v *View) PixelSize() (width, height int) {
	return v.pwidth, v.pheight
}

// Resize records a new logical size and, when the view has a non-zero
// area, produces and displays a frame at the new pixel size.
//
// A zero-sized view (hidden or minimised) is a no-op: nothing is produced
// or drawn and the display keeps its last frame. A rejected frame leaves
// the previous frame on screen and returns the error.
func (v *View) Resize(width, height int) error {
	v.width, v.height = width, height
	pw, ph := v.toPixels(width), v.toPixels(height)
	if pw <= 0 || ph <= 0 {
		v.pwidth, v.pheight = 0, 0
		Logger().Debug("pixview: view has zero area, skipping frame",
			"width", width, "height", height)
		return nil
	}
	if r, ok := v.display.(Resizer); ok {
		if err := r.Resize(pw, ph); err != nil {
			return fmt.Errorf("pixview: resize display to %dx%d: %w", pw, ph, err)
		}
	}
	v.pwidth, v.pheight = pw, ph
	return v.render()
}

// Refresh produces and displays a new frame at the current pixel size.
// It is a no-op while the view has zero area.
func (v *View) Refresh() error {
	if v.pwidth <= 0 || v.pheight <= 0 {
		return nil
	}
	return v.render()
}

// SyncWindow resizes the view to the injected window's current size.
func (v *View) SyncWindow() error {
	if v.opts.window == nil {
		return ErrNoWindow
	}
	w, h := v.opts.window.Size()
	return v.Resize(w, h)
}

// Redraw presents the current frame again without producing a new one.
func (v *View) Redraw() bool {
	if v.pwidth <= 0 || v.pheight <= 0 {
		return false
	}
	return v.display.Present()
}

// Close closes the underlying display.
func (v *View) Close() error {
	return v.display.Close()
}

func (v *View) render() error {
	frame, err := v.frames.Frame(v.pwidth, v.pheight)
	if err != nil {
		Logger().Debug("pixview: frame rejected", "width", v.pwidth, "height", v.pheight, "err", err)
		return fmt.Errorf("pixview: produce %dx%d frame: %w", v.pwidth, v.pheight, err)
	}
	return v.display.Update(frame.Pix, frame.Width, frame.Height)
}

func (v *View) toPixels(points int) int {
	if points <= 0 {
		return 0
	}
	return int(math.Round(float64(points) * v.ScaleFactor()))
}
