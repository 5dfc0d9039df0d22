// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/pixview"
)

var (
	// ErrClosed is returned by operations on a closed ImageDisplay.
	ErrClosed = errors.New("surface: display closed")

	// ErrZeroArea is returned by Resize for an empty host view.
	ErrZeroArea = errors.New("surface: zero area")
)

// Sink receives every presented image. The image is owned by the display
// and stays valid until the next Present.
type Sink func(img *image.RGBA)

// Stats counts display activity.
type Stats struct {
	Updates   uint64
	Presented uint64
	Skipped   uint64
}

// ImageOption configures an ImageDisplay during creation.
type ImageOption func(*ImageDisplay)

// WithSink sets the function that receives presented images.
func WithSink(s Sink) ImageOption {
	return func(d *ImageDisplay) {
		d.sink = s
	}
}

// WithHostSize sets the initial host view size in pixels.
func WithHostSize(width, height int) ImageOption {
	return func(d *ImageDisplay) {
		if width > 0 && height > 0 {
			d.hostW, d.hostH = width, height
		}
	}
}

// WithScaleFactor sets the backing scale reported to a View: physical
// pixels per logical point. Non-positive values are ignored.
func WithScaleFactor(scale float64) ImageOption {
	return func(d *ImageDisplay) {
		if scale > 0 {
			d.scale = scale
		}
	}
}

// ImageDisplay presents frames as images on the CPU. It implements
// pixview.Display and pixview.Resizer.
//
// Example:
//
//	d := surface.NewImageDisplay(surface.WithHostSize(200, 100))
//	d.Update(pix, 2, 1)
//	img := d.Snapshot() // 200x100, nearest-neighbour scaled
type ImageDisplay struct {
	frame  *image.RGBA
	output *image.RGBA

	// host view size; zero means "frame size"
	hostW, hostH int
	scale        float64

	sink   Sink
	stats  Stats
	closed bool
}

var (
	_ pixview.Display       = (*ImageDisplay)(nil)
	_ pixview.Resizer       = (*ImageDisplay)(nil)
	_ pixview.ScaleReporter = (*ImageDisplay)(nil)
)

// NewImageDisplay creates an ImageDisplay with no frame.
func NewImageDisplay(opts ...ImageOption) *ImageDisplay {
	d := &ImageDisplay{scale: 1}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Update copies pix, a width x height RGBA buffer, into a new image and
// presents it once. A malformed buffer is rejected and the previous frame
// stays.
func (d *ImageDisplay) Update(pix []byte, width, height int) error {
	if d.closed {
		return ErrClosed
	}
	if err := pixview.CheckSize(len(pix), width, height); err != nil {
		return err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	d.frame = img
	d.stats.Updates++
	d.Present()
	return nil
}

// Resize sets the host view size in pixels.
func (d *ImageDisplay) Resize(width, height int) error {
	if d.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrZeroArea, width, height)
	}
	d.hostW, d.hostH = width, height
	return nil
}

// Present renders the current frame at the host size and hands it to the
// sink. It reports false when there is no frame.
func (d *ImageDisplay) Present() bool {
	if d.closed || d.frame == nil {
		d.stats.Skipped++
		pixview.Logger().Debug("surface: frame skipped", "closed", d.closed)
		return false
	}
	d.output = d.scaled()
	d.stats.Presented++
	if d.sink != nil {
		d.sink(d.output)
	}
	return true
}

// scaled returns the frame resampled to the host size, or the frame itself
// when no host size is set or the sizes match.
func (d *ImageDisplay) scaled() *image.RGBA {
	fb := d.frame.Bounds()
	if d.hostW == 0 || (fb.Dx() == d.hostW && fb.Dy() == d.hostH) {
		return d.frame
	}
	dst := d.output
	if dst == nil || dst == d.frame || dst.Bounds().Dx() != d.hostW || dst.Bounds().Dy() != d.hostH {
		dst = image.NewRGBA(image.Rect(0, 0, d.hostW, d.hostH))
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), d.frame, fb, draw.Src, nil)
	return dst
}

// Snapshot returns a copy of the last presented image, or nil.
func (d *ImageDisplay) Snapshot() *image.RGBA {
	if d.output == nil {
		return nil
	}
	cp := image.NewRGBA(d.output.Bounds())
	copy(cp.Pix, d.output.Pix)
	return cp
}

// Frame returns the current frame as a PixelBuffer sharing the display's
// memory, or false when there is none.
func (d *ImageDisplay) Frame() (pixview.PixelBuffer, bool) {
	if d.frame == nil {
		return pixview.PixelBuffer{}, false
	}
	b := d.frame.Bounds()
	return pixview.PixelBuffer{Pix: d.frame.Pix, Width: b.Dx(), Height: b.Dy()}, true
}

// HostSize returns the host view size, or 0x0 when it follows the frame.
func (d *ImageDisplay) HostSize() (width, height int) {
	return d.hostW, d.hostH
}

// ScaleFactor returns the backing scale set by WithScaleFactor, or 1.
func (d *ImageDisplay) ScaleFactor() float64 {
	return d.scale
}

// Stats returns display counters.
func (d *ImageDisplay) Stats() Stats {
	return d.stats
}

// Close releases the images. Safe to call multiple times.
func (d *ImageDisplay) Close() error {
	d.closed = true
	d.frame = nil
	d.output = nil
	return nil
}
