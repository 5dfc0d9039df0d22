package pixview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/draw"
)

// BytesPerPixel is the size of one RGBA8 pixel.
const BytesPerPixel = 4

var (
	// ErrInvalidDimensions is returned for a buffer whose width or height
	// is not positive.
	ErrInvalidDimensions = errors.New("pixview: invalid dimensions")

	// ErrBufferSize is returned when a buffer's length does not equal
	// width*height*4.
	ErrBufferSize = errors.New("pixview: buffer length does not match dimensions")
)

// CheckSize reports whether n bytes form a complete RGBA8 buffer of the given
// dimensions. It returns an error wrapping ErrInvalidDimensions or
// ErrBufferSize, or nil.
func CheckSize(n, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width > math.MaxInt/BytesPerPixel/height {
		return fmt.Errorf("%w: %dx%d overflows", ErrBufferSize, width, height)
	}
	if want := width * height * BytesPerPixel; n != want {
		return fmt.Errorf("%w: got %d bytes, want %d for %dx%d",
			ErrBufferSize, n, want, width, height)
	}
	return nil
}

// PixelBuffer is a raw RGBA image: 8 bits per channel, rows stored top to
// bottom with no padding. The buffer is owned by the caller; displays only
// read it.
type PixelBuffer struct {
	Pix    []byte
	Width  int
	Height int
}

// NewPixelBuffer allocates a zeroed buffer. Non-positive or overflowing
// dimensions yield an empty buffer that fails Validate.
func NewPixelBuffer(width, height int) PixelBuffer {
	if width <= 0 || height <= 0 || width > math.MaxInt/BytesPerPixel/height {
		return PixelBuffer{Width: width, Height: height}
	}
	return PixelBuffer{
		Pix:    make([]byte, width*height*BytesPerPixel),
		Width:  width,
		Height: height,
	}
}

// Validate checks the length invariant.
func (b PixelBuffer) Validate() error {
	return CheckSize(len(b.Pix), b.Width, b.Height)
}

// Stride returns the number of bytes per row.
func (b PixelBuffer) Stride() int {
	return b.Width * BytesPerPixel
}

// Image wraps the buffer as an *image.RGBA sharing the same memory.
// The buffer must be valid.
func (b PixelBuffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Stride(),
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// FromImage converts any image into a newly allocated PixelBuffer.
// Images with an alpha channel are stored premultiplied.
func FromImage(img image.Image) PixelBuffer {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == bounds.Dx()*BytesPerPixel {
		pb := NewPixelBuffer(bounds.Dx(), bounds.Dy())
		copy(pb.Pix, rgba.Pix)
		return pb
	}
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return PixelBuffer{Pix: dst.Pix, Width: bounds.Dx(), Height: bounds.Dy()}
}

// SavePNG writes the buffer to a PNG file.
func (b PixelBuffer) SavePNG(path string) error {
	if err := b.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := png.Encode(f, b.Image()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
