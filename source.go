package pixview

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	// Encoded frame formats accepted by FromEncoded.
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when an encoded frame cannot be decoded.
var ErrDecode = errors.New("pixview: cannot decode image")

// Source produces a raw RGBA frame for a view of the given pixel size.
// The returned slice must hold exactly width*height*4 bytes, rows top to bottom.
type Source interface {
	Produce(width, height int) []byte
}

// SourceFunc adapts an ordinary function to the Source interface.
type SourceFunc func(width, height int) []byte

// Produce calls f(width, height).
func (f SourceFunc) Produce(width, height int) []byte { return f(width, height) }

// EncodedSource produces a frame as an encoded image container (BMP, PNG,
// TIFF or WebP). The decoded image may differ in size from the request.
type EncodedSource interface {
	ProduceEncoded(width, height int) []byte
}

// EncodedSourceFunc adapts an ordinary function to the EncodedSource interface.
type EncodedSourceFunc func(width, height int) []byte

// ProduceEncoded calls f(width, height).
func (f EncodedSourceFunc) ProduceEncoded(width, height int) []byte { return f(width, height) }

// FrameProducer yields validated frames for a View.
type FrameProducer interface {
	Frame(width, height int) (PixelBuffer, error)
}

// FromSource returns a FrameProducer that validates raw frames against the
// requested size.
func FromSource(src Source) FrameProducer {
	return rawProducer{src: src}
}

// FromEncoded returns a FrameProducer that decodes encoded frames.
func FromEncoded(src EncodedSource) FrameProducer {
	return encodedProducer{src: src}
}

type rawProducer struct {
	src Source
}

func (p rawProducer) Frame(width, height int) (PixelBuffer, error) {
	pb := PixelBuffer{Pix: p.src.Produce(width, height), Width: width, Height: height}
	if err := pb.Validate(); err != nil {
		return PixelBuffer{}, err
	}
	return pb, nil
}

type encodedProducer struct {
	src EncodedSource
}

func (p encodedProducer) Frame(width, height int) (PixelBuffer, error) {
	img, err := DecodeImage(p.src.ProduceEncoded(width, height))
	if err != nil {
		return PixelBuffer{}, err
	}
	return FromImage(img), nil
}

// DecodeImage decodes an encoded frame in any registered format.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrDecode)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecode, format)
	}
	return img, nil
}
