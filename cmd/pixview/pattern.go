package main

import (
	"bytes"
	"os"

	"golang.org/x/image/bmp"

	"github.com/gogpu/pixview"
)

// patterns are the built-in raw frame sources.
var patterns = map[string]pixview.SourceFunc{
	"quadrants": quadrants,
	"gradient":  gradient,
}

// quadrants fills the frame with red, green, blue and yellow quarters,
// starting top-left and reading left to right.
func quadrants(w, h int) []byte {
	pix := make([]byte, w*h*pixview.BytesPerPixel)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b byte
			right, bottom := x >= w/2, y >= h/2
			switch {
			case !right && !bottom:
				r = 255
			case right && !bottom:
				g = 255
			case !right && bottom:
				b = 255
			default:
				r, g = 255, 255
			}
			i := (y*w + x) * pixview.BytesPerPixel
			pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, 255
		}
	}
	return pix
}

// gradient runs red along x and green along y.
func gradient(w, h int) []byte {
	pix := make([]byte, w*h*pixview.BytesPerPixel)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * pixview.BytesPerPixel
			pix[i] = byte(x * 255 / max(w-1, 1))
			pix[i+1] = byte(y * 255 / max(h-1, 1))
			pix[i+2] = 128
			pix[i+3] = 255
		}
	}
	return pix
}

// bmpSource encodes a raw source as BMP images.
func bmpSource(src pixview.Source) pixview.EncodedSourceFunc {
	return func(w, h int) []byte {
		pb := pixview.PixelBuffer{Pix: src.Produce(w, h), Width: w, Height: h}
		if pb.Validate() != nil {
			return nil
		}
		var buf bytes.Buffer
		if err := bmp.Encode(&buf, pb.Image()); err != nil {
			return nil
		}
		return buf.Bytes()
	}
}

// fileSource reads an encoded image from path on every frame.
func fileSource(path string) pixview.EncodedSourceFunc {
	return func(int, int) []byte {
		data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
		if err != nil {
			pixview.Logger().Warn("pixview: read watched image", "path", path, "err", err)
			return nil
		}
		return data
	}
}

// producer picks the frame source for cfg.
func producer(cfg Config) pixview.FrameProducer {
	if cfg.Watch != "" {
		return pixview.FromEncoded(fileSource(cfg.Watch))
	}
	src := patterns[cfg.Pattern]
	if cfg.Encoded {
		return pixview.FromEncoded(bmpSource(src))
	}
	return pixview.FromSource(src)
}
