// Package pixview displays raw pixel buffers on a presentation surface and
// keeps the displayed image in sync with the size of the host view.
//
// # Overview
//
// A frame is a [PixelBuffer]: RGBA, 8 bits per channel, rows top to bottom,
// exactly width*height*4 bytes. Frames come from a [Source] (raw bytes) or
// an [EncodedSource] (BMP, PNG, TIFF or WebP), adapted with [FromSource] or
// [FromEncoded].
//
// A [Display] puts frames on screen. Two implementations exist:
//
//   - gpu.Display uploads each frame to a GPU texture and draws it with a
//     fullscreen quad through gogpu/wgpu.
//   - surface.ImageDisplay shows the decoded image directly, without a GPU.
//
// The variant is chosen when the display is constructed. A [View] drives
// either one: on every size change or explicit refresh it asks the producer
// for a frame at the view's pixel size and the display presents it once.
//
// # Quick Start
//
//	disp, err := gpu.NewDisplay(instance, halSurface)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	view, err := pixview.NewView(disp, pixview.FromSource(tracer),
//	    pixview.WithScaleFactor(2))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer view.Close()
//
//	if err := view.Resize(400, 300); err != nil { // 800x600 pixels
//	    log.Print(err)
//	}
//
// # Logging
//
// pixview is silent by default. Call [SetLogger] to route diagnostics to a
// [log/slog] logger.
package pixview
