// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface provides the CPU variant of pixview.Display.
//
// ImageDisplay keeps each frame as an *image.RGBA and hands it to a host
// image view. It needs no GPU and is the fallback when gpu.NewDisplay
// reports ErrNoGPU, as well as the reference for tests that compare pixels.
//
// # Presentation
//
// Update replaces the frame and presents it once. When the host view has
// been given a size through Resize, the frame is scaled to it with
// nearest-neighbour sampling, matching the GPU variant's sampler:
//
//	disp := surface.NewImageDisplay(surface.WithSink(func(img *image.RGBA) {
//	    view.SetImage(img)
//	}))
//	defer disp.Close()
//
//	v, _ := pixview.NewView(disp, pixview.FromSource(src))
//	v.Resize(800, 600)
package surface
