// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import "errors"

var (
	// ErrNoGPU is returned when no adapter can drive the surface.
	ErrNoGPU = errors.New("gpu: no compatible GPU adapter")

	// ErrNilSurface is returned when no presentation surface is given.
	ErrNilSurface = errors.New("gpu: surface must not be nil")

	// ErrSurfaceUnsupported is returned when the adapter reports no
	// capabilities for the surface.
	ErrSurfaceUnsupported = errors.New("gpu: surface not supported by adapter")

	// ErrZeroArea is returned when configuring the surface with a zero size.
	ErrZeroArea = errors.New("gpu: surface width and height must be non-zero")

	// ErrShaderCompile is returned when the presentation shader fails to
	// compile.
	ErrShaderCompile = errors.New("gpu: shader compilation failed")

	// ErrPipelineCreation is returned when a pipeline object cannot be
	// created.
	ErrPipelineCreation = errors.New("gpu: pipeline creation failed")

	// ErrTextureTooLarge is returned for frames exceeding the device's
	// maximum 2D texture dimension.
	ErrTextureTooLarge = errors.New("gpu: frame exceeds maximum texture dimension")
)
