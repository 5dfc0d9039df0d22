// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import _ "embed"

// Embedded WGSL shader sources.

//go:embed shaders/present.wgsl
var presentShaderSource string

// ShaderStages names a WGSL program and its two entry points.
type ShaderStages struct {
	Label         string
	Source        string
	VertexEntry   string
	FragmentEntry string
}

// DefaultShaderStages returns the built-in presentation shader: a
// pass-through vertex stage and a fragment stage that samples the frame
// texture (binding 0) with the frame sampler (binding 1).
func DefaultShaderStages() ShaderStages {
	return ShaderStages{
		Label:         "present",
		Source:        presentShaderSource,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
	}
}
