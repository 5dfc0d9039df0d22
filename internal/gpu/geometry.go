// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Vertex is a clip-space position with a texture coordinate.
// Texture coordinates have their origin at the top-left texel, matching
// the row order of uploaded frames.
type Vertex struct {
	X, Y float32
	U, V float32
}

// vertexStride is the encoded size of one Vertex.
const vertexStride = 16

// quadVertexCount is the number of vertices drawn per frame.
const quadVertexCount = 4

// FullscreenQuad returns the triangle strip covering clip space:
// top-left, top-right, bottom-left, bottom-right.
func FullscreenQuad() [quadVertexCount]Vertex {
	return [quadVertexCount]Vertex{
		{X: -1, Y: 1, U: 0, V: 0},
		{X: 1, Y: 1, U: 1, V: 0},
		{X: -1, Y: -1, U: 0, V: 1},
		{X: 1, Y: -1, U: 1, V: 1},
	}
}

// encodeVertices packs vertices as little-endian float32 quadruples.
func encodeVertices(verts []Vertex) []byte {
	buf := make([]byte, len(verts)*vertexStride)
	for i, v := range verts {
		off := i * vertexStride
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v.U))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(v.V))
	}
	return buf
}

// VertexLayout describes a vertex buffer of encoded Vertex values:
// position at location 0, texture coordinate at location 1.
func VertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: vertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		},
	}
}

// Geometry owns the vertex buffer holding the fullscreen quad. The buffer
// is written once at creation and never modified.
type Geometry struct {
	device hal.Device
	buffer hal.Buffer
}

// NewGeometry uploads the fullscreen quad to a new vertex buffer.
func NewGeometry(device hal.Device, queue hal.Queue) (*Geometry, error) {
	quad := FullscreenQuad()
	data := encodeVertices(quad[:])

	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "quad_vertices",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create quad vertex buffer: %w", err)
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload quad vertices: %w", err)
	}
	return &Geometry{device: device, buffer: buf}, nil
}

// Buffer returns the vertex buffer.
func (g *Geometry) Buffer() hal.Buffer { return g.buffer }

// VertexCount returns the number of vertices to draw.
func (g *Geometry) VertexCount() uint32 { return quadVertexCount }

// Destroy releases the vertex buffer. Safe to call multiple times.
func (g *Geometry) Destroy() {
	if g == nil || g.buffer == nil {
		return
	}
	g.device.DestroyBuffer(g.buffer)
	g.buffer = nil
}
