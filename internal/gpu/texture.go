// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/pixview"
)

// errNoFrame is returned by UpdateData before the first Update.
var errNoFrame = errors.New("gpu: no frame texture allocated")

// frameTextureFormat is the layout of uploaded frames.
const frameTextureFormat = gputypes.TextureFormatRGBA8Unorm

// frameResources is one allocated frame texture with its view and the bind
// group that exposes it to the presentation shader.
type frameResources struct {
	texture   hal.Texture
	view      hal.TextureView
	bindGroup hal.BindGroup

	width, height int

	// lastUse is the submission index of the last frame that sampled this
	// texture. Zero means it was never submitted.
	lastUse uint64
}

// FrameTexture holds the GPU copy of the most recent frame.
//
// Each Update replaces the full texture contents. A frame with new
// dimensions allocates a new texture; the previous one is retired and
// destroyed once the queue has completed every submission that sampled it.
// Retired textures are never drawn again.
type FrameTexture struct {
	device   hal.Device
	queue    hal.Queue
	pipeline *PipelineConfig
	maxDim   int
	budget   *MemoryBudget

	current *frameResources
	retired []*frameResources

	uploads     uint64
	allocations uint64
}

// NewFrameTexture creates an empty FrameTexture. maxDimension bounds frame
// width and height; zero disables the check.
func NewFrameTexture(device hal.Device, queue hal.Queue, pipeline *PipelineConfig, maxDimension int) *FrameTexture {
	return &FrameTexture{
		device:   device,
		queue:    queue,
		pipeline: pipeline,
		maxDim:   maxDimension,
	}
}

// Update uploads pix, a width x height RGBA buffer, replacing the current
// frame. The buffer length is checked before anything is read: a mismatch
// returns an error wrapping pixview.ErrBufferSize and leaves the current
// texture untouched.
func (t *FrameTexture) Update(pix []byte, width, height int) error {
	if err := pixview.CheckSize(len(pix), width, height); err != nil {
		return err
	}
	if t.maxDim > 0 && (width > t.maxDim || height > t.maxDim) {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrTextureTooLarge, width, height, t.maxDim)
	}

	if cur := t.current; cur != nil && cur.width == width && cur.height == height {
		if err := t.upload(cur, pix); err != nil {
			return err
		}
		t.uploads++
		return nil
	}

	res, err := t.allocate(width, height)
	if err != nil {
		return err
	}
	if err := t.upload(res, pix); err != nil {
		t.destroy(res)
		return err
	}
	t.retire(t.current)
	t.current = res
	t.uploads++
	t.allocations++

	slogger().Debug("gpu: frame texture allocated", "width", width, "height", height)
	return nil
}

// SetMemoryBudget makes t account its textures against b. It must be
// called before the first Update.
func (t *FrameTexture) SetMemoryBudget(b *MemoryBudget) {
	t.budget = b
}

// reserve accounts for a new texture, releasing completed retired textures
// first when the budget is tight.
func (t *FrameTexture) reserve(width, height int) error {
	if t.budget == nil {
		return nil
	}
	n := textureBytes(width, height)
	if err := t.budget.Reserve(n); err == nil {
		return nil
	}
	t.Reclaim(t.queue.PollCompleted())
	return t.budget.Reserve(n)
}

func (t *FrameTexture) allocate(width, height int) (*frameResources, error) {
	if err := t.reserve(width, height); err != nil {
		return nil, err
	}
	res := &frameResources{width: width, height: height}

	tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "frame_texture",
		Size:          hal.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}, //nolint:gosec // validated positive
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        frameTextureFormat,
		Usage: gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageStorageBinding |
			gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		t.destroy(res)
		return nil, fmt.Errorf("create frame texture %dx%d: %w", width, height, err)
	}
	res.texture = tex

	view, err := t.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "frame_texture_view",
		Format:          frameTextureFormat,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		t.destroy(res)
		return nil, fmt.Errorf("create frame texture view: %w", err)
	}
	res.view = view

	bindGroup, err := t.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "frame_bind_group",
		Layout: t.pipeline.BindGroupLayout(),
		Entries: []gputypes.BindGroupEntry{
			{Binding: frameTextureBinding, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: frameSamplerBinding, Resource: gputypes.SamplerBinding{Sampler: t.pipeline.Sampler().NativeHandle()}},
		},
	})
	if err != nil {
		t.destroy(res)
		return nil, fmt.Errorf("create frame bind group: %w", err)
	}
	res.bindGroup = bindGroup
	return res, nil
}

func (t *FrameTexture) upload(res *frameResources, pix []byte) error {
	w, h := uint32(res.width), uint32(res.height) //nolint:gosec // validated positive
	err := t.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: res.texture, MipLevel: 0},
		pix,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * pixview.BytesPerPixel, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("upload frame %dx%d: %w", res.width, res.height, err)
	}
	return nil
}

// retire schedules res for destruction once its last submission completes.
func (t *FrameTexture) retire(res *frameResources) {
	if res == nil {
		return
	}
	if res.lastUse == 0 || t.queue.PollCompleted() >= res.lastUse {
		t.destroy(res)
		return
	}
	t.retired = append(t.retired, res)
}

// Reclaim destroys retired textures whose last submission is at or below
// completed.
func (t *FrameTexture) Reclaim(completed uint64) {
	kept := t.retired[:0]
	for _, res := range t.retired {
		if res.lastUse <= completed {
			t.destroy(res)
			continue
		}
		kept = append(kept, res)
	}
	clear(t.retired[len(kept):])
	t.retired = kept
}

// MarkUsed records that the current texture is sampled by the given
// submission.
func (t *FrameTexture) MarkUsed(submission uint64) {
	if t.current != nil {
		t.current.lastUse = submission
	}
}

// BindGroup returns the bind group for the current frame, or nil before the
// first successful Update.
func (t *FrameTexture) BindGroup() hal.BindGroup {
	if t.current == nil {
		return nil
	}
	return t.current.bindGroup
}

// Width returns the current frame width, or 0 before the first Update.
func (t *FrameTexture) Width() int {
	if t.current == nil {
		return 0
	}
	return t.current.width
}

// Height returns the current frame height, or 0 before the first Update.
func (t *FrameTexture) Height() int {
	if t.current == nil {
		return 0
	}
	return t.current.height
}

// UpdateData rewrites the current frame with data of the same dimensions.
func (t *FrameTexture) UpdateData(data []byte) error {
	if t.current == nil {
		return errNoFrame
	}
	return t.Update(data, t.current.width, t.current.height)
}

// Uploads returns the number of successful uploads.
func (t *FrameTexture) Uploads() uint64 { return t.uploads }

// Allocations returns the number of textures allocated.
func (t *FrameTexture) Allocations() uint64 { return t.allocations }

// Pending returns the number of retired textures awaiting destruction.
func (t *FrameTexture) Pending() int { return len(t.retired) }

// Destroy releases the current and all retired textures. The caller must
// ensure the GPU no longer uses them.
func (t *FrameTexture) Destroy() {
	for _, res := range t.retired {
		t.destroy(res)
	}
	t.retired = nil
	if t.current != nil {
		t.destroy(t.current)
		t.current = nil
	}
}

// destroy releases resources in reverse creation order.
func (t *FrameTexture) destroy(res *frameResources) {
	if res.bindGroup != nil {
		t.device.DestroyBindGroup(res.bindGroup)
		res.bindGroup = nil
	}
	if res.view != nil {
		t.device.DestroyTextureView(res.view)
		res.view = nil
	}
	if res.texture != nil {
		t.device.DestroyTexture(res.texture)
		res.texture = nil
	}
	if t.budget != nil && res.width > 0 {
		t.budget.Release(textureBytes(res.width, res.height))
		res.width, res.height = 0, 0
	}
}
