// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// FrameStats counts draw outcomes.
type FrameStats struct {
	Presented uint64
	Skipped   uint64
}

// inflightFrame holds per-frame objects until the queue completes the
// submission that uses them.
type inflightFrame struct {
	submission uint64
	cmd        hal.CommandBuffer
	view       hal.TextureView
}

// Presenter draws the current frame texture onto the surface.
//
// Each Draw runs Idle -> Acquired -> Encoded -> Submitted -> Presented
// synchronously and never waits for the GPU. A frame whose inputs are not
// ready is skipped without error; the next Draw starts from scratch.
type Presenter struct {
	ctx      *GraphicsContext
	pipeline *PipelineConfig
	geometry *Geometry
	texture  *FrameTexture
	clear    gputypes.Color

	inflight []inflightFrame
	stats    FrameStats
}

// NewPresenter creates a Presenter. Any argument may be nil; Draw skips
// frames until all are present.
func NewPresenter(ctx *GraphicsContext, pipeline *PipelineConfig, geometry *Geometry, texture *FrameTexture, clear gputypes.Color) *Presenter {
	return &Presenter{
		ctx:      ctx,
		pipeline: pipeline,
		geometry: geometry,
		texture:  texture,
		clear:    clear,
	}
}

// Draw presents one frame. It reports whether the frame reached the
// surface.
func (p *Presenter) Draw() bool {
	if p.ctx == nil || p.ctx.device == nil {
		return p.skip("no device", nil)
	}
	p.reclaim()

	if p.pipeline == nil || p.geometry == nil || p.texture == nil || p.texture.BindGroup() == nil {
		return p.skip("frame resources not ready", nil)
	}
	if !p.ctx.Configured() {
		return p.skip("surface not configured", nil)
	}

	device, queue, surface := p.ctx.device, p.ctx.queue, p.ctx.surface

	// Idle -> Acquired
	acquired, err := surface.AcquireTexture(nil)
	if err != nil || acquired == nil || acquired.Texture == nil {
		return p.skip("drawable unavailable", err)
	}
	drawable := acquired.Texture

	view, err := device.CreateTextureView(drawable, &hal.TextureViewDescriptor{
		Label:           "drawable_view",
		Format:          p.ctx.format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		surface.DiscardTexture(drawable)
		return p.skip("drawable view unavailable", err)
	}

	// Acquired -> Encoded
	cmd, err := p.encode(device, view)
	if err != nil {
		device.DestroyTextureView(view)
		surface.DiscardTexture(drawable)
		return p.skip("encoding failed", err)
	}

	// Encoded -> Submitted
	submission, err := queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		device.FreeCommandBuffer(cmd)
		device.DestroyTextureView(view)
		surface.DiscardTexture(drawable)
		return p.skip("submit failed", err)
	}
	p.texture.MarkUsed(submission)
	p.inflight = append(p.inflight, inflightFrame{submission: submission, cmd: cmd, view: view})

	// Submitted -> Presented
	if err := queue.Present(surface, drawable, nil); err != nil {
		surface.DiscardTexture(drawable)
		return p.skip("present failed", err)
	}
	p.stats.Presented++
	return true
}

// encode records the clear-and-draw pass into a new command buffer.
func (p *Presenter) encode(device hal.Device, target hal.TextureView) (hal.CommandBuffer, error) {
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "present_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("present_frame"); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "present_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: p.clear,
		}},
	})
	rp.SetPipeline(p.pipeline.Pipeline())
	rp.SetBindGroup(0, p.texture.BindGroup(), nil)
	rp.SetVertexBuffer(0, p.geometry.Buffer(), 0)
	rp.Draw(p.geometry.VertexCount(), 1, 0, 0)
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	return cmd, nil
}

// reclaim frees objects of completed submissions without blocking.
func (p *Presenter) reclaim() {
	completed := p.ctx.queue.PollCompleted()
	kept := p.inflight[:0]
	for _, f := range p.inflight {
		if f.submission <= completed {
			p.release(f)
			continue
		}
		kept = append(kept, f)
	}
	clear(p.inflight[len(kept):])
	p.inflight = kept
	if p.texture != nil {
		p.texture.Reclaim(completed)
	}
}

func (p *Presenter) release(f inflightFrame) {
	p.ctx.device.FreeCommandBuffer(f.cmd)
	p.ctx.device.DestroyTextureView(f.view)
}

func (p *Presenter) skip(reason string, err error) bool {
	p.stats.Skipped++
	if err != nil {
		slogger().Debug("gpu: frame skipped", "reason", reason, "err", err)
	} else {
		slogger().Debug("gpu: frame skipped", "reason", reason)
	}
	return false
}

// InFlight returns the number of submitted frames not yet reclaimed.
func (p *Presenter) InFlight() int { return len(p.inflight) }

// Stats returns the draw counters.
func (p *Presenter) Stats() FrameStats { return p.stats }

// Destroy waits for the device to go idle and releases all in-flight frame
// objects.
func (p *Presenter) Destroy() {
	if p.ctx == nil || p.ctx.device == nil {
		return
	}
	if len(p.inflight) > 0 {
		if err := p.ctx.device.WaitIdle(); err != nil {
			slogger().Warn("gpu: wait idle before releasing frames", "err", err)
		}
	}
	for _, f := range p.inflight {
		p.release(f)
	}
	p.inflight = nil
}
