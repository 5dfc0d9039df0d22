// Package gpu implements the GPU presentation core used by pixview's GPU
// display.
//
// It is built directly on the gogpu/wgpu HAL, which supports Vulkan, Metal,
// DX12, GLES and a CPU software backend.
//
// # Components
//
//   - GraphicsContext: adapter selection, device and queue ownership, surface
//     configuration. Implements gpucontext.DeviceProvider.
//   - PipelineConfig: the presentation shader (validated with naga), bind
//     group layout, nearest sampler and triangle-strip render pipeline.
//   - Geometry: the four-vertex fullscreen quad in a vertex buffer.
//   - FrameTexture: the RGBA8 texture holding the current frame, fully
//     rewritten on every update.
//   - MemoryBudget: optional accounting of frame texture memory.
//   - Presenter: per-frame acquire, encode, submit and present.
//
// # Frame Lifecycle
//
//	FrameTexture.Update(pix, w, h)   upload (queue.WriteTexture)
//	Presenter.Draw()                 acquire -> encode -> submit -> present
//
// The presenter never waits for the GPU. Command buffers, drawable views and
// replaced frame textures are released once queue.PollCompleted reports the
// submission that used them as complete.
package gpu
