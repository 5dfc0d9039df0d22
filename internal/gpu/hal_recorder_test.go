package gpu

import (
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

var errInjected = errors.New("injected failure")

// recorder collects the calls made through the recording HAL wrappers and
// holds failure switches for tests.
type recorder struct {
	noAdapters    bool
	noCaps        bool
	adapterTypes  []gputypes.DeviceType
	failShader    bool
	failPipeline  bool
	failTexture   bool
	failBindGroup bool
	failWrite     bool
	failAcquire   bool
	failEncoder   bool
	failBegin     bool
	failSubmit    bool

	// stalled freezes PollCompleted at completed.
	stalled   bool
	completed uint64

	openedLimits gputypes.Limits
	configs      []hal.SurfaceConfiguration
	unconfigured int

	shaders   []hal.ShaderModuleDescriptor
	pipelines []hal.RenderPipelineDescriptor
	samplers  []hal.SamplerDescriptor

	textures   []*fakeTexture
	views      map[uintptr]*fakeView
	nextHandle uintptr
	bindGroups []*fakeBindGroup
	buffers    int
	writes     []textureWrite
	passes     []*passRecord

	submits           int
	presents          int
	discards          int
	freedCmds         int
	discardedEncoders int
	waitIdles         int
}

type textureWrite struct {
	texture hal.Texture
	data    []byte
	layout  hal.ImageDataLayout
	size    hal.Extent3D
}

type drawCall struct {
	vertexCount, instanceCount, firstVertex, firstInstance uint32
}

type passRecord struct {
	desc         hal.RenderPassDescriptor
	pipeline     hal.RenderPipeline
	bindGroups   map[uint32]hal.BindGroup
	vertexBuffer hal.Buffer
	vertexSlot   uint32
	draws        []drawCall
	ended        bool
}

// fakeTexture wraps a noop texture so every allocation has a distinct
// identity.
type fakeTexture struct {
	hal.Texture
	desc      hal.TextureDescriptor
	destroyed bool
}

type fakeView struct {
	hal.TextureView
	handle    uintptr
	texture   hal.Texture
	destroyed bool
}

func (v *fakeView) NativeHandle() uintptr { return v.handle }

type fakeSampler struct {
	hal.Sampler
	handle uintptr
}

func (s *fakeSampler) NativeHandle() uintptr { return s.handle }

type fakeBindGroup struct {
	hal.BindGroup
	entries   []gputypes.BindGroupEntry
	destroyed bool
}

type recordingInstance struct {
	hal.Instance
	rec *recorder
}

func (i *recordingInstance) EnumerateAdapters(surfaceHint hal.Surface) []hal.ExposedAdapter {
	if i.rec.noAdapters {
		return nil
	}
	inner := i.Instance.EnumerateAdapters(surfaceHint)
	if len(i.rec.adapterTypes) == 0 {
		for k := range inner {
			inner[k].Adapter = &recordingAdapter{Adapter: inner[k].Adapter, rec: i.rec}
		}
		return inner
	}
	out := make([]hal.ExposedAdapter, 0, len(i.rec.adapterTypes))
	for k, typ := range i.rec.adapterTypes {
		exp := inner[0]
		exp.Adapter = &recordingAdapter{Adapter: inner[0].Adapter, rec: i.rec}
		exp.Info.Name = fmt.Sprintf("adapter-%d", k)
		exp.Info.DeviceType = typ
		out = append(out, exp)
	}
	return out
}

type recordingAdapter struct {
	hal.Adapter
	rec *recorder
}

func (a *recordingAdapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	open, err := a.Adapter.Open(features, limits)
	if err != nil {
		return open, err
	}
	a.rec.openedLimits = limits
	open.Device = &recordingDevice{Device: open.Device, rec: a.rec}
	open.Queue = &recordingQueue{Queue: open.Queue, rec: a.rec}
	return open, nil
}

func (a *recordingAdapter) SurfaceCapabilities(surface hal.Surface) *hal.SurfaceCapabilities {
	if a.rec.noCaps {
		return nil
	}
	return a.Adapter.SurfaceCapabilities(surface)
}

type recordingDevice struct {
	hal.Device
	rec *recorder
}

func (d *recordingDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	if d.rec.failShader {
		return nil, errInjected
	}
	d.rec.shaders = append(d.rec.shaders, *desc)
	return d.Device.CreateShaderModule(desc)
}

func (d *recordingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if d.rec.failPipeline {
		return nil, errInjected
	}
	d.rec.pipelines = append(d.rec.pipelines, *desc)
	return d.Device.CreateRenderPipeline(desc)
}

func (d *recordingDevice) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	s, err := d.Device.CreateSampler(desc)
	if err != nil {
		return nil, err
	}
	d.rec.samplers = append(d.rec.samplers, *desc)
	d.rec.nextHandle++
	return &fakeSampler{Sampler: s, handle: d.rec.nextHandle}, nil
}

func (d *recordingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.rec.buffers++
	return d.Device.CreateBuffer(desc)
}

func (d *recordingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.rec.failTexture {
		return nil, errInjected
	}
	tex, err := d.Device.CreateTexture(desc)
	if err != nil {
		return nil, err
	}
	ft := &fakeTexture{Texture: tex, desc: *desc}
	d.rec.textures = append(d.rec.textures, ft)
	return ft, nil
}

func (d *recordingDevice) DestroyTexture(tex hal.Texture) {
	if ft, ok := tex.(*fakeTexture); ok {
		ft.destroyed = true
	}
	d.Device.DestroyTexture(tex)
}

func (d *recordingDevice) CreateTextureView(tex hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	view, err := d.Device.CreateTextureView(tex, desc)
	if err != nil {
		return nil, err
	}
	d.rec.nextHandle++
	fv := &fakeView{TextureView: view, handle: d.rec.nextHandle, texture: tex}
	d.rec.views[fv.handle] = fv
	return fv, nil
}

func (d *recordingDevice) DestroyTextureView(view hal.TextureView) {
	if fv, ok := view.(*fakeView); ok {
		fv.destroyed = true
	}
	d.Device.DestroyTextureView(view)
}

func (d *recordingDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	if d.rec.failBindGroup {
		return nil, errInjected
	}
	bg, err := d.Device.CreateBindGroup(desc)
	if err != nil {
		return nil, err
	}
	fbg := &fakeBindGroup{BindGroup: bg, entries: desc.Entries}
	d.rec.bindGroups = append(d.rec.bindGroups, fbg)
	return fbg, nil
}

func (d *recordingDevice) DestroyBindGroup(group hal.BindGroup) {
	if fbg, ok := group.(*fakeBindGroup); ok {
		fbg.destroyed = true
	}
	d.Device.DestroyBindGroup(group)
}

func (d *recordingDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	if d.rec.failEncoder {
		return nil, errInjected
	}
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &recordingEncoder{CommandEncoder: enc, rec: d.rec}, nil
}

func (d *recordingDevice) FreeCommandBuffer(cmd hal.CommandBuffer) {
	d.rec.freedCmds++
	d.Device.FreeCommandBuffer(cmd)
}

func (d *recordingDevice) WaitIdle() error {
	d.rec.waitIdles++
	return d.Device.WaitIdle()
}

type recordingEncoder struct {
	hal.CommandEncoder
	rec *recorder
}

func (e *recordingEncoder) BeginEncoding(label string) error {
	if e.rec.failBegin {
		return errInjected
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *recordingEncoder) DiscardEncoding() {
	e.rec.discardedEncoders++
	e.CommandEncoder.DiscardEncoding()
}

func (e *recordingEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	pr := &passRecord{desc: *desc, bindGroups: map[uint32]hal.BindGroup{}}
	e.rec.passes = append(e.rec.passes, pr)
	return &recordingPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), rec: pr}
}

type recordingPass struct {
	hal.RenderPassEncoder
	rec *passRecord
}

func (p *recordingPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.rec.pipeline = pipeline
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *recordingPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.rec.bindGroups[index] = group
	p.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (p *recordingPass) SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64) {
	p.rec.vertexSlot = slot
	p.rec.vertexBuffer = buffer
	p.RenderPassEncoder.SetVertexBuffer(slot, buffer, offset)
}

func (p *recordingPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.rec.draws = append(p.rec.draws, drawCall{vertexCount, instanceCount, firstVertex, firstInstance})
	p.RenderPassEncoder.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *recordingPass) End() {
	p.rec.ended = true
	p.RenderPassEncoder.End()
}

type recordingQueue struct {
	hal.Queue
	rec *recorder
}

func (q *recordingQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	if q.rec.failWrite {
		return errInjected
	}
	q.rec.writes = append(q.rec.writes, textureWrite{
		texture: dst.Texture,
		data:    append([]byte(nil), data...),
		layout:  *layout,
		size:    *size,
	})
	return q.Queue.WriteTexture(dst, data, layout, size)
}

func (q *recordingQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	if q.rec.failSubmit {
		return 0, errInjected
	}
	q.rec.submits++
	return q.Queue.Submit(cmds)
}

func (q *recordingQueue) PollCompleted() uint64 {
	if q.rec.stalled {
		return q.rec.completed
	}
	return q.Queue.PollCompleted()
}

func (q *recordingQueue) Present(surface hal.Surface, texture hal.SurfaceTexture, damage []image.Rectangle) error {
	q.rec.presents++
	return q.Queue.Present(surface, texture, damage)
}

type recordingSurface struct {
	hal.Surface
	rec *recorder
}

func (s *recordingSurface) Configure(device hal.Device, config *hal.SurfaceConfiguration) error {
	if config.Width == 0 || config.Height == 0 {
		return hal.ErrZeroArea
	}
	s.rec.configs = append(s.rec.configs, *config)
	return s.Surface.Configure(device, config)
}

func (s *recordingSurface) Unconfigure(device hal.Device) {
	s.rec.unconfigured++
	s.Surface.Unconfigure(device)
}

func (s *recordingSurface) AcquireTexture(fence hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	if s.rec.failAcquire {
		return nil, hal.ErrSurfaceOutdated
	}
	return s.Surface.AcquireTexture(fence)
}

func (s *recordingSurface) DiscardTexture(texture hal.SurfaceTexture) {
	s.rec.discards++
	s.Surface.DiscardTexture(texture)
}

// newRecordingHAL creates a noop instance and surface wrapped by recorders.
func newRecordingHAL(t *testing.T) (*recordingInstance, *recordingSurface, *recorder) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	surface, err := instance.CreateSurface(0, 0)
	if err != nil {
		instance.Destroy()
		t.Fatalf("CreateSurface failed: %v", err)
	}
	t.Cleanup(func() {
		surface.Destroy()
		instance.Destroy()
	})
	rec := &recorder{views: make(map[uintptr]*fakeView)}
	return &recordingInstance{Instance: instance, rec: rec}, &recordingSurface{Surface: surface, rec: rec}, rec
}

// testStack is a fully wired presentation core over the recording HAL.
type testStack struct {
	rec       *recorder
	ctx       *GraphicsContext
	pipeline  *PipelineConfig
	geometry  *Geometry
	texture   *FrameTexture
	presenter *Presenter
}

// newTestStack builds every component and configures the surface at
// width x height. setup may adjust the recorder before construction.
func newTestStack(t *testing.T, width, height int, setup func(*recorder)) *testStack {
	t.Helper()
	instance, surface, rec := newRecordingHAL(t)
	if setup != nil {
		setup(rec)
	}
	ctx, err := NewGraphicsContext(instance, surface, ContextConfig{})
	if err != nil {
		t.Fatalf("NewGraphicsContext: %v", err)
	}
	t.Cleanup(ctx.Destroy)
	if err := ctx.Configure(width, height); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	pipeline, err := BuildPipeline(ctx.HalDevice(), DefaultShaderStages(), ctx.SurfaceFormat())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	t.Cleanup(pipeline.Destroy)
	geometry, err := NewGeometry(ctx.HalDevice(), ctx.HalQueue())
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	t.Cleanup(geometry.Destroy)
	texture := NewFrameTexture(ctx.HalDevice(), ctx.HalQueue(), pipeline, ctx.MaxTextureDimension())
	t.Cleanup(texture.Destroy)
	presenter := NewPresenter(ctx, pipeline, geometry, texture, gputypes.Color{A: 1})
	t.Cleanup(presenter.Destroy)
	return &testStack{
		rec:       rec,
		ctx:       ctx,
		pipeline:  pipeline,
		geometry:  geometry,
		texture:   texture,
		presenter: presenter,
	}
}

// boundTexture resolves the texture referenced by a frame bind group.
func (r *recorder) boundTexture(t *testing.T, group hal.BindGroup) *fakeTexture {
	t.Helper()
	fbg, ok := group.(*fakeBindGroup)
	if !ok {
		t.Fatalf("bind group has type %T, want *fakeBindGroup", group)
	}
	for _, e := range fbg.entries {
		if e.Binding != frameTextureBinding {
			continue
		}
		res, ok := e.Resource.(gputypes.TextureViewBinding)
		if !ok {
			t.Fatalf("binding 0 resource has type %T", e.Resource)
		}
		view := r.views[res.TextureView]
		if view == nil {
			t.Fatalf("binding 0 references unknown view %d", res.TextureView)
		}
		ft, ok := view.texture.(*fakeTexture)
		if !ok {
			t.Fatalf("view texture has type %T", view.texture)
		}
		return ft
	}
	t.Fatal("bind group has no texture binding")
	return nil
}
