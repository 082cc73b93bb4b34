//go:build !nogpu

package gpu

import (
	"context"
	_ "embed"
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sdfscene"
)

//go:embed shaders/probe.wgsl
var probeShaderSource string

// DefaultProbeHits caps how many entries one Query returns when the
// caller passes maxHits <= 0.
const DefaultProbeHits = 64

// probeParams matches the Params struct in probe.wgsl.
type probeParams struct {
	PosX     float32
	PosY     float32
	MetaBase uint32
	MaxHits  uint32
}

// Probe runs the grid-lookup compute shader against uploaded scene
// buffers. It resolves which entries cover a scene-space point the same
// way a renderer's shader would: clamp the point to a grid cell, walk
// that cell's entry run, rebase primitive offsets onto the data section.
//
// A Probe holds a compiled pipeline and can serve many queries. Create
// once per device, Close when done.
type Probe struct {
	dev        *Device
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

// NewProbe compiles the lookup shader and builds its compute pipeline.
func NewProbe(dev *Device) (*Probe, error) {
	p := &Probe{dev: dev}

	spirv, err := compileWGSL(probeShaderSource)
	if err != nil {
		p.Close()
		return nil, err
	}
	shader, err := dev.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "probe",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("gpu: create probe shader: %w", err)
	}
	p.shader = shader

	bindLayout, err := dev.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "probe_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("gpu: create probe bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := dev.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "probe_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("gpu: create probe pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := dev.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "probe_pipeline", Layout: p.pipeLayout,
		Compute: hal.ComputeState{Module: p.shader, EntryPoint: "main"},
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("gpu: create probe pipeline: %w", err)
	}
	p.pipeline = pipeline

	return p, nil
}

// Close destroys the pipeline. Safe on a partially constructed Probe.
func (p *Probe) Close() {
	if p.dev == nil || p.dev.device == nil {
		return
	}
	if p.pipeline != nil {
		p.dev.device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.dev.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.dev.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.dev.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// Query flushes the uploader and returns the entries covering the
// scene-space point (x, y). slot is the metadata slot index from
// Builder.MetadataSlot. Glyph entries keep their tag bit (test with
// sdfscene.IsGlyphEntry); the rest are absolute word offsets of
// primitive records in the storage buffer. maxHits <= 0 means
// DefaultProbeHits. The fence wait is bounded by the context deadline,
// or 5s without one.
func (p *Probe) Query(ctx context.Context, up *Uploader, slot uint32, x, y float32, maxHits int) ([]uint32, error) {
	if maxHits <= 0 {
		maxHits = DefaultProbeHits
	}
	if err := up.Flush(ctx); err != nil {
		return nil, err
	}
	storageBuf, metaBuf, storageSize, metaSize := up.buffers()
	if storageBuf == nil || metaBuf == nil {
		return nil, fmt.Errorf("gpu: query before first upload")
	}
	dev := p.dev

	params := probeParams{
		PosX:     x,
		PosY:     y,
		MetaBase: slot * sdfscene.MetadataSize / 4,
		MaxHits:  uint32(maxHits), //nolint:gosec // clamped positive above
	}
	paramsSize := uint64(unsafe.Sizeof(params))
	paramsBuf, err := dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "probe_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create params buffer: %w", err)
	}
	defer dev.device.DestroyBuffer(paramsBuf)

	hitsSize := uint64(4 * (1 + maxHits))
	hitsBuf, err := dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "probe_hits", Size: hitsSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create hits buffer: %w", err)
	}
	defer dev.device.DestroyBuffer(hitsBuf)

	stagingBuf, err := dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "probe_staging", Size: hitsSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer dev.device.DestroyBuffer(stagingBuf)

	dev.queue.WriteBuffer(paramsBuf, 0, structToBytes(unsafe.Pointer(&params), unsafe.Sizeof(params))) //nolint:gosec // safe struct access
	dev.queue.WriteBuffer(hitsBuf, 0, make([]byte, hitsSize))

	bg, err := dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "probe_bind", Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: storageBuf.NativeHandle(), Offset: 0, Size: storageSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: metaBuf.NativeHandle(), Offset: 0, Size: metaSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: hitsBuf.NativeHandle(), Offset: 0, Size: hitsSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create probe bind group: %w", err)
	}
	defer dev.device.DestroyBindGroup(bg)

	if err := p.dispatch(bg, hitsBuf, stagingBuf, hitsSize, uint32(maxHits), waitBudget(ctx)); err != nil { //nolint:gosec // clamped positive above
		return nil, err
	}

	readback := make([]byte, hitsSize)
	if err := dev.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("gpu: readback: %w", err)
	}
	count := binary.LittleEndian.Uint32(readback)
	if count > uint32(maxHits) { //nolint:gosec // clamped positive above
		count = uint32(maxHits) //nolint:gosec // clamped positive above
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(readback[4+4*i:])
	}
	return out, nil
}

// dispatch encodes one compute pass plus the staging copy, submits, and
// waits for the fence.
func (p *Probe) dispatch(bg hal.BindGroup, hitsBuf, stagingBuf hal.Buffer, hitsSize uint64, maxHits uint32, wait time.Duration) error {
	dev := p.dev
	encoder, err := dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "probe_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("probe"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	computePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "probe_pass"})
	computePass.SetPipeline(p.pipeline)
	computePass.SetBindGroup(0, bg, nil)
	computePass.Dispatch((maxHits+63)/64, 1, 1)
	computePass.End()

	encoder.CopyBufferToBuffer(hitsBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: hitsSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer dev.device.FreeCommandBuffer(cmdBuf)

	fence, err := dev.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer dev.device.DestroyFence(fence)
	if err := dev.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	fenceOK, err := dev.device.Wait(fence, 1, wait)
	if err != nil {
		return fmt.Errorf("gpu: wait for probe: %w", err)
	}
	if !fenceOK {
		return fmt.Errorf("gpu: wait for probe: fence timeout after %s", wait)
	}
	return nil
}
