// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpurt"
	"github.com/gogpu/gpurt/internal/shader"
)

//go:embed shaders/particles.wgsl
var particlesShaderSource string

// paramsSize is the std140 size of the Params uniform.
const paramsSize = 48

// particleBindings is the number of bindings: params then the four
// component arrays.
const particleBindings = 5

// particlePipeline holds the render pipeline and its uniform buffer.
type particlePipeline struct {
	device   hal.Device
	module   hal.ShaderModule
	layout   hal.BindGroupLayout
	pipeLay  hal.PipelineLayout
	pipeline hal.RenderPipeline
	params   hal.Buffer
}

func newParticlePipeline(device hal.Device, format gputypes.TextureFormat) (*particlePipeline, error) {
	words, err := shader.CompileSPIRV(particlesShaderSource)
	if err != nil {
		return nil, fmt.Errorf("%w: particle shader: %v", gpurt.ErrCompile, err)
	}
	p := &particlePipeline{device: device}

	p.module, err = shader.CreateModule(device, "particles_shader", words)
	if err != nil {
		return nil, fmt.Errorf("create particle shader module: %w", err)
	}

	entries := make([]gputypes.BindGroupLayoutEntry, particleBindings)
	entries[0] = gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
	for i := 1; i < particleBindings; i++ {
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i), //nolint:gosec // G115: small constant
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
		}
	}
	p.layout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "particles_bind_layout",
		Entries: entries,
	})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("create particle bind group layout: %w", err)
	}

	p.pipeLay, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "particles_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("create particle pipeline layout: %w", err)
	}

	blend := gputypes.BlendStatePremultiplied()
	p.pipeline, err = device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "particles_pipeline",
		Layout: p.pipeLay,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("create particle pipeline: %w", err)
	}

	p.params, err = device.CreateBuffer(&hal.BufferDescriptor{
		Label: "particles_params",
		Size:  paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		p.destroy()
		return nil, fmt.Errorf("create particle params buffer: %w", err)
	}
	return p, nil
}

// encodeParams packs the Params uniform.
func encodeParams(o *options, width, height uint32) []byte {
	buf := make([]byte, paramsSize)
	put := func(i int, v float32) {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	put(0, float32(width))
	put(1, float32(height))
	put(2, o.pointSize)
	put(3, o.maxSpeed)
	for i := 0; i < 4; i++ {
		put(4+i, o.slow[i])
		put(8+i, o.fast[i])
	}
	return buf
}

// particleSource is one component array bound to the pipeline.
type particleSource struct {
	buf  hal.Buffer
	size uint64
}

// draw encodes one frame: clear to background, then n instanced quads.
func (p *particlePipeline) draw(queue hal.Queue, view hal.TextureView, o *options, width, height uint32, srcs [4]particleSource, n int) error {
	if err := queue.WriteBuffer(p.params, 0, encodeParams(o, width, height)); err != nil {
		return fmt.Errorf("write particle params: %w", err)
	}

	var bindGroup hal.BindGroup
	if n > 0 {
		entries := make([]gputypes.BindGroupEntry, 0, particleBindings)
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  0,
			Resource: gputypes.BufferBinding{Buffer: p.params.NativeHandle(), Offset: 0, Size: paramsSize},
		})
		for i, s := range srcs {
			entries = append(entries, gputypes.BindGroupEntry{
				Binding:  uint32(i + 1), //nolint:gosec // G115: small constant
				Resource: gputypes.BufferBinding{Buffer: s.buf.NativeHandle(), Offset: 0, Size: s.size},
			})
		}
		var err error
		bindGroup, err = p.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   "particles_bind_group",
			Layout:  p.layout,
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("create particle bind group: %w", err)
		}
		defer p.device.DestroyBindGroup(bindGroup)
	}

	encoder, err := beginEncoder(p.device, "particles_frame")
	if err != nil {
		return err
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "particles_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: o.background,
		}},
	})
	if n > 0 {
		rp.SetPipeline(p.pipeline)
		rp.SetBindGroup(0, bindGroup, nil)
		rp.Draw(6, uint32(n), 0, 0) //nolint:gosec // G115: n is positive
	}
	rp.End()
	return submitAndWait(p.device, queue, encoder)
}

func (p *particlePipeline) destroy() {
	if p == nil || p.device == nil {
		return
	}
	if p.params != nil {
		p.device.DestroyBuffer(p.params)
		p.params = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLay != nil {
		p.device.DestroyPipelineLayout(p.pipeLay)
		p.pipeLay = nil
	}
	if p.layout != nil {
		p.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
	if p.module != nil {
		p.device.DestroyShaderModule(p.module)
		p.module = nil
	}
}
