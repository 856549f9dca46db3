package gpurt

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpurt/internal/shader"
)

// Pipeline is a compiled compute kernel bound to one Device. Pipelines are
// not cached: every Compile builds a new one, and the owner must Destroy it.
// WithShaderCache only skips the WGSL translation step.
type Pipeline struct {
	label string
	entry shader.EntryPoint
	iface *shader.Interface
	res   shader.Resources
}

// EntryPoint returns the compute function the pipeline runs.
func (p *Pipeline) EntryPoint() string { return p.entry.Name }

// MaxThreadsPerGroup is the number of invocations in one workgroup, the
// product of the @workgroup_size dimensions as naga resolved them.
func (p *Pipeline) MaxThreadsPerGroup() int {
	if n := p.entry.Threads(); n > 0 {
		return n
	}
	return 1
}

// ThreadGroupWidth is the thread-group width used for a grid of gridSize
// threads: min(MaxThreadsPerGroup, gridSize). It never exceeds either.
func (p *Pipeline) ThreadGroupWidth(gridSize int) int {
	return min(p.MaxThreadsPerGroup(), max(gridSize, 0))
}

// Bindings returns the number of positional buffers a dispatch must supply.
func (p *Pipeline) Bindings() int { return p.iface.RequiredBuffers() }

// Destroy releases the pipeline objects. Safe to call more than once.
func (p *Pipeline) Destroy() {
	if p == nil {
		return
	}
	p.res.Destroy()
}

// Compile compiles WGSL source and builds a compute pipeline for
// entryPoint.
//
// Errors:
//   - *CompileError (matches ErrCompile) when the compiler rejects the source
//   - ErrEntryPointNotFound when entryPoint is not a @compute function
//   - ErrPipelineCreation when the backend rejects the module or layouts
func (d *Device) Compile(source, entryPoint string) (*Pipeline, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	mod, err := d.shaders.Translate(source)
	if err != nil {
		var ce *shader.CompilerError
		if errors.As(err, &ce) {
			return nil, &CompileError{EntryPoint: entryPoint, Diagnostic: ce.Error()}
		}
		return nil, fmt.Errorf("%w: %w", ErrPipelineCreation, err)
	}
	words, iface := mod.Words, mod.Iface
	entry, ok := iface.EntryPoint(entryPoint)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntryPointNotFound, entryPoint)
	}

	label := d.opts.label + "_" + entryPoint
	p := &Pipeline{label: label, entry: entry, iface: iface}
	p.res.Device = d.device

	if p.res.Module, err = shader.CreateModule(d.device, label, words); err != nil {
		return nil, fmt.Errorf("%w: shader module: %w", ErrPipelineCreation, err)
	}
	if err := d.buildPipeline(p); err != nil {
		p.Destroy()
		return nil, err
	}
	Logger().Debug("gpurt: kernel compiled",
		"entry", entryPoint, "workgroup", entry.WorkgroupSize, "bindings", len(iface.Bindings))
	return p, nil
}

func (d *Device) buildPipeline(p *Pipeline) error {
	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   p.label + "_bind_layout",
		Entries: p.iface.LayoutEntries(gputypes.ShaderStageCompute),
	})
	if err != nil {
		return fmt.Errorf("%w: bind group layout: %w", ErrPipelineCreation, err)
	}
	p.res.BindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: p.label + "_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("%w: pipeline layout: %w", ErrPipelineCreation, err)
	}
	p.res.PipelineLayout = pipeLayout

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: p.label + "_pipeline", Layout: pipeLayout,
		Compute: hal.ComputeState{Module: p.res.Module, EntryPoint: p.entry.Name},
	})
	if err != nil {
		return fmt.Errorf("%w: compute pipeline: %w", ErrPipelineCreation, err)
	}
	p.res.Pipeline = pipeline
	return nil
}
