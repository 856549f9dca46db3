// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"github.com/gogpu/wgpu/hal"
)

// CompileSPIRV compiles WGSL source to SPIR-V words.
// The returned error is naga's diagnostic, unwrapped.
func CompileSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, err
	}
	return Words(spirvBytes), nil
}

// Lower parses and lowers WGSL source to naga IR and validates it.
func Lower(wgslSource string) (*ir.Module, error) {
	ast, err := naga.Parse(wgslSource)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, wgslSource)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	problems, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("validation failed: %w", &problems[0])
	}
	return module, nil
}

// Generate emits SPIR-V words for a module returned by Lower.
func Generate(module *ir.Module) ([]uint32, error) {
	spirvBytes, err := naga.GenerateSPIRV(module, spirv.Options{
		Version: naga.DefaultOptions().SPIRVVersion,
	})
	if err != nil {
		return nil, err
	}
	return Words(spirvBytes), nil
}

// Words converts little-endian SPIR-V bytes to 32-bit words.
// Trailing bytes that do not form a full word are dropped.
func Words(spirvBytes []byte) []uint32 {
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words
}

// CreateModule creates a HAL shader module from SPIR-V words.
func CreateModule(device hal.Device, label string, words []uint32) (hal.ShaderModule, error) {
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label: label,
		Source: hal.ShaderSource{
			SPIRV: words,
		},
	})
}

// Resources groups the objects that make up a compute pipeline so they can
// be released together.
type Resources struct {
	Device         hal.Device
	Module         hal.ShaderModule
	BindLayout     hal.BindGroupLayout
	PipelineLayout hal.PipelineLayout
	Pipeline       hal.ComputePipeline
}

// Destroy releases the pipeline objects in reverse creation order.
// It is safe to call on a partially built set and more than once.
func (r *Resources) Destroy() {
	if r.Device == nil {
		return
	}
	if r.Pipeline != nil {
		r.Device.DestroyComputePipeline(r.Pipeline)
		r.Pipeline = nil
	}
	if r.PipelineLayout != nil {
		r.Device.DestroyPipelineLayout(r.PipelineLayout)
		r.PipelineLayout = nil
	}
	if r.BindLayout != nil {
		r.Device.DestroyBindGroupLayout(r.BindLayout)
		r.BindLayout = nil
	}
	if r.Module != nil {
		r.Device.DestroyShaderModule(r.Module)
		r.Module = nil
	}
}
