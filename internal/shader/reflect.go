// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
)

// ErrUnsupportedBinding is returned for resource declarations the dispatch
// engine cannot bind: textures, samplers and groups other than 0.
var ErrUnsupportedBinding = errors.New("shader: unsupported resource binding")

// BindingKind classifies a buffer binding.
type BindingKind int

const (
	// Uniform is var<uniform>.
	Uniform BindingKind = iota
	// ReadOnlyStorage is var<storage> or var<storage, read>.
	ReadOnlyStorage
	// Storage is var<storage, read_write>.
	Storage
)

// String returns the WGSL address space spelling.
func (k BindingKind) String() string {
	switch k {
	case Uniform:
		return "uniform"
	case ReadOnlyStorage:
		return "storage, read"
	case Storage:
		return "storage, read_write"
	default:
		return fmt.Sprintf("BindingKind(%d)", int(k))
	}
}

// BufferBindingType maps the kind to its HAL layout type.
func (k BindingKind) BufferBindingType() gputypes.BufferBindingType {
	switch k {
	case Uniform:
		return gputypes.BufferBindingTypeUniform
	case ReadOnlyStorage:
		return gputypes.BufferBindingTypeReadOnlyStorage
	default:
		return gputypes.BufferBindingTypeStorage
	}
}

// Binding is one buffer declared in bind group 0.
type Binding struct {
	Binding uint32
	Name    string
	Kind    BindingKind
}

// EntryPoint is a @compute function.
type EntryPoint struct {
	Name string
	// WorkgroupSize is @workgroup_size as lowered by naga, constant
	// expressions included. Omitted dimensions are 1.
	WorkgroupSize [3]uint32
}

// Threads returns the number of invocations in one workgroup.
func (e EntryPoint) Threads() int {
	return int(e.WorkgroupSize[0]) * int(e.WorkgroupSize[1]) * int(e.WorkgroupSize[2])
}

// Interface is the compute interface of a WGSL module.
type Interface struct {
	EntryPoints []EntryPoint
	// Bindings are sorted by binding index.
	Bindings []Binding
}

// EntryPoint looks up a compute entry point by name.
func (in *Interface) EntryPoint(name string) (EntryPoint, bool) {
	for _, e := range in.EntryPoints {
		if e.Name == name {
			return e, true
		}
	}
	return EntryPoint{}, false
}

// RequiredBuffers returns how many positional buffers a dispatch must
// supply: one past the highest declared binding index.
func (in *Interface) RequiredBuffers() int {
	if len(in.Bindings) == 0 {
		return 0
	}
	return int(in.Bindings[len(in.Bindings)-1].Binding) + 1
}

// LayoutEntries returns the bind group layout entries for group 0.
func (in *Interface) LayoutEntries(visibility gputypes.ShaderStages) []gputypes.BindGroupLayoutEntry {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, len(in.Bindings))
	for _, b := range in.Bindings {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    b.Binding,
			Visibility: visibility,
			Buffer:     &gputypes.BufferBindingLayout{Type: b.Kind.BufferBindingType()},
		})
	}
	return entries
}

// Reflect derives the compute interface from a lowered module: every
// @compute entry point with the workgroup size naga resolved for it, and
// every buffer declared in group 0.
func Reflect(m *ir.Module) (*Interface, error) {
	in := &Interface{}
	for _, ep := range m.EntryPoints {
		if ep.Stage != ir.StageCompute {
			continue
		}
		size := ep.Workgroup
		for i := range size {
			if size[i] == 0 {
				size[i] = 1
			}
		}
		in.EntryPoints = append(in.EntryPoints, EntryPoint{Name: ep.Name, WorkgroupSize: size})
	}

	seen := make(map[uint32]string)
	for _, gv := range m.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		if gv.Binding.Group != 0 {
			return nil, fmt.Errorf("%w: %s declared in @group(%d)", ErrUnsupportedBinding, gv.Name, gv.Binding.Group)
		}
		kind, err := bindingKind(gv)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", gv.Name, err)
		}
		idx := gv.Binding.Binding
		if prev, dup := seen[idx]; dup {
			return nil, fmt.Errorf("%w: %s and %s share @binding(%d)", ErrUnsupportedBinding, prev, gv.Name, idx)
		}
		seen[idx] = gv.Name
		in.Bindings = append(in.Bindings, Binding{Binding: idx, Name: gv.Name, Kind: kind})
	}
	sort.Slice(in.Bindings, func(i, j int) bool { return in.Bindings[i].Binding < in.Bindings[j].Binding })
	return in, nil
}

func bindingKind(gv ir.GlobalVariable) (BindingKind, error) {
	switch gv.Space {
	case ir.SpaceUniform:
		return Uniform, nil
	case ir.SpaceStorage:
		if gv.Access == ir.StorageRead {
			return ReadOnlyStorage, nil
		}
		return Storage, nil
	case ir.SpaceHandle:
		return 0, fmt.Errorf("%w: texture or sampler", ErrUnsupportedBinding)
	}
	return 0, fmt.Errorf("%w: address space %d", ErrUnsupportedBinding, gv.Space)
}
