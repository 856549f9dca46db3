package gpurt

import (
	"fmt"
	"sort"
)

// registry maps handles to buffers for one Device. Handles start at 1,
// are never reused, and buffers are only released in bulk.
type registry struct {
	next    Handle
	buffers map[Handle]*Buffer
	bytes   uint64
}

func newRegistry() *registry {
	return &registry{next: 1, buffers: make(map[Handle]*Buffer)}
}

func (r *registry) add(b *Buffer) Handle {
	h := r.next
	r.next++
	r.buffers[h] = b
	r.bytes += allocationSize(b.count)
	return h
}

func (r *registry) lookup(h Handle) (*Buffer, error) {
	b, ok := r.buffers[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return b, nil
}

func (r *registry) lookupAll(hs []Handle) ([]*Buffer, error) {
	bufs := make([]*Buffer, len(hs))
	for i, h := range hs {
		b, err := r.lookup(h)
		if err != nil {
			return nil, err
		}
		bufs[i] = b
	}
	return bufs, nil
}

// releaseAll hands every buffer to free in handle order and empties the
// registry. The handle counter keeps advancing.
func (r *registry) releaseAll(free func(*Buffer)) int {
	hs := make([]Handle, 0, len(r.buffers))
	for h := range r.buffers {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	for _, h := range hs {
		free(r.buffers[h])
	}
	r.buffers = make(map[Handle]*Buffer)
	r.bytes = 0
	return len(hs)
}

// Stats describes the buffers registered on a Device.
type Stats struct {
	Buffers int
	Bytes   uint64
	// NextHandle is the handle the next allocation will receive.
	NextHandle Handle
	// Live counts device allocations not yet released, including
	// ephemeral buffers of an in-flight Run.
	Live int
	// Shaders is the number of cached WGSL translations and ShaderHits the
	// compiles that reused one. Both stay 0 without WithShaderCache.
	Shaders    int
	ShaderHits uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Buffers[%d registered, %.1f KB, next handle %d]",
		s.Buffers, float64(s.Bytes)/1024, s.NextHandle)
}

func (r *registry) stats() Stats {
	return Stats{Buffers: len(r.buffers), Bytes: r.bytes, NextHandle: r.next}
}
