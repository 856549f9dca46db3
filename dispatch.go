package gpurt

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// MaxWorkgroupsPerDimension is the largest workgroup count a single
// dispatch may request in x.
const MaxWorkgroupsPerDimension = 65535

func (d *Device) beginEncoder(label string) (hal.CommandEncoder, error) {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return encoder, nil
}

// submit finishes encoding, submits the commands and blocks until the queue
// reports the submission complete. The wait has no deadline: each interval
// that passes without completion is logged and the wait resumes.
func (d *Device) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("%w: end encoding: %w", ErrDispatch, err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	idx, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("%w: submit: %w", ErrDispatch, err)
	}
	waitCompleted(d.queue, idx, d.opts.waitInterval, func(elapsed time.Duration) {
		Logger().Warn("gpurt: still waiting for GPU", "elapsed", elapsed)
	})
	return nil
}

// pollBackoff bounds the sleep between two completion polls.
const pollBackoff = 2 * time.Millisecond

// waitCompleted polls q until submission idx has completed. stalled is
// called once per interval spent waiting.
func waitCompleted(q hal.Queue, idx uint64, interval time.Duration, stalled func(time.Duration)) {
	start := time.Now()
	next := interval
	sleep := 50 * time.Microsecond
	for q.PollCompleted() < idx {
		time.Sleep(sleep)
		if sleep < pollBackoff {
			sleep *= 2
		}
		if elapsed := time.Since(start); interval > 0 && elapsed >= next {
			stalled(elapsed)
			next += interval
		}
	}
}

// workgroups returns the workgroup count covering grid threads with
// groups of width threads.
func workgroups(grid, width int) int {
	if grid <= 0 || width <= 0 {
		return 0
	}
	return (grid + width - 1) / width
}

// Dispatch runs p over a 1-D grid of gridSize threads with the registered
// buffers bound by position: handles[i] is bound to @binding(i) of group 0.
// It blocks until the GPU has finished.
func (d *Device) Dispatch(p *Pipeline, gridSize int, handles []Handle) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	bufs, err := d.buffers.lookupAll(handles)
	if err != nil {
		return err
	}
	return d.dispatch(p, gridSize, bufs)
}

func (d *Device) dispatch(p *Pipeline, grid int, bufs []*Buffer) error {
	if grid < 0 {
		return fmt.Errorf("%w: negative grid size %d", ErrInvalidArgument, grid)
	}
	if p == nil || p.res.Pipeline == nil {
		return fmt.Errorf("%w: pipeline is nil or destroyed", ErrInvalidArgument)
	}
	if p.res.Device != d.device {
		return fmt.Errorf("%w: pipeline was compiled on another device", ErrCrossDevice)
	}
	if need := p.iface.RequiredBuffers(); len(bufs) < need {
		return fmt.Errorf("%w: kernel %s binds %d buffers, got %d", ErrInvalidArgument, p.entry.Name, need, len(bufs))
	}

	width := p.ThreadGroupWidth(grid)
	groups := workgroups(grid, p.MaxThreadsPerGroup())
	if groups > MaxWorkgroupsPerDimension {
		return fmt.Errorf("%w: grid %d needs %d workgroups, limit %d",
			ErrInvalidArgument, grid, groups, MaxWorkgroupsPerDimension)
	}

	entries := make([]gputypes.BindGroupEntry, 0, len(p.iface.Bindings))
	for _, b := range p.iface.Bindings {
		buf := bufs[b.Binding]
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: b.Binding,
			Resource: gputypes.BufferBinding{
				Buffer: buf.raw.NativeHandle(),
				Offset: 0,
				Size:   buf.bindSize(),
			},
		})
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.label + "_bind",
		Layout:  p.res.BindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("%w: create bind group: %w", ErrDispatch, err)
	}
	defer d.device.DestroyBindGroup(bg)

	encoder, err := d.beginEncoder(p.label + "_dispatch")
	if err != nil {
		return err
	}
	if groups > 0 {
		cp := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: p.label + "_pass"})
		cp.SetPipeline(p.res.Pipeline)
		cp.SetBindGroup(0, bg, nil)
		cp.Dispatch(uint32(groups), 1, 1) //nolint:gosec // G115: bounded by MaxWorkgroupsPerDimension
		cp.End()
	}

	Logger().Debug("gpurt: dispatch",
		"kernel", p.entry.Name, "grid", grid, "width", width, "workgroups", groups, "buffers", len(bufs))
	return d.submit(encoder)
}
