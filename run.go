package gpurt

import "fmt"

// Run compiles source, dispatches entryPoint over gridSize threads with
// ephemeral buffers built from configs, and returns the contents of every
// non-scalar buffer keyed by name. configs are bound by position.
//
// Every buffer allocated by Run and the pipeline are released before it
// returns, on success and on every failure path.
func (d *Device) Run(source, entryPoint string, gridSize int, configs []BufferConfig) (map[string][]float64, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if err := ValidateConfigs(configs); err != nil {
		return nil, err
	}
	if gridSize < 0 {
		return nil, fmt.Errorf("%w: negative grid size %d", ErrInvalidArgument, gridSize)
	}

	var (
		bufs     = make([]*Buffer, 0, len(configs))
		pipeline *Pipeline
	)
	defer func() {
		for _, b := range bufs {
			d.release(b)
		}
		pipeline.Destroy()
	}()

	for _, c := range configs {
		b, err := d.materialize(c)
		if err != nil {
			return nil, fmt.Errorf("buffer %q: %w", c.Name, err)
		}
		bufs = append(bufs, b)
	}

	var err error
	if pipeline, err = d.Compile(source, entryPoint); err != nil {
		return nil, err
	}
	if err := d.dispatch(pipeline, gridSize, bufs); err != nil {
		return nil, err
	}

	results := make(map[string][]float64, len(configs))
	for i, c := range configs {
		if c.IsScalar() {
			continue
		}
		values, err := d.read(bufs[i])
		if err != nil {
			return nil, fmt.Errorf("download %q: %w", c.Name, err)
		}
		results[c.Name] = values
	}
	return results, nil
}

func (d *Device) materialize(c BufferConfig) (*Buffer, error) {
	label := d.opts.label + "_" + c.Name
	switch {
	case c.Value != nil:
		return d.allocate(label, c.Type, 1, true, encodeValues(c.Type, []float64{*c.Value}))
	case c.Size != nil:
		return d.allocate(label, c.Type, *c.Size, false, nil)
	default:
		return d.allocate(label, c.Type, len(c.Data), false, encodeValues(c.Type, c.Data))
	}
}

// RunWithHandles compiles source and dispatches entryPoint against
// registered buffers, bound by position. The pipeline is released before
// returning; the buffers stay registered.
func (d *Device) RunWithHandles(source, entryPoint string, gridSize int, handles []Handle) error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	if gridSize < 0 {
		return fmt.Errorf("%w: negative grid size %d", ErrInvalidArgument, gridSize)
	}
	bufs, err := d.buffers.lookupAll(handles)
	if err != nil {
		return err
	}
	pipeline, err := d.Compile(source, entryPoint)
	if err != nil {
		return err
	}
	defer pipeline.Destroy()
	return d.dispatch(pipeline, gridSize, bufs)
}
