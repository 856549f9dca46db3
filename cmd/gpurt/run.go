package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/gpurt"
	"github.com/gogpu/gpurt/internal/job"
)

func newRunCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "run [job.yaml]",
		Short: "run a kernel job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := job.Load(args[0])
			if err != nil {
				return err
			}
			return execute(cmd, j, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func newKernelCmd() *cobra.Command {
	var (
		entry  string
		grid   int
		bufs   []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "kernel [file.wgsl]",
		Short: "run a kernel file once",
		Long: `Run a WGSL kernel once with buffers given on the command line.

Buffers bind in flag order:
  --buf alpha:float=2          scalar
  --buf x:float[]=1,2,3        array with values
  --buf out:float[3]           zero-initialized array`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j := &job.Job{Kernel: args[0], Entry: entry}
			configs := make([]gpurt.BufferConfig, 0, len(bufs))
			for _, s := range bufs {
				c, err := parseBufferFlag(s)
				if err != nil {
					return err
				}
				configs = append(configs, c)
			}
			j.Runs = []job.Run{{Name: entry, Grid: grid, Buffers: job.FromConfigs(configs)}}
			if err := j.Validate(); err != nil {
				return err
			}
			return execute(cmd, j, asJSON)
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "main", "entry point")
	cmd.Flags().IntVar(&grid, "grid", 1, "number of threads")
	cmd.Flags().StringArrayVar(&bufs, "buf", nil, "buffer spec, repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func execute(cmd *cobra.Command, j *job.Job, asJSON bool) error {
	dev, err := gpurt.Default()
	if err != nil {
		return err
	}
	defer gpurt.CloseDefault() //nolint:errcheck // process exit follows

	results, err := j.Execute(dev)
	if asJSON {
		if jerr := printJSON(cmd.OutOrStdout(), results); jerr != nil {
			return jerr
		}
	} else {
		printResults(cmd.OutOrStdout(), results)
	}
	return err
}

// parseBufferFlag parses name:type=v, name:type[]=v,v,... or name:type[n].
func parseBufferFlag(s string) (gpurt.BufferConfig, error) {
	name, rest, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return gpurt.BufferConfig{}, fmt.Errorf("%w: buffer %q: want name:type...", gpurt.ErrInvalidArgument, s)
	}
	spec, value, hasValue := strings.Cut(rest, "=")

	typeName, dims, isArray := strings.Cut(spec, "[")
	t, err := gpurt.ParseType(typeName)
	if err != nil {
		return gpurt.BufferConfig{}, fmt.Errorf("buffer %q: %w", name, err)
	}
	if !isArray {
		if !hasValue {
			return gpurt.BufferConfig{}, fmt.Errorf("%w: scalar %q needs =value", gpurt.ErrInvalidArgument, name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return gpurt.BufferConfig{}, fmt.Errorf("%w: scalar %q: %v", gpurt.ErrInvalidArgument, name, err)
		}
		return gpurt.Scalar(name, t, v), nil
	}

	dims, ok = strings.CutSuffix(dims, "]")
	if !ok {
		return gpurt.BufferConfig{}, fmt.Errorf("%w: buffer %q: unclosed [", gpurt.ErrInvalidArgument, name)
	}
	if dims != "" {
		if hasValue {
			return gpurt.BufferConfig{}, fmt.Errorf("%w: buffer %q: give a size or values, not both", gpurt.ErrInvalidArgument, name)
		}
		n, err := strconv.Atoi(dims)
		if err != nil || n < 0 {
			return gpurt.BufferConfig{}, fmt.Errorf("%w: buffer %q: size %q", gpurt.ErrInvalidArgument, name, dims)
		}
		return gpurt.Zeros(name, t, n), nil
	}

	values := []float64{}
	if strings.TrimSpace(value) != "" {
		for _, f := range strings.Split(value, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return gpurt.BufferConfig{}, fmt.Errorf("%w: buffer %q: %v", gpurt.ErrInvalidArgument, name, err)
			}
			values = append(values, v)
		}
	}
	return gpurt.Array(name, t, values...), nil
}
