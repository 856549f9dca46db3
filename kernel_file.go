package gpurt

import (
	"fmt"
	"os"
)

// Kernel is WGSL source paired with the compute entry point to run.
type Kernel struct {
	Source     string
	EntryPoint string
	// Path is the file the source was read from, if any.
	Path string
}

// NewKernel returns a Kernel for inline source.
func NewKernel(source, entryPoint string) *Kernel {
	return &Kernel{Source: source, EntryPoint: entryPoint}
}

// LoadKernel reads WGSL source from path.
func LoadKernel(path, entryPoint string) (*Kernel, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kernel: %w", err)
	}
	return &Kernel{Source: string(src), EntryPoint: entryPoint, Path: path}, nil
}

func deviceOrDefault(dev *Device) (*Device, error) {
	if dev != nil {
		return dev, nil
	}
	return Default()
}

// Launch runs the kernel once on dev with ephemeral buffers; see
// Device.Run. A nil dev uses the process-wide default device.
func (k *Kernel) Launch(dev *Device, gridSize int, configs []BufferConfig) (map[string][]float64, error) {
	dev, err := deviceOrDefault(dev)
	if err != nil {
		return nil, err
	}
	return dev.Run(k.Source, k.EntryPoint, gridSize, configs)
}

// LaunchHandles runs the kernel against registered buffers; see
// Device.RunWithHandles. A nil dev uses the process-wide default device.
func (k *Kernel) LaunchHandles(dev *Device, gridSize int, handles []Handle) error {
	dev, err := deviceOrDefault(dev)
	if err != nil {
		return err
	}
	return dev.RunWithHandles(k.Source, k.EntryPoint, gridSize, handles)
}

// Compile builds a reusable pipeline for the kernel on dev. Use it with
// Device.Dispatch when the same kernel runs many times.
func (k *Kernel) Compile(dev *Device) (*Pipeline, error) {
	dev, err := deviceOrDefault(dev)
	if err != nil {
		return nil, err
	}
	return dev.Compile(k.Source, k.EntryPoint)
}
