package gpurt

import (
	"errors"
	"fmt"
)

// Errors returned by gpurt. Callers match them with errors.Is; most are
// wrapped with call-site context.
var (
	// ErrNoDeviceFound is returned when no compatible GPU adapter can be opened.
	ErrNoDeviceFound = errors.New("gpurt: no compatible GPU device found")

	// ErrCompile is matched by every *CompileError.
	ErrCompile = errors.New("gpurt: kernel compilation failed")

	// ErrEntryPointNotFound is returned when the requested compute entry point
	// is not declared in the kernel source.
	ErrEntryPointNotFound = errors.New("gpurt: entry point not found")

	// ErrPipelineCreation is returned when the backend rejects a shader
	// module, layout or compute pipeline.
	ErrPipelineCreation = errors.New("gpurt: pipeline creation failed")

	// ErrInvalidArgument is returned for malformed buffer configs, negative
	// sizes or grid sizes, and unknown element types.
	ErrInvalidArgument = errors.New("gpurt: invalid argument")

	// ErrUnknownHandle is returned when a handle is not registered on the device.
	ErrUnknownHandle = errors.New("gpurt: unknown buffer handle")

	// ErrNotScalar is returned when a scalar operation targets an array buffer.
	ErrNotScalar = errors.New("gpurt: buffer is not a scalar")

	// ErrNotArray is returned when an array operation targets a scalar buffer.
	ErrNotArray = errors.New("gpurt: buffer is not an array")

	// ErrSizeMismatch is returned when element counts disagree.
	ErrSizeMismatch = errors.New("gpurt: size mismatch")

	// ErrCrossDevice is returned when a renderer draws handles that belong to
	// a device other than the one it is attached to.
	ErrCrossDevice = errors.New("gpurt: buffers belong to a different device")

	// ErrScalarBuffer is returned when a renderer is given a scalar buffer
	// where a per-particle array is required.
	ErrScalarBuffer = errors.New("gpurt: scalar buffer cannot be drawn")

	// ErrDeviceClosed is returned by operations on a closed device.
	ErrDeviceClosed = errors.New("gpurt: device closed")

	// ErrDispatch is returned when command submission or the completion wait fails.
	ErrDispatch = errors.New("gpurt: dispatch failed")
)

// CompileError carries the compiler diagnostic for rejected kernel source.
type CompileError struct {
	EntryPoint string
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpurt: compile %q: %s", e.EntryPoint, e.Diagnostic)
}

// Is reports whether target is ErrCompile.
func (e *CompileError) Is(target error) bool { return target == ErrCompile }
