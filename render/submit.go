// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpurt"
)

// frameWait is how long a frame may stay in flight before each warning.
const frameWait = 5 * time.Second

func beginEncoder(device hal.Device, label string) (hal.CommandEncoder, error) {
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	return encoder, nil
}

// submitAndWait submits the encoded commands and blocks until the GPU is
// done with them, so per-frame objects can be destroyed afterwards.
func submitAndWait(device hal.Device, queue hal.Queue, encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	idx, err := queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	warnAt := time.Now().Add(frameWait)
	for queue.PollCompleted() < idx {
		time.Sleep(time.Millisecond)
		if time.Now().After(warnAt) {
			gpurt.Logger().Warn("render: frame still in flight", "submission", idx)
			warnAt = warnAt.Add(frameWait)
		}
	}
	return nil
}
