// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sph

import (
	"context"
	"time"

	"github.com/gogpu/gpurt"
)

// Defaults for RunConfig.
const (
	DefaultSteps      = 10000
	DefaultPrintEvery = 200
)

// pausePoll is how often a paused headless loop rechecks Paused.
const pausePoll = 10 * time.Millisecond

// RunConfig drives Sim.Run. Every hook is optional.
type RunConfig struct {
	Steps      int
	PrintEvery int

	// Open reports whether to keep going, for example a window's Poll.
	Open func() bool
	// Paused holds the simulation while still drawing frames.
	Paused func() bool
	// Draw is called after every step, and every frame while paused.
	Draw func(*Sim) error
	// Report receives each summary as it is computed.
	Report func(Summary)
}

func (c RunConfig) withDefaults() RunConfig {
	if c.Steps <= 0 {
		c.Steps = DefaultSteps
	}
	if c.PrintEvery <= 0 {
		c.PrintEvery = DefaultPrintEvery
	}
	return c
}

// Run steps the simulation until cfg.Steps have run, Open reports false or
// ctx is done, and returns the summaries taken every PrintEvery steps.
func (s *Sim) Run(ctx context.Context, cfg RunConfig) ([]Summary, error) {
	cfg = cfg.withDefaults()
	var history []Summary
	for s.steps < cfg.Steps {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		if cfg.Open != nil && !cfg.Open() {
			gpurt.Logger().Info("sph: target closed, stopping", "step", s.steps)
			break
		}
		if cfg.Paused != nil && cfg.Paused() {
			if cfg.Draw == nil {
				time.Sleep(pausePoll)
				continue
			}
			if err := cfg.Draw(s); err != nil {
				return history, err
			}
			continue
		}

		if err := s.Step(); err != nil {
			return history, err
		}
		if cfg.Draw != nil {
			if err := cfg.Draw(s); err != nil {
				return history, err
			}
		}
		if s.steps%cfg.PrintEvery == 0 {
			sum, err := s.Summary()
			if err != nil {
				return history, err
			}
			history = append(history, sum)
			if cfg.Report != nil {
				cfg.Report(sum)
			}
		}
	}
	return history, nil
}
