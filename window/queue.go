// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"sync"
	"time"
)

// frameRequest is one frame waiting for the draw callback.
type frameRequest struct {
	run  func() error
	done chan error
}

// frameQueue hands frames from the worker goroutine to the goroutine that
// owns the surface. At most one frame is in flight.
type frameQueue struct {
	requests chan frameRequest
	quit     chan struct{}
	once     sync.Once
}

func newFrameQueue() *frameQueue {
	return &frameQueue{
		requests: make(chan frameRequest),
		quit:     make(chan struct{}),
	}
}

// submit blocks until serve has run fn, and returns its error. After close
// it returns nil without running fn.
func (q *frameQueue) submit(fn func() error) error {
	req := frameRequest{run: fn, done: make(chan error, 1)}
	select {
	case q.requests <- req:
	case <-q.quit:
		return nil
	}
	select {
	case err := <-req.done:
		return err
	case <-q.quit:
		return nil
	}
}

// serve runs at most one pending frame, waiting up to wait for it, and
// reports whether one ran.
func (q *frameQueue) serve(wait time.Duration, exec func(run func() error) error) bool {
	var req frameRequest
	if wait <= 0 {
		select {
		case req = <-q.requests:
		default:
			return false
		}
	} else {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case req = <-q.requests:
		case <-timer.C:
			return false
		case <-q.quit:
			return false
		}
	}
	req.done <- exec(req.run)
	return true
}

// close releases all current and future submitters.
func (q *frameQueue) close() {
	q.once.Do(func() { close(q.quit) })
}

func (q *frameQueue) closed() bool {
	select {
	case <-q.quit:
		return true
	default:
		return false
	}
}
