// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package window presents particle frames in a native window backed by a
// gogpu App.
//
// The App owns the main goroutine; the simulation runs on a worker started
// by Run and hands each frame to the App's draw callback:
//
//	w := window.New(window.Config{Title: "particles", Width: 800, Height: 800})
//	err := window.Run(w, func(w *window.Window) error {
//	    r, err := render.New(w)
//	    if err != nil {
//	        return err
//	    }
//	    defer r.Close()
//	    for r.Poll() {
//	        // step, then r.DrawHandles(...)
//	    }
//	    return nil
//	})
//
// Space pauses and resumes; see Paused. Closing the window makes every
// later draw a no-op and Poll return false.
package window
