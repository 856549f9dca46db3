// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package window

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpurt"
	"github.com/gogpu/gpurt/render"
)

// ErrClosed is returned by OpenDevice when the window closed before the GPU
// context became available.
var ErrClosed = errors.New("window: closed")

// frameWait is how long a draw callback waits for the worker's next frame.
const frameWait = 16 * time.Millisecond

// Config describes the window.
type Config struct {
	Title  string
	Width  int
	Height int
}

func (c Config) withDefaults() Config {
	if c.Title == "" {
		c.Title = "gpurt"
	}
	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 800
	}
	return c
}

// Window is a render.Target backed by a gogpu App.
type Window struct {
	app    *gogpu.App
	frames *frameQueue

	ready     chan struct{}
	readyOnce sync.Once
	provider  gpucontext.DeviceProvider

	// dc is the draw context while a frame runs; App goroutine only.
	dc *gogpu.Context

	width, height atomic.Int32
	paused        atomic.Bool
	anim          *gogpu.AnimationToken
}

// New creates the window's App and registers its callbacks. The window
// appears when Run is called.
func New(cfg Config) *Window {
	cfg = cfg.withDefaults()
	w := &Window{
		app: gogpu.NewApp(gogpu.DefaultConfig().
			WithTitle(cfg.Title).
			WithSize(cfg.Width, cfg.Height).
			WithContinuousRender(false)),
		frames: newFrameQueue(),
		ready:  make(chan struct{}),
	}
	w.width.Store(int32(cfg.Width))   //nolint:gosec // G115: window sizes fit in int32
	w.height.Store(int32(cfg.Height)) //nolint:gosec // G115: window sizes fit in int32

	w.app.OnDraw(w.onDraw)
	w.app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if key != gpucontext.KeySpace {
			return
		}
		paused := !w.paused.Load()
		w.paused.Store(paused)
		gpurt.Logger().Info("window: pause toggled", "paused", paused)
	})
	w.app.OnClose(func() {
		if w.anim != nil {
			w.anim.Stop()
			w.anim = nil
		}
		w.frames.close()
	})
	return w
}

func (w *Window) onDraw(dc *gogpu.Context) {
	if w.provider == nil {
		provider := w.app.GPUContextProvider()
		if provider == nil {
			return
		}
		w.provider = provider
		// Render at VSync while the animation token is held.
		w.anim = w.app.StartAnimation()
		gpurt.Logger().Debug("window: GPU context ready", "backend", dc.Backend())
		w.readyOnce.Do(func() { close(w.ready) })
	}
	w.width.Store(int32(dc.Width()))   //nolint:gosec // G115: window sizes fit in int32
	w.height.Store(int32(dc.Height())) //nolint:gosec // G115: window sizes fit in int32

	w.frames.serve(frameWait, func(run func() error) error {
		w.dc = dc
		defer func() { w.dc = nil }()
		return run()
	})
}

// Run shows the window and runs fn on a separate goroutine. It must be
// called from the main goroutine and returns when the window closes and fn
// has returned. The window is closed when fn returns.
func Run(w *Window, fn func(*Window) error) error {
	done := make(chan error, 1)
	go func() {
		err := fn(w)
		w.frames.close()
		w.app.Quit()
		done <- err
	}()
	runErr := w.app.Run()
	w.frames.close()
	return errors.Join(runErr, <-done)
}

// Paused reports whether the user paused the animation with Space.
func (w *Window) Paused() bool { return w.paused.Load() }

// Close asks the App to quit. Pending and later draws become no-ops.
func (w *Window) Close() {
	w.frames.close()
	w.app.Quit()
}

// OpenDevice waits for the App's GPU context and wraps its device. The
// returned device shares the App's HAL device and does not destroy it.
func (w *Window) OpenDevice(opts ...gpurt.DeviceOption) (*gpurt.Device, error) {
	select {
	case <-w.ready:
	case <-w.frames.quit:
		return nil, ErrClosed
	}
	return gpurt.NewSharedDevice(w.provider, opts...)
}

// Bind checks that device is the App's device; a window surface can only
// be drawn from the device that created it.
func (w *Window) Bind(device hal.Device, _ hal.Queue) error {
	select {
	case <-w.ready:
	default:
		return fmt.Errorf("%w: window GPU context not ready", gpurt.ErrInvalidArgument)
	}
	hp, ok := w.provider.(interface{ HalDevice() any })
	if !ok {
		return fmt.Errorf("%w: provider does not expose a HAL device", gpurt.ErrInvalidArgument)
	}
	if d, _ := hp.HalDevice().(hal.Device); d != device {
		return fmt.Errorf("%w: window belongs to another device", gpurt.ErrCrossDevice)
	}
	return nil
}

// Format returns the surface format.
func (w *Window) Format() gputypes.TextureFormat {
	select {
	case <-w.ready:
		return w.provider.SurfaceFormat()
	default:
		return gputypes.TextureFormatBGRA8Unorm
	}
}

// Size returns the last known surface size.
func (w *Window) Size() (int, int) {
	return int(w.width.Load()), int(w.height.Load())
}

// Present hands draw to the App's next draw callback and waits for it.
func (w *Window) Present(draw render.DrawFunc) error {
	return w.frames.submit(func() error {
		return w.drawSurface(draw)
	})
}

// drawSurface runs on the App goroutine inside the draw callback.
func (w *Window) drawSurface(draw render.DrawFunc) error {
	dc := w.dc
	if dc == nil {
		return nil
	}
	var sv any = dc.SurfaceView()
	view, ok := sv.(hal.TextureView)
	if !ok || view == nil {
		return nil
	}
	sw, sh := dc.SurfaceSize()
	return draw(view, uint32(sw), uint32(sh)) //nolint:gosec // G115: surface sizes are positive
}

// Poll reports whether the window is open. Events are processed by the
// App's loop, so there is nothing to drain here.
func (w *Window) Poll() bool { return !w.frames.closed() }

// Closed reports whether the window has closed.
func (w *Window) Closed() bool { return w.frames.closed() }

// Release is a no-op: the surface belongs to the App.
func (w *Window) Release() {}

var _ render.Target = (*Window)(nil)
