package main

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/gogpu/gpurt"
	"github.com/gogpu/gpurt/internal/config"
	"github.com/gogpu/gpurt/internal/sph"
	"github.com/gogpu/gpurt/render"
	"github.com/gogpu/gpurt/window"
)

func newSPHCmd() *cobra.Command {
	var (
		steps      int
		printEvery int
		headless   bool
		pngPath    string
	)
	cmd := &cobra.Command{
		Use:   "sph",
		Short: "run the SPH dam break demo",
		Long: `Run a 2D SPH dam break on the GPU and draw it straight from the
simulation buffers. Press Space in the window to pause.

With --headless the frames go to an offscreen texture; --png saves the
last one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := cfg.SPH
			if cmd.Flags().Changed("steps") {
				sc.Steps = steps
			}
			if cmd.Flags().Changed("print-every") {
				sc.PrintEvery = printEvery
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if headless {
				return runHeadless(ctx, cmd.OutOrStdout(), sc, pngPath)
			}
			return runWindowed(ctx, cmd.OutOrStdout(), sc)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", sph.DefaultSteps, "number of time steps")
	cmd.Flags().IntVar(&printEvery, "print-every", sph.DefaultPrintEvery, "steps between summaries")
	cmd.Flags().BoolVar(&headless, "headless", false, "render offscreen instead of in a window")
	cmd.Flags().StringVar(&pngPath, "png", "", "save the last frame as PNG (headless only)")
	return cmd
}

func renderOptions(sc config.SPHConfig) []render.Option {
	return []render.Option{render.WithPointSize(sc.PointSize), render.WithMaxSpeed(sc.MaxSpeed)}
}

func runWindowed(ctx context.Context, out io.Writer, sc config.SPHConfig) error {
	w := window.New(window.Config{Title: "gpurt: SPH dam break", Width: sc.Width, Height: sc.Height})
	return window.Run(w, func(w *window.Window) error {
		r, err := render.New(w, append(renderOptions(sc), render.WithDeviceOptions(cfg.DeviceOptions()...))...)
		if err != nil {
			return err
		}
		defer r.Close()
		return simulate(ctx, out, r, sc, w.Paused)
	})
}

func runHeadless(ctx context.Context, out io.Writer, sc config.SPHConfig, pngPath string) error {
	dev, err := gpurt.Default()
	if err != nil {
		return err
	}
	defer gpurt.CloseDefault() //nolint:errcheck // process exit follows

	target := render.NewOffscreenTarget(sc.Width, sc.Height)
	r, err := render.Attach(dev, target, renderOptions(sc)...)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := simulate(ctx, out, r, sc, nil); err != nil {
		return err
	}
	if pngPath == "" {
		return nil
	}
	img, err := target.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	fmt.Fprintln(out, dimStyle.Render("saved "+pngPath))
	return f.Close()
}

// simulate runs the dam break on the renderer's device and prints the
// summaries, the final particle layout and the history plot.
func simulate(ctx context.Context, out io.Writer, r *render.Renderer, sc config.SPHConfig, paused func() bool) error {
	dev := r.Device()
	sim, err := sph.New(dev, sph.DamBreak(sc.Spacing))
	if err != nil {
		return err
	}
	defer sim.Close()

	start, err := sim.Summary()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("SPH dam break: %d particles, %d steps", sim.Len(), sc.Steps)))
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("initial center of mass: x=%.4f, y=%.4f", start.CenterX, start.CenterY)))

	history, err := sim.Run(ctx, sph.RunConfig{
		Steps:      sc.Steps,
		PrintEvery: sc.PrintEvery,
		Open:       r.Poll,
		Paused:     paused,
		Draw: func(s *sph.Sim) error {
			px, py, vx, vy := s.Handles()
			return r.DrawHandles(dev, px, py, vx, vy)
		},
		Report: func(s sph.Summary) { fmt.Fprintln(out, valueStyle.Render(s.String())) },
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	st, serr := sim.State()
	if serr != nil {
		return serr
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("particles (domain [0,1] x [0,1])"))
	fmt.Fprint(out, sph.Scatter(st.PosX, st.PosY, 60, 30))
	if plot := sph.Plot(history); plot != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, plot)
	}
	return nil
}
