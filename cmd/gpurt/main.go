// Command gpurt compiles and runs WGSL compute kernels from the shell and
// hosts the SPH particle demo.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/gpurt"
	"github.com/gogpu/gpurt/internal/config"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

var (
	configFile string
	backend    string
	adapter    string
	logLevel   string

	// cfg is resolved before every command runs.
	cfg *config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "gpurt",
		Short:             "GPU compute runtime",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", config.DefaultBackend, "GPU backend: vulkan or noop")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "adapter name substring")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newRunCmd(),
		newKernelCmd(),
		newDevicesCmd(),
		newSPHCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "print version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "gpurt %s\n", version)
			},
		},
	)
	return rootCmd
}

// setup loads the config file, applies explicit flags over it and
// installs the logger and default device options.
func setup(cmd *cobra.Command, _ []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("backend") || configFile == "" {
		cfg.Backend = backend
	}
	if flags.Changed("adapter") {
		cfg.Adapter = adapter
	}
	if flags.Changed("log-level") || configFile == "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	gpurt.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	gpurt.SetDefaultOptions(cfg.DeviceOptions()...)
	return nil
}
