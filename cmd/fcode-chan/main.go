package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/biwakonbu/fcode-sub005/internal/cliconfig"
)

const helpDescription = `
Probe and exercise fcode worker command sockets.

fcode workers expose a unix socket speaking a length-prefixed command
protocol. This tool waits for a worker to become reachable, health-checks
it, drives sustained load against it, or stands in for one with a local
echo worker.

Configuration precedence: flags > FCODE_* environment > config file
(default ~/.fcode/channel.toml) > defaults.
`

var exampleUsage = strings.TrimSpace(`
  fcode-chan ping --socket /run/fcode/dev.sock
  fcode-chan bench --socket /run/fcode/dev.sock --rate 10000 --duration 5s
  fcode-chan worker --socket /tmp/echo.sock
`)

// app carries the resolved configuration into subcommands.
type app struct {
	cfg    cliconfig.Config
	logger zerolog.Logger
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	a := &app{}

	root := &cobra.Command{
		Use:          "fcode-chan",
		Short:        "Probe and exercise fcode worker command sockets",
		Long:         strings.TrimSpace(helpDescription),
		Example:      exampleUsage,
		Version:      fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Build the set of explicitly set flags so file and env values
			// never override them.
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}
			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = cfg.Logger()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&cfg.SocketPath, "socket", cfg.SocketPath, "path to the worker command socket")
	root.PersistentFlags().IntVar(&cfg.AdmissionLimit, "admission-limit", cfg.AdmissionLimit, "max in-flight commands before backpressure")
	root.PersistentFlags().IntVar(&cfg.MaxFrameBytes, "max-frame-bytes", cfg.MaxFrameBytes, "max frame size in bytes")
	root.PersistentFlags().DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "timeout for one connect attempt")
	root.PersistentFlags().DurationVar(&cfg.ReadyTimeout, "ready-timeout", cfg.ReadyTimeout, "how long to wait for the worker socket")
	root.PersistentFlags().DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "readiness probe interval")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newPingCmd(a))
	root.AddCommand(newBenchCmd(a))
	root.AddCommand(newWorkerCmd(a))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
