package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/biwakonbu/fcode-sub005/internal/echoworker"
	"github.com/biwakonbu/fcode-sub005/pkg/log"
)

func newWorkerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run a local echo worker for testing",
		Long: `Listens on the given socket and speaks the worker side of the command
protocol: health checks get real replies, everything else is echoed back
under the same correlation id. Useful as a stand-in peer for ping and
bench. Stops on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewZerologAdapterWithLogger(a.logger)

			w := echoworker.New(a.cfg.SocketPath,
				echoworker.WithLogger(logger),
				echoworker.WithMaxFrameSize(uint32(a.cfg.MaxFrameBytes)),
			)
			if err := w.Start(); err != nil {
				return err
			}

			fmt.Printf("echo worker listening on %s\n", a.cfg.SocketPath)
			<-cmd.Context().Done()
			return w.Close()
		},
	}
}
