package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/biwakonbu/fcode-sub005/pkg/channel"
	"github.com/biwakonbu/fcode-sub005/pkg/log"
	"github.com/biwakonbu/fcode-sub005/pkg/readiness"
)

const healthCheckTimeout = 5 * time.Second

func newPingCmd(a *app) *cobra.Command {
	var token string
	var retries int

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Health-check a worker over its command socket",
		Long: `Waits for the worker socket to accept connections, opens a channel, and
round-trips a health check. Reports the worker unreachable if the socket
does not become connectable within the ready timeout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.NewZerologAdapterWithLogger(a.logger)

			waiter := readiness.NewWaiter(
				readiness.WithPollInterval(a.cfg.PollInterval),
				readiness.WithLogger(logger),
			)
			if !waiter.WaitForConnection(ctx, a.cfg.SocketPath, a.cfg.ReadyTimeout) {
				return fmt.Errorf("worker unreachable: %s did not accept connections within %s",
					a.cfg.SocketPath, a.cfg.ReadyTimeout)
			}

			if token == "" {
				token = uuid.NewString()
			}

			backoff := channel.NewBackoff(200*time.Millisecond, 2*time.Second)
			var lastErr error
			for attempt := 0; attempt <= retries; attempt++ {
				latency, err := pingOnce(ctx, a, logger, token)
				if err == nil {
					fmt.Printf("worker healthy: socket=%s latency=%s\n", a.cfg.SocketPath, latency)
					return nil
				}
				lastErr = err
				a.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("health check failed")
				if attempt < retries {
					if err := backoff.Sleep(ctx); err != nil {
						return err
					}
				}
			}
			return fmt.Errorf("health check failed after %d attempts: %w", retries+1, lastErr)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "probe token (random if empty)")
	cmd.Flags().IntVar(&retries, "retry", 2, "additional attempts after a failed health check")
	return cmd
}

// pingOnce opens a fresh channel for one probe. A faulted channel cannot be
// reused, so every retry reconnects.
func pingOnce(ctx context.Context, a *app, logger log.Logger, token string) (time.Duration, error) {
	ch := channel.New(a.cfg.SocketPath,
		channel.WithLogger(logger),
		channel.WithAdmissionLimit(a.cfg.AdmissionLimit),
		channel.WithMaxFrameSize(uint32(a.cfg.MaxFrameBytes)),
		channel.WithDialTimeout(a.cfg.DialTimeout),
	)
	if err := ch.Start(ctx); err != nil {
		return 0, err
	}
	defer ch.Close()

	probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	return ch.HealthCheck(probeCtx, token)
}
