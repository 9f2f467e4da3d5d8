// Package fcode provides a command channel for talking to coding-agent
// worker processes over unix domain sockets.
//
// Example usage:
//
//	if !fcode.WaitForConnection(ctx, socketPath, 5*time.Second) {
//	    log.Fatal("worker never became reachable")
//	}
//	ch, err := fcode.Dial(ctx, socketPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ch.Close()
//	reply, err := ch.SendCommand(ctx, payload)
package fcode

import (
	"context"
	"time"

	"github.com/biwakonbu/fcode-sub005/pkg/channel"
	"github.com/biwakonbu/fcode-sub005/pkg/readiness"
)

// Channel is a multiplexed command channel bound to a single worker socket.
type Channel = channel.Channel

// MetricsSnapshot is a point-in-time copy of a channel's counters.
type MetricsSnapshot = channel.MetricsSnapshot

// State describes where a channel is in its lifecycle.
type State = channel.State

// Option configures a channel created by Dial.
type Option = channel.Option

// Dial creates a channel for the worker listening at socketPath and
// connects it. The returned channel is Ready; close it when done.
func Dial(ctx context.Context, socketPath string, opts ...Option) (*Channel, error) {
	ch := channel.New(socketPath, opts...)
	if err := ch.Start(ctx); err != nil {
		return nil, err
	}
	return ch, nil
}

// WaitForEndpoint blocks until a socket file exists at path, the context
// is cancelled, or maxWait elapses. Reports whether the endpoint exists.
func WaitForEndpoint(ctx context.Context, path string, maxWait time.Duration) bool {
	return readiness.WaitForEndpoint(ctx, path, maxWait)
}

// WaitForConnection blocks until the worker at path accepts connections,
// the context is cancelled, or maxWait elapses.
func WaitForConnection(ctx context.Context, path string, maxWait time.Duration) bool {
	return readiness.WaitForConnection(ctx, path, maxWait)
}
