// Package log provides the logging abstraction shared by the channel,
// transport, and readiness packages.
//
// The Logger interface keeps the library decoupled from any particular
// logging backend. A zerolog adapter is provided for applications that want
// output, and a no-op logger for embedding and tests:
//
//	ch := channel.New(path, channel.WithLogger(log.NewZerologAdapter()))
//
// Implement the Logger interface to route channel logs into an existing
// logging setup.
package log
