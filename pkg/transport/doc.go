// Package transport owns the byte-level connection to one worker process.
//
// [UnixTransport] frames envelopes onto a unix domain socket using the wire
// codec and feeds decoded envelopes to the channel layer through a buffered
// stream. It is deliberately dumb: no correlation, no retries, no state
// beyond the connection itself. When anything goes wrong the connection is
// closed and the error surfaces through [Transport.Err]; the channel layer
// decides what that means for in-flight commands.
package transport
