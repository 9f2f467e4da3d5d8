package transport

import (
	"context"

	"github.com/biwakonbu/fcode-sub005/pkg/wire"
)

// Transport moves envelopes over one bidirectional connection.
//
// A Transport holds no business state: correlation, admission control, and
// metrics all live above it. Any I/O error or framing violation is terminal
// for the connection; recovery means dialing a new Transport.
type Transport interface {
	// Send writes env as exactly one frame. Callers must not interleave
	// concurrent Sends; the channel layer enforces the single-writer
	// discipline.
	Send(env wire.Envelope) error

	// ReceiveLoop reads frames until the connection fails, the peer closes,
	// or ctx is done, delivering each envelope in arrival order on
	// Envelopes. It closes Envelopes before returning and is not
	// restartable.
	ReceiveLoop(ctx context.Context)

	// Envelopes returns the stream of received envelopes. The channel is
	// closed when the receive loop terminates; Err reports why.
	Envelopes() <-chan wire.Envelope

	// Err returns the terminal receive error once Envelopes is closed.
	// io.EOF means the peer closed cleanly on a frame boundary.
	Err() error

	// Close tears down the connection, unblocking the receive loop.
	// Idempotent.
	Close() error
}
