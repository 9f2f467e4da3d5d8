package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// prefixSize is the width of the length prefix preceding each frame.
	prefixSize = 4

	// correlationSize is the width of the correlation id inside each frame.
	correlationSize = 8

	// DefaultMaxFrameSize bounds the declared frame length (correlation id
	// plus payload). Frames claiming more are rejected before any payload
	// bytes are read.
	DefaultMaxFrameSize = 1 << 20 // 1MB
)

// Envelope is one correlated unit on the wire: an opaque payload tagged with
// the id that pairs a command with its eventual response.
type Envelope struct {
	// ID is the correlation id, echoed verbatim by the peer.
	ID uint64

	// Payload is the serialized command or response body.
	Payload []byte
}

// FramingError reports a malformed or oversized frame. It is fatal to the
// connection that produced it.
type FramingError struct {
	Reason string
	Err    error
}

// Error returns a human-readable description of the framing violation.
func (e *FramingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wire: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("wire: %s", e.Reason)
}

// Unwrap returns the underlying I/O error, if any.
func (e *FramingError) Unwrap() error { return e.Err }

// IsFramingError reports whether err is (or wraps) a FramingError.
func IsFramingError(err error) bool {
	var fe *FramingError
	return errors.As(err, &fe)
}

// Codec encodes and decodes envelopes as length-prefixed frames.
//
// Frame layout: a 4-byte big-endian length covering everything after the
// prefix, an 8-byte big-endian correlation id, then the payload bytes.
type Codec struct {
	// MaxFrameSize bounds the declared frame length. Zero means
	// DefaultMaxFrameSize.
	MaxFrameSize uint32
}

// NewCodec creates a codec with the given frame size limit.
// A limit of 0 uses DefaultMaxFrameSize.
func NewCodec(maxFrameSize uint32) Codec {
	return Codec{MaxFrameSize: maxFrameSize}
}

func (c Codec) limit() uint32 {
	if c.MaxFrameSize == 0 {
		return DefaultMaxFrameSize
	}
	return c.MaxFrameSize
}

// Encode serializes env into a single buffer containing the length prefix,
// correlation id, and payload, ready for one Write call.
// Returns a FramingError if the payload exceeds the frame size limit.
func (c Codec) Encode(env Envelope) ([]byte, error) {
	length := uint64(correlationSize) + uint64(len(env.Payload))
	if length > uint64(c.limit()) {
		return nil, &FramingError{
			Reason: fmt.Sprintf("payload of %d bytes exceeds frame limit of %d", len(env.Payload), c.limit()),
		}
	}

	buf := make([]byte, prefixSize+length)
	binary.BigEndian.PutUint32(buf[0:prefixSize], uint32(length))
	binary.BigEndian.PutUint64(buf[prefixSize:prefixSize+correlationSize], env.ID)
	copy(buf[prefixSize+correlationSize:], env.Payload)
	return buf, nil
}

// Decode reads exactly one envelope from r.
//
// It returns io.EOF only on a clean close, i.e. when the connection ends on
// a frame boundary. A connection that ends mid-prefix or mid-frame, or a
// frame whose declared length violates the limit, yields a FramingError.
func (c Codec) Decode(r io.Reader) (Envelope, error) {
	var prefix [prefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return Envelope{}, io.EOF
		}
		return Envelope{}, &FramingError{Reason: "connection closed mid-prefix", Err: err}
	}

	length := binary.BigEndian.Uint32(prefix[:])
	if length < correlationSize {
		return Envelope{}, &FramingError{
			Reason: fmt.Sprintf("declared length %d is below the %d-byte frame header", length, correlationSize),
		}
	}
	if length > c.limit() {
		return Envelope{}, &FramingError{
			Reason: fmt.Sprintf("declared length %d exceeds frame limit of %d", length, c.limit()),
		}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Envelope{}, &FramingError{Reason: "connection closed mid-frame", Err: err}
	}

	return Envelope{
		ID:      binary.BigEndian.Uint64(body[:correlationSize]),
		Payload: body[correlationSize:],
	}, nil
}
