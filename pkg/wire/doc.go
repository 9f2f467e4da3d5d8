// Package wire implements the length-prefixed frame codec used on worker
// command sockets.
//
// One frame carries exactly one [Envelope]: a correlation id plus an opaque
// payload. The codec reads exactly the bytes of one frame per Decode call,
// so stream reassembly on the socket is handled here and nowhere else.
//
// # Frame layout
//
//	+----------------+--------------------+------------------+
//	| length (4, BE) | correlation (8, BE) | payload (length-8) |
//	+----------------+--------------------+------------------+
//
// The length covers the correlation id and payload, not itself. A declared
// length above the codec's limit, or a connection that ends inside a frame,
// is a [FramingError] and terminates the connection.
package wire
