package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{},
		[]byte("x"),
		[]byte(`{"type":"health_check","token":"abc"}`),
		bytes.Repeat([]byte{0xAB}, 64*1024),
	}

	codec := NewCodec(0)
	for _, payload := range payloads {
		env := Envelope{ID: 42, Payload: payload}
		buf, err := codec.Encode(env)
		if err != nil {
			t.Fatalf("encode %d bytes: %v", len(payload), err)
		}

		got, err := codec.Decode(bytes.NewReader(buf))
		if err != nil {
			t.Fatalf("decode %d bytes: %v", len(payload), err)
		}
		if got.ID != env.ID {
			t.Fatalf("expected id %d, got %d", env.ID, got.ID)
		}
		if !bytes.Equal(got.Payload, payload) {
			t.Fatalf("payload mismatch for %d bytes", len(payload))
		}
	}
}

func TestDecodeMultipleFramesFromOneStream(t *testing.T) {
	codec := NewCodec(0)
	var stream bytes.Buffer
	for id := uint64(1); id <= 3; id++ {
		buf, err := codec.Encode(Envelope{ID: id, Payload: []byte{byte(id)}})
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		stream.Write(buf)
	}

	for id := uint64(1); id <= 3; id++ {
		env, err := codec.Decode(&stream)
		if err != nil {
			t.Fatalf("decode frame %d: %v", id, err)
		}
		if env.ID != id || len(env.Payload) != 1 || env.Payload[0] != byte(id) {
			t.Fatalf("frame %d decoded as id=%d payload=%v", id, env.ID, env.Payload)
		}
	}

	if _, err := codec.Decode(&stream); err != io.EOF {
		t.Fatalf("expected io.EOF at stream end, got %v", err)
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	codec := NewCodec(64)
	_, err := codec.Encode(Envelope{ID: 1, Payload: bytes.Repeat([]byte{1}, 100)})
	if !IsFramingError(err) {
		t.Fatalf("expected FramingError, got %v", err)
	}
}

func TestDecodeRejectsOversizedDeclaredLength(t *testing.T) {
	codec := NewCodec(64)
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(1<<30))
	buf.WriteString(strings.Repeat("x", 32))

	_, err := codec.Decode(&buf)
	if !IsFramingError(err) {
		t.Fatalf("expected FramingError for oversized declared length, got %v", err)
	}
}

func TestDecodeRejectsShortDeclaredLength(t *testing.T) {
	// A frame shorter than the correlation id cannot be valid.
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(4))
	buf.Write([]byte{0, 0, 0, 0})

	_, err := NewCodec(0).Decode(&buf)
	if !IsFramingError(err) {
		t.Fatalf("expected FramingError for short declared length, got %v", err)
	}
}

func TestDecodeTruncatedFrame(t *testing.T) {
	codec := NewCodec(0)
	full, err := codec.Encode(Envelope{ID: 7, Payload: []byte("truncate me")})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Cut the stream mid-prefix and mid-frame; both are framing violations,
	// not clean EOF.
	for _, cut := range []int{2, 6, len(full) - 3} {
		_, err := codec.Decode(bytes.NewReader(full[:cut]))
		if !IsFramingError(err) {
			t.Fatalf("cut at %d: expected FramingError, got %v", cut, err)
		}
	}
}

func TestDecodeCleanEOF(t *testing.T) {
	_, err := NewCodec(0).Decode(bytes.NewReader(nil))
	if err != io.EOF {
		t.Fatalf("expected io.EOF on empty stream, got %v", err)
	}
}

func BenchmarkEncodeDecode(b *testing.B) {
	codec := NewCodec(0)
	payload := bytes.Repeat([]byte{0x5A}, 256)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf, err := codec.Encode(Envelope{ID: uint64(i), Payload: payload})
		if err != nil {
			b.Fatal(err)
		}
		if _, err := codec.Decode(bytes.NewReader(buf)); err != nil {
			b.Fatal(err)
		}
	}
}
