package echoworker

import (
	"bufio"
	"bytes"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/biwakonbu/fcode-sub005/pkg/healthcheck"
	"github.com/biwakonbu/fcode-sub005/pkg/wire"
)

func startWorker(t *testing.T) *Worker {
	t.Helper()
	w := New(filepath.Join(t.TempDir(), "worker.sock"))
	if err := w.Start(); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func roundTrip(t *testing.T, conn net.Conn, br *bufio.Reader, env wire.Envelope) wire.Envelope {
	t.Helper()
	codec := wire.NewCodec(0)
	buf, err := codec.Encode(env)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply, err := codec.Decode(br)
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return reply
}

func TestEchoesOpaquePayloads(t *testing.T) {
	w := startWorker(t)
	conn, err := net.Dial("unix", w.Path())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	want := []byte(`{"type":"send_keys","keys":"ls\n"}`)
	reply := roundTrip(t, conn, br, wire.Envelope{ID: 3, Payload: want})
	if reply.ID != 3 || !bytes.Equal(reply.Payload, want) {
		t.Fatalf("echo mismatch: id=%d payload=%q", reply.ID, reply.Payload)
	}
}

func TestAnswersHealthChecks(t *testing.T) {
	w := startWorker(t)
	conn, err := net.Dial("unix", w.Path())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	br := bufio.NewReader(conn)

	probe, err := healthcheck.EncodeRequest("tok-echo")
	if err != nil {
		t.Fatalf("encode probe: %v", err)
	}
	reply := roundTrip(t, conn, br, wire.Envelope{ID: 8, Payload: probe})

	resp, err := healthcheck.DecodeResponse(reply.Payload)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Matches("tok-echo") {
		t.Fatalf("token mismatch: %+v", resp)
	}
	if resp.PID != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), resp.PID)
	}
}

func TestServesConcurrentConnections(t *testing.T) {
	w := startWorker(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := net.Dial("unix", w.Path())
			if err != nil {
				t.Errorf("dial %d: %v", i, err)
				return
			}
			defer conn.Close()
			br := bufio.NewReader(conn)
			for j := 0; j < 20; j++ {
				payload := []byte{byte(i), byte(j)}
				reply := roundTrip(t, conn, br, wire.Envelope{ID: uint64(j), Payload: payload})
				if !bytes.Equal(reply.Payload, payload) {
					t.Errorf("conn %d frame %d mismatch", i, j)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")

	// Simulate a crashed worker: leave the socket file behind with nothing
	// accepting on it.
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ln.SetUnlinkOnClose(false)
	ln.Close()
	if _, err := net.Dial("unix", path); err == nil {
		t.Fatal("stale socket should not accept connections")
	}

	second := New(path)
	if err := second.Start(); err != nil {
		t.Fatalf("start over stale socket: %v", err)
	}
	defer second.Close()

	if _, err := net.Dial("unix", path); err != nil {
		t.Fatalf("dial after stale replacement: %v", err)
	}
}

func TestRefusesRegularFileAtPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notasocket")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := New(path).Start(); err == nil {
		t.Fatal("expected error when a regular file occupies the socket path")
	}
}
