package healthcheck

import (
	"testing"
	"time"
)

func TestRequestRoundTrip(t *testing.T) {
	payload, err := EncodeRequest("tok-1")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	req, err := DecodeRequest(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Token != "tok-1" {
		t.Fatalf("expected token tok-1, got %q", req.Token)
	}
	if !IsRequest(payload) {
		t.Fatal("IsRequest should accept an encoded request")
	}
}

func TestIsRequestRejectsOtherPayloads(t *testing.T) {
	for _, payload := range [][]byte{
		nil,
		[]byte("not json"),
		[]byte(`{"type":"resize_pane","cols":80}`),
	} {
		if IsRequest(payload) {
			t.Fatalf("IsRequest accepted %q", payload)
		}
	}
}

func TestResponseRoundTripAndMatch(t *testing.T) {
	payload, err := EncodeResponse("tok-2", 4321, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	resp, err := DecodeResponse(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Matches("tok-2") {
		t.Fatal("response should match its own token")
	}
	if resp.Matches("other") {
		t.Fatal("response should not match a different token")
	}
	if resp.PID != 4321 || resp.UptimeMs != 1500 {
		t.Fatalf("unexpected response fields: %+v", resp)
	}
}
