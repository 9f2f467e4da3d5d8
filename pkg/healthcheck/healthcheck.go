// Package healthcheck defines the one command payload the channel layer
// understands: a liveness probe echoed by the worker. Every other payload
// shape belongs to the orchestration layer and passes through the channel
// opaquely.
package healthcheck

import (
	"encoding/json"
	"fmt"
	"time"
)

// RequestType tags a health check request payload.
const RequestType = "health_check"

// Request is the probe sent to a worker.
type Request struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Response is the worker's reply. The token must match the request; the
// remaining fields are informational.
type Response struct {
	Type     string `json:"type"`
	Token    string `json:"token"`
	PID      int    `json:"pid,omitempty"`
	UptimeMs int64  `json:"uptime_ms,omitempty"`
}

// EncodeRequest serializes a probe carrying token.
func EncodeRequest(token string) ([]byte, error) {
	return json.Marshal(Request{Type: RequestType, Token: token})
}

// DecodeRequest parses a probe payload.
// Returns an error if the payload is not a health check request.
func DecodeRequest(payload []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return Request{}, fmt.Errorf("healthcheck: decode request: %w", err)
	}
	if req.Type != RequestType {
		return Request{}, fmt.Errorf("healthcheck: unexpected payload type %q", req.Type)
	}
	return req, nil
}

// IsRequest reports whether payload looks like a health check request.
// Used by workers to pick probes out of otherwise opaque traffic.
func IsRequest(payload []byte) bool {
	_, err := DecodeRequest(payload)
	return err == nil
}

// EncodeResponse serializes a reply to a probe.
func EncodeResponse(token string, pid int, uptime time.Duration) ([]byte, error) {
	return json.Marshal(Response{
		Type:     RequestType,
		Token:    token,
		PID:      pid,
		UptimeMs: uptime.Milliseconds(),
	})
}

// DecodeResponse parses a probe reply.
func DecodeResponse(payload []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Response{}, fmt.Errorf("healthcheck: decode response: %w", err)
	}
	if resp.Type != RequestType {
		return Response{}, fmt.Errorf("healthcheck: unexpected payload type %q", resp.Type)
	}
	return resp, nil
}

// Matches reports whether the reply echoes the probe token.
func (r Response) Matches(token string) bool {
	return r.Token == token
}
