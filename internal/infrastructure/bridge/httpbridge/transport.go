package httpbridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"
	"chat-agent/internal/infrastructure/bridge"
)

var _ output.Transport = (*Transport)(nil)

// Transport forwards envelopes to a bridge Server over HTTP. The router's
// timeout already bounds the round trip; the HTTP client timeout is only a
// safety net for a vanished server.
type Transport struct {
	baseURL string
	client  *http.Client
}

func NewTransport(baseURL string) *Transport {
	return &Transport{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *Transport) RoundTrip(ctx context.Context, contextID string, env entity.Envelope) (entity.Envelope, error) {
	data, err := bridge.EncodeEnvelope(env)
	if err != nil {
		return entity.Envelope{}, err
	}

	url := fmt.Sprintf("%s/bridge/%s", t.baseURL, contextID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return entity.Envelope{}, fmt.Errorf("build bridge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return entity.Envelope{}, fmt.Errorf("bridge unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return entity.Envelope{}, fmt.Errorf("read bridge response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return entity.Envelope{}, fmt.Errorf("bridge HTTP %d: %s", resp.StatusCode, string(body))
	}

	return bridge.DecodeEnvelope(body)
}
