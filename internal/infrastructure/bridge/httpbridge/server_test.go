package httpbridge

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"
	"chat-agent/internal/infrastructure/bridge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoExecutor struct {
	contextID string
}

func (e *echoExecutor) Execute(ctx context.Context, cmd entity.Command) entity.Response {
	return entity.Success(cmd.ID, fmt.Sprintf("%s:%s", e.contextID, cmd.Action))
}

func (e *echoExecutor) Close() error { return nil }

type echoFactory struct {
	mu       sync.Mutex
	launches map[string]int
}

func (f *echoFactory) NewAgent(ctx context.Context, contextID string) (output.CommandExecutor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.launches == nil {
		f.launches = make(map[string]int)
	}
	f.launches[contextID]++
	return &echoExecutor{contextID: contextID}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *echoFactory) {
	t.Helper()
	factory := &echoFactory{}
	server := NewServer(factory)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(server.Close)
	return ts, factory
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCommandRoundTripOverHTTP(t *testing.T) {
	ts, factory := newTestServer(t)
	transport := NewTransport(ts.URL)

	cmd := entity.Command{ID: "c-1", Action: entity.ActionSnapshot}
	env, err := transport.RoundTrip(context.Background(), "tab-7", entity.CommandEnvelope(cmd))
	require.NoError(t, err)

	require.Equal(t, entity.EnvelopeResponse, env.Type)
	require.NotNil(t, env.Response)
	assert.Equal(t, "c-1", env.Response.ID)
	assert.True(t, env.Response.Success)
	assert.Equal(t, "tab-7:snapshot", env.Response.Data)

	// second command to the same context reuses the executor
	_, err = transport.RoundTrip(context.Background(), "tab-7", entity.CommandEnvelope(entity.Command{ID: "c-2", Action: entity.ActionClick}))
	require.NoError(t, err)
	assert.Equal(t, 1, factory.launches["tab-7"])
}

func TestRouterOverHTTPBridge(t *testing.T) {
	ts, _ := newTestServer(t)

	router := bridge.NewRouter(bridge.RouterConfig{
		Transport: NewTransport(ts.URL),
		Timeout:   2 * time.Second,
	})

	resp := router.Send(context.Background(), "tab-9", entity.Command{Action: entity.ActionGetText, Selector: "#x"})

	assert.True(t, resp.Success, resp.Error)
	assert.Equal(t, "tab-9:get_text", resp.Data)
}

func TestServerRejectsMalformedEnvelope(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/bridge/tab-1", "application/json", bytes.NewBufferString(`{"type":"bridge:gossip"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerRejectsResponseEnvelope(t *testing.T) {
	ts, _ := newTestServer(t)

	data, err := bridge.EncodeEnvelope(entity.ResponseEnvelope(entity.Success("x", nil)))
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/bridge/tab-1", "application/json", bytes.NewBuffer(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransportUnreachableServer(t *testing.T) {
	transport := NewTransport("http://127.0.0.1:1")

	_, err := transport.RoundTrip(context.Background(), "tab-1", entity.CommandEnvelope(entity.Command{ID: "c", Action: entity.ActionSnapshot}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridge unreachable")
}
