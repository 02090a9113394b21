package bridge

import (
	"testing"

	"chat-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	cmd := entity.Command{
		ID:       "cmd-1",
		Action:   entity.ActionFill,
		Selector: "@ref:3",
		Text:     "hello",
	}

	data, err := EncodeEnvelope(entity.CommandEnvelope(cmd))
	require.NoError(t, err)

	env, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, entity.EnvelopeCommand, env.Type)
	require.NotNil(t, env.Command)
	assert.Equal(t, cmd, *env.Command)
}

func TestDecodeEnvelopeRejectsUnknownType(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"type":"bridge:gossip"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown envelope type")
}

func TestDecodeEnvelopeRejectsMissingPayload(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"type":"bridge:command"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without command")

	_, err = DecodeEnvelope([]byte(`{"type":"bridge:response"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without response")
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{not json`))
	assert.Error(t, err)
}

func TestFailureSubstitutesEmptyError(t *testing.T) {
	resp := entity.Failure("cmd-9", "")
	assert.False(t, resp.Success)
	assert.Equal(t, "unknown error", resp.Error)
}
