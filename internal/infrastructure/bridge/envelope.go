package bridge

import (
	"encoding/json"
	"fmt"

	"chat-agent/internal/domain/entity"
)

// EncodeEnvelope serializes an envelope for a wire transport.
func EncodeEnvelope(env entity.Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses a wire envelope and validates its shape: the type
// tag must be known and the matching payload present.
func DecodeEnvelope(data []byte) (entity.Envelope, error) {
	var env entity.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return entity.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case entity.EnvelopeCommand:
		if env.Command == nil {
			return entity.Envelope{}, fmt.Errorf("command envelope without command")
		}
	case entity.EnvelopeResponse:
		if env.Response == nil {
			return entity.Envelope{}, fmt.Errorf("response envelope without response")
		}
	default:
		return entity.Envelope{}, fmt.Errorf("unknown envelope type %q", env.Type)
	}
	return env, nil
}
