package bridge

import (
	"context"
	"fmt"

	"chat-agent/internal/domain/entity"
)

// localTransport dispatches envelopes to executors living in this process.
// It is the default when no remote transport is configured; the interaction
// stays message-shaped even though no serialization happens.
type localTransport struct {
	router *Router
}

func (t *localTransport) RoundTrip(ctx context.Context, contextID string, env entity.Envelope) (entity.Envelope, error) {
	if env.Type != entity.EnvelopeCommand || env.Command == nil {
		return entity.Envelope{}, fmt.Errorf("not a command envelope: %q", env.Type)
	}

	s, ok := t.router.Session(contextID)
	if !ok {
		return entity.Envelope{}, fmt.Errorf("no session for context %q", contextID)
	}
	agent := s.Agent()
	if agent == nil {
		return entity.Envelope{}, fmt.Errorf("no executor loaded in context %q", contextID)
	}

	resp := agent.Execute(ctx, *env.Command)
	return entity.ResponseEnvelope(resp), nil
}
