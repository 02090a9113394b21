package output

import (
	"context"

	"chat-agent/internal/domain/entity"
)

// Transport carries one envelope to a page context and returns the reply
// envelope. Implementations are the only legal interaction between the host
// side and a page context; there is no shared memory across the boundary.
type Transport interface {
	RoundTrip(ctx context.Context, contextID string, env entity.Envelope) (entity.Envelope, error)
}

// CommandExecutor is the page-embedded side of the bridge: it executes one
// command against the live document and never lets an internal error escape
// unformatted.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd entity.Command) entity.Response
	Close() error
}

// AgentFactory constructs the executor for a page context. The host router
// calls it lazily on the first command routed to that context.
type AgentFactory interface {
	NewAgent(ctx context.Context, contextID string) (CommandExecutor, error)
}
