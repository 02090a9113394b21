package bridge

import (
	"context"
	"sync"
	"time"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"

	"github.com/google/uuid"
)

const DefaultTimeout = 30 * time.Second

type RouterConfig struct {
	// Factory constructs the page-embedded executor for a context on first
	// use. May be nil when a remote Transport hosts the executors itself.
	Factory output.AgentFactory

	// Transport overrides in-process dispatch, e.g. with the HTTP bridge.
	Transport output.Transport

	// Timeout bounds every command round trip. Zero means DefaultTimeout.
	Timeout time.Duration

	Logger output.LoggerPort
}

// Router lives on the privileged side of the bridge. It has no DOM access:
// it resolves the target page context, forwards commands over the transport,
// correlates responses by id, and owns session lifecycle.
type Router struct {
	mu       sync.Mutex
	sessions map[string]*Session
	active   string

	factory   output.AgentFactory
	transport output.Transport
	timeout   time.Duration
	logger    output.LoggerPort
}

func NewRouter(cfg RouterConfig) *Router {
	r := &Router{
		sessions:  make(map[string]*Session),
		factory:   cfg.Factory,
		transport: cfg.Transport,
		timeout:   cfg.Timeout,
		logger:    cfg.Logger,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.transport == nil {
		r.transport = &localTransport{router: r}
	}
	return r
}

// Focus marks a context as the most recently focused one. Commands with no
// explicit target go there, resolved at dispatch time.
func (r *Router) Focus(contextID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = contextID
}

// Session returns the session handle for a context, if one exists.
func (r *Router) Session(contextID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[contextID]
	return s, ok
}

// Send forwards one command to the target context and returns its response.
// Every failure mode settles as a failed Response; Send never hangs past the
// configured timeout and never panics across the bridge. An empty target
// resolves to the focused context at dispatch time.
func (r *Router) Send(ctx context.Context, target string, cmd entity.Command) entity.Response {
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}

	if target == "" {
		r.mu.Lock()
		target = r.active
		r.mu.Unlock()
	}
	if target == "" {
		return entity.Failure(cmd.ID, "context unavailable: no focused page context")
	}

	s := r.session(target)
	if err := s.ensureLaunched(ctx, r.factory); err != nil {
		return entity.Failure(cmd.ID, err.Error())
	}

	reply, err := s.addPending(cmd.ID)
	if err != nil {
		return entity.Failure(cmd.ID, err.Error())
	}
	defer s.removePending(cmd.ID)

	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	go r.dispatch(tctx, s, target, cmd)

	select {
	case resp := <-reply:
		return resp
	case <-s.done:
		return entity.Failure(cmd.ID, "session closed")
	case <-tctx.Done():
		if ctx.Err() != nil {
			return entity.Failure(cmd.ID, "canceled")
		}
		return entity.Failure(cmd.ID, "timeout")
	}
}

// dispatch performs the transport round trip and resolves the pending
// command. Correlation is by id only; a reply for a different id is dropped.
func (r *Router) dispatch(ctx context.Context, s *Session, target string, cmd entity.Command) {
	env, err := r.transport.RoundTrip(ctx, target, entity.CommandEnvelope(cmd))
	if err != nil {
		s.resolve(entity.Failure(cmd.ID, "context unavailable: "+err.Error()))
		return
	}

	if env.Type != entity.EnvelopeResponse || env.Response == nil {
		s.resolve(entity.Failure(cmd.ID, "malformed bridge envelope"))
		return
	}
	resp := *env.Response
	if resp.ID != cmd.ID {
		if r.logger != nil {
			r.logger.Warn("Dropping uncorrelated bridge response", "expected", cmd.ID, "got", resp.ID)
		}
		s.resolve(entity.Failure(cmd.ID, "response correlation mismatch"))
		return
	}
	if !resp.Success && resp.Error == "" {
		resp.Error = "unknown error"
	}
	if !s.resolve(resp) && r.logger != nil {
		r.logger.Debug("Late bridge response dropped", "command", cmd.ID)
	}
}

// Close tears down one context's session. In-flight commands settle with a
// failure immediately; later commands to this context fail fast.
func (r *Router) Close(contextID string) error {
	r.mu.Lock()
	s, ok := r.sessions[contextID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if r.logger != nil {
		r.logger.Info("Closing automation session", "context", contextID)
	}
	return s.close()
}

// CloseAll tears down every session. Used on shutdown.
func (r *Router) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		if err := s.close(); err != nil && r.logger != nil {
			r.logger.Warn("Session close failed", "context", s.ContextID(), "error", err)
		}
	}
}

func (r *Router) session(contextID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[contextID]
	if !ok {
		s = newSession(contextID)
		r.sessions[contextID] = s
	}
	return s
}
