package bridge

import (
	"context"
	"fmt"
	"sync"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"
)

// SessionState is the lifecycle of one automation session:
// UNINITIALIZED → LAUNCHING → READY → CLOSING → CLOSED.
type SessionState string

const (
	StateUninitialized SessionState = "uninitialized"
	StateLaunching     SessionState = "launching"
	StateReady         SessionState = "ready"
	StateClosing       SessionState = "closing"
	StateClosed        SessionState = "closed"
)

// Session binds one executor agent to one page context. Created lazily on
// first use; the launched flag guards double-initialization. The router owns
// sessions exclusively; everything else sees them through SessionRef-shaped
// read access.
type Session struct {
	contextID string

	mu       sync.Mutex
	state    SessionState
	launched bool
	agent    output.CommandExecutor
	pending  map[string]chan entity.Response
	done     chan struct{}
}

func newSession(contextID string) *Session {
	return &Session{
		contextID: contextID,
		state:     StateUninitialized,
		pending:   make(map[string]chan entity.Response),
		done:      make(chan struct{}),
	}
}

func (s *Session) ContextID() string {
	return s.contextID
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Agent() output.CommandExecutor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent
}

// ensureLaunched brings the session to READY, constructing the agent through
// the factory on first use. Concurrent callers serialize on the session
// mutex; the launched flag defends against launching twice.
func (s *Session) ensureLaunched(ctx context.Context, factory output.AgentFactory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosing, StateClosed:
		return fmt.Errorf("session closed")
	}
	if s.launched {
		return nil
	}

	s.state = StateLaunching
	if factory != nil {
		agent, err := factory.NewAgent(ctx, s.contextID)
		if err != nil {
			s.state = StateUninitialized
			return fmt.Errorf("context unavailable: %w", err)
		}
		s.agent = agent
	}
	s.launched = true
	s.state = StateReady
	return nil
}

// addPending registers an outstanding command. The returned channel receives
// exactly one response, or nothing if the session closes first.
func (s *Session) addPending(commandID string) (chan entity.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosing || s.state == StateClosed {
		return nil, fmt.Errorf("session closed")
	}
	if _, exists := s.pending[commandID]; exists {
		return nil, fmt.Errorf("duplicate command id %q", commandID)
	}
	ch := make(chan entity.Response, 1)
	s.pending[commandID] = ch
	return ch, nil
}

func (s *Session) removePending(commandID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, commandID)
}

// resolve delivers a response to its pending command. Late or duplicate
// responses find no entry and are dropped, which keeps delivery
// exactly-once per command.
func (s *Session) resolve(resp entity.Response) bool {
	s.mu.Lock()
	ch, ok := s.pending[resp.ID]
	if ok {
		delete(s.pending, resp.ID)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	ch <- resp
	return true
}

// close tears the session down. Every in-flight command settles immediately
// through the done channel; the agent is closed afterwards.
func (s *Session) close() error {
	s.mu.Lock()
	if s.state == StateClosed || s.state == StateClosing {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosing
	agent := s.agent
	s.agent = nil
	s.pending = make(map[string]chan entity.Response)
	close(s.done)
	s.state = StateClosed
	s.mu.Unlock()

	if agent != nil {
		return agent.Close()
	}
	return nil
}
