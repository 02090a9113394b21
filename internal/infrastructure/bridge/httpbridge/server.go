package httpbridge

import (
	"context"
	"io"
	"net/http"
	"sync"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"
	"chat-agent/internal/infrastructure/bridge"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
)

// Server hosts page contexts for a router running in another process. Each
// context gets its own executor, constructed lazily on the first command
// addressed to it, mirroring the router's session semantics.
type Server struct {
	factory output.AgentFactory

	mu     sync.Mutex
	agents map[string]output.CommandExecutor
}

func NewServer(factory output.AgentFactory) *Server {
	return &Server{
		factory: factory,
		agents:  make(map[string]output.CommandExecutor),
	}
}

// Handler returns the HTTP surface: POST /bridge/{contextID} takes a command
// envelope and answers with a response envelope, GET /health answers 200.
func (s *Server) Handler() http.Handler {
	logger := httplog.NewLogger("bridge", httplog.Options{
		JSON:    true,
		Concise: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/bridge/{contextID}", s.handleCommand)

	return r
}

func (s *Server) handleCommand(w http.ResponseWriter, req *http.Request) {
	contextID := chi.URLParam(req, "contextID")

	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	env, err := bridge.DecodeEnvelope(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if env.Type != entity.EnvelopeCommand {
		http.Error(w, "expected a command envelope", http.StatusBadRequest)
		return
	}

	cmd := *env.Command
	agent, err := s.agent(req.Context(), contextID)

	var resp entity.Response
	if err != nil {
		resp = entity.Failure(cmd.ID, "context unavailable: "+err.Error())
	} else {
		resp = agent.Execute(req.Context(), cmd)
	}

	data, err := bridge.EncodeEnvelope(entity.ResponseEnvelope(resp))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) agent(ctx context.Context, contextID string) (output.CommandExecutor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if agent, ok := s.agents[contextID]; ok {
		return agent, nil
	}
	agent, err := s.factory.NewAgent(ctx, contextID)
	if err != nil {
		return nil, err
	}
	s.agents[contextID] = agent
	return agent, nil
}

// Close tears down every hosted executor.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, agent := range s.agents {
		_ = agent.Close()
		delete(s.agents, id)
	}
}
