package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionRef is the read-only handle a request holds on its automation
// session. Sessions are owned by the host router; plugins must never
// construct or close them through this reference.
type SessionRef interface {
	ContextID() string
}

// RequestContext is the mutable, request-scoped state threaded through every
// pipeline stage and into tool execution. It is owned by the in-flight
// request and discarded when the request settles.
type RequestContext struct {
	ID        string
	Provider  string
	Model     string
	Params    Params // the original caller parameters, before any transform
	StartTime time.Time

	mu       sync.Mutex
	metadata map[string]any
	session  SessionRef

	recurse func(ctx context.Context, params Params) (*Result, error)
	depth   int
}

const maxRecursionDepth = 16

func newRequestContext(params Params) *RequestContext {
	return &RequestContext{
		ID:        uuid.NewString(),
		Provider:  params.Provider,
		Model:     params.Model,
		Params:    params,
		StartTime: time.Now(),
		metadata:  make(map[string]any),
	}
}

// Metadata lookups are guarded: parallel lifecycle hooks may read while a
// sequential stage writes.
func (rc *RequestContext) SetMetadata(key string, value any) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.metadata[key] = value
}

func (rc *RequestContext) Metadata(key string) (any, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	v, ok := rc.metadata[key]
	return v, ok
}

func (rc *RequestContext) Session() SessionRef {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.session
}

// BindSession attaches the automation session handle for this request. The
// browser-tool plugin calls it once the router has a session; later binds
// replace the handle.
func (rc *RequestContext) BindSession(s SessionRef) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.session = s
}

// Recurse re-invokes the pipeline with new parameters. Used by multi-step
// tool loops: execute tool calls, extend the conversation, run again. The
// recursive run shares this request's id, metadata, and session.
func (rc *RequestContext) Recurse(ctx context.Context, params Params) (*Result, error) {
	if rc.recurse == nil {
		return nil, fmt.Errorf("request context is not bound to a pipeline")
	}
	if rc.depth+1 > maxRecursionDepth {
		return nil, fmt.Errorf("pipeline recursion depth %d exceeded", maxRecursionDepth)
	}
	return rc.recurse(ctx, params)
}
