package pipeline

import (
	"context"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"
)

// Enforce orders plugins relative to each other: pre plugins run first,
// then untagged ones, then post plugins, each group in registration order.
type Enforce string

const (
	EnforcePre    Enforce = "pre"
	EnforceNormal Enforce = ""
	EnforcePost   Enforce = "post"
)

// Plugin is one registered unit of request-time behavior. Every hook is
// optional. ConfigureContext and the transforms run sequentially in pipeline
// order; the lifecycle hooks run in parallel with no ordering guarantee and
// cannot affect the result.
type Plugin struct {
	Name    string
	Enforce Enforce

	ConfigureContext func(rc *RequestContext)
	TransformParams  func(ctx context.Context, rc *RequestContext, params Params) (Params, error)
	TransformResult  func(ctx context.Context, rc *RequestContext, result *Result) (*Result, error)
	TransformStream  func(ctx context.Context, rc *RequestContext, in <-chan output.StreamChunk) <-chan output.StreamChunk

	OnRequestStart func(rc *RequestContext)
	OnRequestEnd   func(rc *RequestContext, result *Result)
	OnError        func(rc *RequestContext, err error)
}

// Params is what a single provider call is made with. Plugins receive the
// previous stage's output and return a possibly modified copy.
type Params struct {
	Provider    string
	Model       string
	Messages    []entity.Message
	Tools       []entity.ToolDefinition
	Temperature float32

	// Stream requests a streaming provider call; chunks surviving the
	// TransformStream fold are delivered to OnChunk.
	Stream  bool
	OnChunk func(output.StreamChunk)
}

// Result is the settled outcome of one pipeline run.
type Result struct {
	Message entity.Message

	// Rounds counts the provider calls behind this result. Plain requests
	// settle with 1; tool-loop recursion adds one per round.
	Rounds int
}

// MergeTools merges src into dst by tool name: existing entries keep their
// position (a same-named tool is updated in place), new ones are appended.
// Plugins that inject tools must use this rather than replacing the slice.
func MergeTools(dst, src []entity.ToolDefinition) []entity.ToolDefinition {
	merged := make([]entity.ToolDefinition, len(dst), len(dst)+len(src))
	copy(merged, dst)

	index := make(map[string]int, len(merged))
	for i, t := range merged {
		index[t.Name] = i
	}

	for _, t := range src {
		if i, ok := index[t.Name]; ok {
			merged[i] = t
			continue
		}
		index[t.Name] = len(merged)
		merged = append(merged, t)
	}
	return merged
}
