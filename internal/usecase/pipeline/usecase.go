package pipeline

import (
	"context"
	"fmt"
	"sync"

	"chat-agent/internal/application/port/output"
)

// Engine orchestrates an ordered set of plugins around a single provider
// call: context construction, parameter transformation, the call itself,
// result/stream transformation, and lifecycle notifications.
type Engine struct {
	providers map[string]output.LLMPort
	defaultID string
	plugins   []Plugin
	logger    output.LoggerPort
}

func NewEngine(logger output.LoggerPort) *Engine {
	return &Engine{
		providers: make(map[string]output.LLMPort),
		logger:    logger,
	}
}

// RegisterProvider adds a provider under an id. The first registered
// provider is the default.
func (e *Engine) RegisterProvider(id string, provider output.LLMPort) {
	if len(e.providers) == 0 {
		e.defaultID = id
	}
	e.providers[id] = provider
}

// Use registers a plugin. Plugins are registered once at startup; the
// engine never mutates the set mid-request.
func (e *Engine) Use(p Plugin) {
	e.plugins = append(e.plugins, p)
}

// ordered returns the pipeline order: pre plugins in registration order,
// then untagged, then post.
func (e *Engine) ordered() []Plugin {
	result := make([]Plugin, 0, len(e.plugins))
	for _, enforce := range []Enforce{EnforcePre, EnforceNormal, EnforcePost} {
		for _, p := range e.plugins {
			if p.Enforce == enforce {
				result = append(result, p)
			}
		}
	}
	return result
}

// Run executes one generation request through the full pipeline. Lifecycle
// hooks fire in parallel around it; a failure in any sequential stage aborts
// the request and is reported to the caller, with OnError still notified on
// every plugin.
func (e *Engine) Run(ctx context.Context, params Params) (*Result, error) {
	rc := newRequestContext(params)
	plugins := e.ordered()

	rc.recurse = func(ctx context.Context, p Params) (*Result, error) {
		rc.depth++
		defer func() { rc.depth-- }()
		return e.execute(ctx, rc, plugins, p)
	}

	e.notify(plugins, func(p Plugin) {
		if p.OnRequestStart != nil {
			p.OnRequestStart(rc)
		}
	})

	result, err := e.execute(ctx, rc, plugins, params)
	if err != nil {
		e.notify(plugins, func(p Plugin) {
			if p.OnError != nil {
				p.OnError(rc, err)
			}
		})
		return nil, err
	}

	e.notify(plugins, func(p Plugin) {
		if p.OnRequestEnd != nil {
			p.OnRequestEnd(rc, result)
		}
	})
	return result, nil
}

// execute runs the sequential stages. Recursive tool-loop calls re-enter
// here, not Run, so lifecycle hooks fire once per caller request.
func (e *Engine) execute(ctx context.Context, rc *RequestContext, plugins []Plugin, params Params) (*Result, error) {
	for _, p := range plugins {
		if p.ConfigureContext != nil {
			p.ConfigureContext(rc)
		}
	}

	for _, p := range plugins {
		if p.TransformParams == nil {
			continue
		}
		var err error
		params, err = p.TransformParams(ctx, rc, params)
		if err != nil {
			return nil, &PipelineError{Plugin: p.Name, Stage: "transformParams", Err: err}
		}
	}

	providerID := params.Provider
	if providerID == "" {
		providerID = e.defaultID
	}
	provider, ok := e.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerID)
	}
	rc.Model = params.Model

	var result *Result
	var err error
	if params.Stream {
		result, err = e.callStreaming(ctx, rc, plugins, provider, params)
	} else {
		var resp *output.ChatResponse
		resp, err = provider.Chat(ctx, chatRequest(params))
		if resp != nil {
			result = &Result{Message: resp.Message}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("provider call failed: %w", err)
	}

	for _, p := range plugins {
		if p.TransformResult == nil {
			continue
		}
		result, err = p.TransformResult(ctx, rc, result)
		if err != nil {
			return nil, &PipelineError{Plugin: p.Name, Stage: "transformResult", Err: err}
		}
	}
	return result, nil
}

// callStreaming folds the provider's chunk stream through every plugin's
// TransformStream in pipeline order and delivers what survives to OnChunk.
func (e *Engine) callStreaming(ctx context.Context, rc *RequestContext, plugins []Plugin, provider output.LLMPort, params Params) (*Result, error) {
	base := make(chan output.StreamChunk, 16)
	stream := (<-chan output.StreamChunk)(base)
	for _, p := range plugins {
		if p.TransformStream != nil {
			stream = p.TransformStream(ctx, rc, stream)
		}
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for chunk := range stream {
			if params.OnChunk != nil {
				params.OnChunk(chunk)
			}
		}
	}()

	resp, err := provider.ChatStream(ctx, chatRequest(params), func(chunk output.StreamChunk) {
		base <- chunk
	})
	close(base)
	<-drained

	if err != nil {
		return nil, err
	}
	return &Result{Message: resp.Message}, nil
}

// notify fires one lifecycle hook on every plugin in parallel. Panics are
// logged and never propagated; the hooks cannot affect the request outcome.
func (e *Engine) notify(plugins []Plugin, fire func(Plugin)) {
	var wg sync.WaitGroup
	for _, p := range plugins {
		wg.Add(1)
		go func(p Plugin) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil && e.logger != nil {
					e.logger.Error("Plugin lifecycle hook panicked", "plugin", p.Name, "panic", r)
				}
			}()
			fire(p)
		}(p)
	}
	wg.Wait()
}

func chatRequest(params Params) output.ChatRequest {
	return output.ChatRequest{
		Model:       params.Model,
		Messages:    params.Messages,
		Tools:       params.Tools,
		Temperature: params.Temperature,
	}
}
