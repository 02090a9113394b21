package telemetry

import (
	"time"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/usecase/pipeline"
)

// New returns a plugin that logs request lifecycle events. It uses only
// the parallel hooks, so it can never change a result or abort a request;
// registered as a post plugin it observes the pipeline other plugins built.
func New(logger output.LoggerPort) *pipeline.Plugin {
	return &pipeline.Plugin{
		Name:    "telemetry",
		Enforce: pipeline.EnforcePost,

		OnRequestStart: func(rc *pipeline.RequestContext) {
			logger.Info("Request started",
				"request", rc.ID,
				"provider", rc.Provider,
				"model", rc.Model,
				"messages", len(rc.Params.Messages),
				"stream", rc.Params.Stream,
			)
		},

		OnRequestEnd: func(rc *pipeline.RequestContext, result *pipeline.Result) {
			logger.Info("Request completed",
				"request", rc.ID,
				"duration_ms", time.Since(rc.StartTime).Milliseconds(),
				"tool_calls", len(result.Message.ToolCalls),
				"content_len", len(result.Message.Content),
			)
		},

		OnError: func(rc *pipeline.RequestContext, err error) {
			logger.Error("Request failed",
				"request", rc.ID,
				"duration_ms", time.Since(rc.StartTime).Milliseconds(),
				"error", err,
			)
		},
	}
}
