package toolloop

import (
	"context"
	"fmt"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"
	"chat-agent/internal/usecase/pipeline"
)

const (
	DefaultMaxIterations     = 8
	DefaultMaxObservationLen = 20000

	metaIterations = "toolloop.iterations"
	metaParams     = "toolloop.params"
)

// Config bounds the loop. MaxIterations must stay below the pipeline's
// recursion ceiling; the recursion guard is the hard backstop either way.
type Config struct {
	MaxIterations     int
	MaxObservationLen int
	Logger            output.LoggerPort
}

func DefaultConfig() Config {
	return Config{
		MaxIterations:     DefaultMaxIterations,
		MaxObservationLen: DefaultMaxObservationLen,
	}
}

// New returns the plugin that turns single generation calls into a
// multi-step tool loop: when the model answers with tool calls, they are
// executed against the registry, their observations appended to the
// conversation, and the pipeline re-entered. Registered as a post plugin
// so it sees the final parameter fold.
func New(registry output.ToolRegistry, cfg Config) *pipeline.Plugin {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxObservationLen <= 0 {
		cfg.MaxObservationLen = DefaultMaxObservationLen
	}

	return &pipeline.Plugin{
		Name:    "tool-loop",
		Enforce: pipeline.EnforcePost,

		// The loop needs the settled parameters to extend the conversation;
		// each recursion updates them.
		TransformParams: func(ctx context.Context, rc *pipeline.RequestContext, params pipeline.Params) (pipeline.Params, error) {
			rc.SetMetadata(metaParams, params)
			return params, nil
		},

		TransformResult: func(ctx context.Context, rc *pipeline.RequestContext, result *pipeline.Result) (*pipeline.Result, error) {
			iter := iterations(rc)

			if len(result.Message.ToolCalls) == 0 {
				result.Rounds = iter + 1
				return result, nil
			}

			if iter >= cfg.MaxIterations {
				if cfg.Logger != nil {
					cfg.Logger.Warn("Tool loop budget exhausted", "request", rc.ID, "iterations", iter)
				}
				result.Rounds = iter + 1
				return result, nil
			}
			rc.SetMetadata(metaIterations, iter+1)

			raw, ok := rc.Metadata(metaParams)
			if !ok {
				return result, nil
			}
			params := raw.(pipeline.Params)

			messages := make([]entity.Message, len(params.Messages), len(params.Messages)+1+len(result.Message.ToolCalls))
			copy(messages, params.Messages)
			messages = append(messages, result.Message)

			for _, tc := range result.Message.ToolCalls {
				messages = append(messages, entity.Message{
					Role:       entity.RoleTool,
					ToolCallID: tc.ID,
					Name:       tc.Name,
					Content:    executeTool(ctx, registry, cfg, tc),
				})
			}

			params.Messages = messages
			return rc.Recurse(ctx, params)
		},
	}
}

// executeTool runs one call and always returns an observation; errors are
// fed back to the model as text so it can correct itself.
func executeTool(ctx context.Context, registry output.ToolRegistry, cfg Config, tc entity.ToolCall) string {
	name := entity.ToolName(tc.Name)
	tool, ok := registry.Get(name)
	if !ok {
		if suggestion, found := registry.Suggest(tc.Name); found {
			return fmt.Sprintf("Error: unknown tool '%s', did you mean '%s'?", tc.Name, suggestion)
		}
		return fmt.Sprintf("Error: unknown tool '%s'", tc.Name)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("Executing tool", "name", tc.Name, "args", tc.Arguments)
	}

	result, err := tool.Execute(ctx, tc.Arguments)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("Tool execution failed", "name", tc.Name, "error", err)
		}
		return "Error: " + err.Error()
	}

	if len(result) > cfg.MaxObservationLen {
		result = result[:cfg.MaxObservationLen] + "\n... (truncated)"
	}
	return result
}

func iterations(rc *pipeline.RequestContext) int {
	raw, ok := rc.Metadata(metaIterations)
	if !ok {
		return 0
	}
	n, _ := raw.(int)
	return n
}
