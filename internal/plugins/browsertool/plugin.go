package browsertool

import (
	"context"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"
	"chat-agent/internal/usecase/pipeline"
)

// Config controls how browser tools are exposed to the model. The zero
// value plus DefaultConfig gives the standard preset against the focused
// page context.
type Config struct {
	// Enabled gates the whole plugin; when false the pipeline runs as if
	// the plugin were not registered.
	Enabled bool

	// Toolset picks which tools the model sees. An explicit Names list wins
	// over Preset.
	Toolset output.ToolSelector

	// ContextID pins all tool commands to one page context. Empty targets
	// whatever context is focused when the command dispatches.
	ContextID string

	// MaxSnapshotSize bounds the snapshot outline in characters.
	MaxSnapshotSize int

	// InjectSystemPrompt prepends a short usage note explaining element
	// references when no system message mentions them.
	InjectSystemPrompt bool
}

func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		Toolset:            output.ToolSelector{Preset: entity.PresetStandard},
		InjectSystemPrompt: true,
	}
}

const systemHint = "You can control a web page with the provided browser tools. " +
	"Call snapshot first to see the page; it returns element references like @ref:1. " +
	"Pass those references as selectors to click, fill and the other element tools. " +
	"References become stale after navigate or set_content, so snapshot again."

// RegisterTools builds the full tool surface over the router and registers
// it. The registry owns ordering; presets filter it per request.
func RegisterTools(registry output.ToolRegistry, sender Sender, cfg Config) {
	target := cfg.ContextID
	registry.Register(NewNavigateTool(sender, target))
	registry.Register(NewSnapshotTool(sender, target, cfg.MaxSnapshotSize))
	registry.Register(NewClickTool(sender, target))
	registry.Register(NewFillTool(sender, target))
	registry.Register(NewTypeTool(sender, target))
	registry.Register(NewPressTool(sender, target))
	registry.Register(NewScrollTool(sender, target))
	registry.Register(NewGetTextTool(sender, target))
	registry.Register(NewGetAttributeTool(sender, target))
	registry.Register(NewScreenshotTool(sender, target))
	registry.Register(NewEvaluateTool(sender, target))
	registry.Register(NewSetContentTool(sender, target))
}

type sessionRef struct{ contextID string }

func (s sessionRef) ContextID() string { return s.contextID }

// New builds the pipeline plugin that injects the selected browser tools
// into every request. Tool definitions are merged by name, so a caller's
// own tools survive and a same-named tool is overridden in place.
func New(registry output.ToolRegistry, cfg Config, logger output.LoggerPort) *pipeline.Plugin {
	return &pipeline.Plugin{
		Name: "browser-tool",

		ConfigureContext: func(rc *pipeline.RequestContext) {
			if cfg.Enabled && cfg.ContextID != "" {
				rc.BindSession(sessionRef{contextID: cfg.ContextID})
			}
		},

		TransformParams: func(ctx context.Context, rc *pipeline.RequestContext, params pipeline.Params) (pipeline.Params, error) {
			if !cfg.Enabled {
				return params, nil
			}

			selected := registry.SelectTools(cfg.Toolset)
			defs := make([]entity.ToolDefinition, 0, len(selected))
			for _, tool := range selected {
				defs = append(defs, entity.ToolDefinition{
					Name:        tool.Name().String(),
					Description: tool.Description(),
					Parameters:  tool.Parameters(),
				})
			}
			params.Tools = pipeline.MergeTools(params.Tools, defs)

			if cfg.InjectSystemPrompt {
				params.Messages = injectHint(params.Messages)
			}

			if logger != nil {
				logger.Debug("Browser tools injected", "request", rc.ID, "count", len(defs))
			}
			return params, nil
		},
	}
}

// injectHint prepends the usage note unless a system message already covers
// element references.
func injectHint(messages []entity.Message) []entity.Message {
	for _, msg := range messages {
		if msg.Role == entity.RoleSystem {
			return messages
		}
	}
	out := make([]entity.Message, 0, len(messages)+1)
	out = append(out, entity.Message{Role: entity.RoleSystem, Content: systemHint})
	return append(out, messages...)
}
