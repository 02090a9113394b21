package output

import (
	"context"

	"chat-agent/internal/domain/entity"
)

type ToolPort interface {
	Name() entity.ToolName
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, arguments string) (string, error)
}

// ToolSelector picks a subset of the registered tools. A non-empty Names
// list is an explicit allow-list and takes precedence; otherwise Preset is
// used, falling back to standard when the name is unknown.
type ToolSelector struct {
	Preset entity.PresetName
	Names  []entity.ToolName
}

type ToolRegistry interface {
	Register(tool ToolPort)
	Get(name entity.ToolName) (ToolPort, bool)
	All() []ToolPort
	Definitions() []entity.ToolDefinition

	// SelectTools filters the registered tools; pure and order-preserving.
	SelectTools(sel ToolSelector) []ToolPort

	// Describe returns the parameter schema for one action.
	Describe(name entity.ToolName) (entity.ToolDefinition, bool)

	// Suggest returns the closest known action name for a near-miss.
	Suggest(name string) (entity.ToolName, bool)
}
