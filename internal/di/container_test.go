package di

import (
	"testing"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainerDefaults(t *testing.T) {
	// no BridgeURL and no browser launch happens at construction, so the
	// container wires up fully offline
	c, err := NewContainer(Config{
		OpenRouterAPIKey: "test-key",
		OpenRouterModel:  "test-model",
		LogLevel:         "info",
	})
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Engine)
	require.NotNil(t, c.TaskExecutor)
	require.NotNil(t, c.Router)

	assert.Len(t, c.Tools.All(), 12, "an empty Toolset registers the full set")

	standard := c.Tools.SelectTools(output.ToolSelector{Preset: entity.PresetStandard})
	assert.Len(t, standard, 10)
}

func TestNewContainerRejectsBadLogLevel(t *testing.T) {
	_, err := NewContainer(Config{
		OpenRouterAPIKey: "test-key",
		OpenRouterModel:  "test-model",
		LogLevel:         "shouting",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger")
}
