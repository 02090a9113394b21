package openrouter

import (
	"testing"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestConvertResponseMessage_WithContent(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "Hello, world!",
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Equal(t, "Hello, world!", result.Content)
	assert.Empty(t, result.ToolCalls)
}

func TestConvertResponseMessage_WithToolCalls(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "",
		ToolCalls: []openai.ToolCall{
			{
				ID:   "call_123",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      "navigate",
					Arguments: `{"url":"https://example.com"}`,
				},
			},
		},
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "call_123", result.ToolCalls[0].ID)
	assert.Equal(t, "navigate", result.ToolCalls[0].Name)
	assert.Equal(t, `{"url":"https://example.com"}`, result.ToolCalls[0].Arguments)
}

func TestConvertMessages_RolesAndToolPlumbing(t *testing.T) {
	messages := []entity.Message{
		{
			Role:    entity.RoleUser,
			Content: "Hello",
		},
		{
			Role:    entity.RoleAssistant,
			Content: "Hi there",
			ToolCalls: []entity.ToolCall{
				{ID: "call_1", Name: "click", Arguments: `{"selector":"@ref:1"}`},
			},
		},
		{
			Role:       entity.RoleTool,
			Content:    "clicked",
			ToolCallID: "call_1",
			Name:       "click",
		},
	}

	result := convertMessages(messages)

	assert.Len(t, result, 3)
	assert.Equal(t, "user", result[0].Role)
	assert.Equal(t, "Hello", result[0].Content)
	assert.Equal(t, "assistant", result[1].Role)
	assert.Len(t, result[1].ToolCalls, 1)
	assert.Equal(t, "click", result[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "tool", result[2].Role)
	assert.Equal(t, "call_1", result[2].ToolCallID)
	assert.Equal(t, "click", result[2].Name)
}

func TestConvertTools(t *testing.T) {
	tools := []entity.ToolDefinition{
		{
			Name:        "navigate",
			Description: "Navigate the page to a URL",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{"type": "string"},
				},
			},
		},
	}

	result := convertTools(tools)

	assert.Len(t, result, 1)
	assert.Equal(t, openai.ToolTypeFunction, result[0].Type)
	assert.Equal(t, "navigate", result[0].Function.Name)
	assert.Equal(t, "Navigate the page to a URL", result[0].Function.Description)
}

func TestResolveModel_RequestOverridesDefault(t *testing.T) {
	a := &OpenRouterAdapter{model: "default-model"}

	assert.Equal(t, "default-model", a.resolveModel(output.ChatRequest{}))
	assert.Equal(t, "per-request", a.resolveModel(output.ChatRequest{Model: "per-request"}))
}
