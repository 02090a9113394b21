package langchain

import (
	"context"
	"fmt"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var _ output.LLMPort = (*LangchainAdapter)(nil)

// LangchainAdapter exposes any langchaingo chat model as an LLMPort. It is
// the second provider wired into the pipeline, so requests can be routed
// per model id instead of per SDK.
type LangchainAdapter struct {
	model  llms.Model
	name   string
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Logger  output.LoggerPort
}

// NewOpenAIAdapter builds the adapter over langchaingo's OpenAI-compatible
// client. BaseURL may point at any compatible endpoint.
func NewOpenAIAdapter(cfg Config) (*LangchainAdapter, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build langchain client: %w", err)
	}

	return &LangchainAdapter{
		model:  model,
		name:   cfg.Model,
		logger: cfg.Logger,
	}, nil
}

// NewAdapter wraps an already constructed langchaingo model.
func NewAdapter(model llms.Model, name string, logger output.LoggerPort) *LangchainAdapter {
	return &LangchainAdapter{model: model, name: name, logger: logger}
}

func (a *LangchainAdapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	return a.generate(ctx, req, nil)
}

func (a *LangchainAdapter) ChatStream(ctx context.Context, req output.ChatRequest, onChunk func(output.StreamChunk)) (*output.ChatResponse, error) {
	resp, err := a.generate(ctx, req, func(chunk []byte) {
		if onChunk != nil && len(chunk) > 0 {
			onChunk(output.StreamChunk{Content: string(chunk)})
		}
	})
	if err != nil {
		return nil, err
	}
	if onChunk != nil {
		onChunk(output.StreamChunk{
			ToolCalls: resp.Message.ToolCalls,
			Done:      true,
		})
	}
	return resp, nil
}

func (a *LangchainAdapter) generate(ctx context.Context, req output.ChatRequest, stream func([]byte)) (*output.ChatResponse, error) {
	content := convertMessages(req.Messages)

	opts := []llms.CallOption{
		llms.WithTemperature(float64(req.Temperature)),
	}
	if req.Model != "" {
		opts = append(opts, llms.WithModel(req.Model))
	}
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(convertTools(req.Tools)))
	}
	if stream != nil {
		opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			stream(chunk)
			return nil
		}))
	}

	resp, err := a.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	msg := entity.Message{
		Role:    entity.RoleAssistant,
		Content: choice.Content,
	}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		msg.ToolCalls = append(msg.ToolCalls, entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		})
	}

	return &output.ChatResponse{Message: msg}, nil
}

func convertMessages(messages []entity.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		mc := llms.MessageContent{Role: convertRole(msg.Role)}

		switch msg.Role {
		case entity.RoleTool:
			mc.Parts = append(mc.Parts, llms.ToolCallResponse{
				ToolCallID: msg.ToolCallID,
				Name:       msg.Name,
				Content:    msg.Content,
			})
		default:
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextPart(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
		}

		result = append(result, mc)
	}
	return result
}

func convertRole(role entity.MessageRole) llms.ChatMessageType {
	switch role {
	case entity.RoleSystem:
		return llms.ChatMessageTypeSystem
	case entity.RoleAssistant:
		return llms.ChatMessageTypeAI
	case entity.RoleTool:
		return llms.ChatMessageTypeTool
	default:
		return llms.ChatMessageTypeHuman
	}
}

func convertTools(tools []entity.ToolDefinition) []llms.Tool {
	result := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}
