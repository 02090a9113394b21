package executor

import (
	"context"
	"fmt"

	"chat-agent/internal/application/port/input"
	"chat-agent/internal/application/port/output"
	"chat-agent/internal/domain/entity"
	"chat-agent/internal/usecase/pipeline"
)

var _ input.TaskExecutor = (*UseCase)(nil)

// UseCase turns a natural-language task into one pipeline run. The tool
// loop and tool injection live in plugins on the engine; this layer only
// frames the conversation and reads the settled result.
type UseCase struct {
	engine       *pipeline.Engine
	logger       output.LoggerPort
	systemPrompt string
	model        string
}

func New(engine *pipeline.Engine, logger output.LoggerPort, systemPrompt, model string) *UseCase {
	return &UseCase{
		engine:       engine,
		logger:       logger,
		systemPrompt: systemPrompt,
		model:        model,
	}
}

func (uc *UseCase) Execute(ctx context.Context, task string) (*input.ExecuteResult, error) {
	messages := []entity.Message{
		{Role: entity.RoleUser, Content: task},
	}
	if uc.systemPrompt != "" {
		messages = append([]entity.Message{
			{Role: entity.RoleSystem, Content: uc.systemPrompt},
		}, messages...)
	}

	uc.logger.Info("Executing task", "task", task)

	result, err := uc.engine.Run(ctx, pipeline.Params{
		Model:       uc.model,
		Messages:    messages,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("task failed: %w", err)
	}

	iterations := result.Rounds
	if iterations == 0 {
		iterations = 1
	}

	uc.logger.Info("Task completed", "iterations", iterations)

	return &input.ExecuteResult{
		FinalAnswer: result.Message.Content,
		Iterations:  iterations,
	}, nil
}
