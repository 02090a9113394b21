package rodpage

import (
	"context"
	"fmt"

	"chat-agent/internal/application/port/output"
	"chat-agent/internal/infrastructure/executor"
)

var _ output.AgentFactory = (*Factory)(nil)

// Factory launches one browser per page context and embeds a command
// executor in it. The router calls NewAgent lazily, so browsers only exist
// for contexts that actually received a command.
type Factory struct {
	cfg             Config
	logger          output.LoggerPort
	maxSnapshotSize int
}

func NewFactory(cfg Config, logger output.LoggerPort, maxSnapshotSize int) *Factory {
	return &Factory{cfg: cfg, logger: logger, maxSnapshotSize: maxSnapshotSize}
}

func (f *Factory) NewAgent(ctx context.Context, contextID string) (output.CommandExecutor, error) {
	driver, err := New(ctx, f.cfg)
	if err != nil {
		return nil, fmt.Errorf("launch page context %s: %w", contextID, err)
	}
	if f.logger != nil {
		f.logger.Info("Page context launched", "context_id", contextID)
	}
	return executor.NewAgent(driver, f.logger, f.maxSnapshotSize), nil
}
