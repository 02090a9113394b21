package di

import (
	"fmt"
	"time"

	"chat-agent/internal/application/port/input"
	"chat-agent/internal/application/port/output"
	"chat-agent/internal/application/service"
	"chat-agent/internal/domain/entity"
	"chat-agent/internal/infrastructure/bridge"
	"chat-agent/internal/infrastructure/bridge/httpbridge"
	"chat-agent/internal/infrastructure/executor/rodpage"
	"chat-agent/internal/infrastructure/llm/langchain"
	"chat-agent/internal/infrastructure/llm/openrouter"
	"chat-agent/internal/infrastructure/logger"
	"chat-agent/internal/infrastructure/prompts"
	"chat-agent/internal/plugins/browsertool"
	"chat-agent/internal/plugins/telemetry"
	"chat-agent/internal/plugins/toolloop"
	"chat-agent/internal/usecase/executor"
	"chat-agent/internal/usecase/pipeline"
)

type Container struct {
	Logger       output.LoggerPort
	Router       *bridge.Router
	Tools        output.ToolRegistry
	Engine       *pipeline.Engine
	TaskExecutor input.TaskExecutor
}

type Config struct {
	OpenRouterAPIKey string
	OpenRouterModel  string

	// LangchainAPIKey enables the second provider when non-empty.
	LangchainAPIKey  string
	LangchainModel   string
	LangchainBaseURL string

	// BridgeURL switches tool dispatch to a remote bridge server. Empty
	// means in-process browsers.
	BridgeURL string

	BrowserHeadless bool
	ContextID       string
	Toolset         string
	MaxSnapshotSize int
	CommandTimeout  time.Duration
	MaxIterations   int

	SystemPrompt string
	LogLevel     string
	LogJSON      bool
}

func NewContainer(cfg Config) (*Container, error) {
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	routerCfg := bridge.RouterConfig{
		Timeout: cfg.CommandTimeout,
		Logger:  log,
	}
	if cfg.BridgeURL != "" {
		routerCfg.Transport = httpbridge.NewTransport(cfg.BridgeURL)
	} else {
		browserCfg := rodpage.DefaultConfig()
		browserCfg.Headless = cfg.BrowserHeadless
		routerCfg.Factory = rodpage.NewFactory(browserCfg, log, cfg.MaxSnapshotSize)
	}
	router := bridge.NewRouter(routerCfg)

	contextID := cfg.ContextID
	if contextID == "" {
		contextID = "main"
	}
	router.Focus(contextID)

	toolCfg := browsertool.DefaultConfig()
	toolCfg.ContextID = contextID
	toolCfg.MaxSnapshotSize = cfg.MaxSnapshotSize
	if cfg.Toolset != "" {
		toolCfg.Toolset = output.ToolSelector{Preset: entity.PresetName(cfg.Toolset)}
	}

	tools := service.NewToolRegistry(log)
	browsertool.RegisterTools(tools, router, toolCfg)

	engine := pipeline.NewEngine(log)

	orCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	orCfg.Logger = log
	engine.RegisterProvider("openrouter", openrouter.NewOpenRouterAdapter(orCfg))

	if cfg.LangchainAPIKey != "" {
		lc, err := langchain.NewOpenAIAdapter(langchain.Config{
			APIKey:  cfg.LangchainAPIKey,
			Model:   cfg.LangchainModel,
			BaseURL: cfg.LangchainBaseURL,
			Logger:  log,
		})
		if err != nil {
			router.CloseAll()
			log.Close()
			return nil, fmt.Errorf("failed to create langchain provider: %w", err)
		}
		engine.RegisterProvider("langchain", lc)
	}

	engine.Use(*browsertool.New(tools, toolCfg, log))

	loopCfg := toolloop.DefaultConfig()
	loopCfg.Logger = log
	if cfg.MaxIterations > 0 {
		loopCfg.MaxIterations = cfg.MaxIterations
	}
	engine.Use(*toolloop.New(tools, loopCfg))
	engine.Use(*telemetry.New(log))

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompts.DefaultSystemPrompt
	}

	uc := executor.New(engine, log, systemPrompt, cfg.OpenRouterModel)

	return &Container{
		Logger:       log,
		Router:       router,
		Tools:        tools,
		Engine:       engine,
		TaskExecutor: uc,
	}, nil
}

func (c *Container) Close() {
	if c.Router != nil {
		c.Router.CloseAll()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
