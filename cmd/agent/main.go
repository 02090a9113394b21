package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"chat-agent/internal/di"
	"chat-agent/internal/infrastructure/env"
)

func main() {
	envService := env.NewEnvService()

	fmt.Println("\nEnter a task for the agent:")
	reader := bufio.NewReader(os.Stdin)
	task, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal("Failed to read input: ", err)
	}
	task = strings.TrimSpace(task)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	container, err := di.NewContainer(di.Config{
		OpenRouterAPIKey: envService.MustGet("OPENROUTER_API_KEY"),
		OpenRouterModel:  envService.MustGet("OPENROUTER_MODEL_NAME"),
		LangchainAPIKey:  envService.Get("OPENAI_API_KEY"),
		LangchainModel:   envService.GetDefault("OPENAI_MODEL_NAME", "gpt-4o-mini"),
		BridgeURL:        envService.Get("BRIDGE_URL"),
		BrowserHeadless:  envService.GetBool("BROWSER_HEADLESS", true),
		Toolset:          envService.Get("TOOLSET"),
		MaxSnapshotSize:  envService.GetInt("MAX_SNAPSHOT_SIZE", 0),
		CommandTimeout:   envService.GetDuration("COMMAND_TIMEOUT", 0),
		MaxIterations:    envService.GetInt("MAX_ITERATIONS", 0),
		SystemPrompt:     envService.Get("SYSTEM_PROMPT"),
		LogLevel:         envService.GetDefault("LOG_LEVEL", "info"),
		LogJSON:          envService.GetBool("LOG_JSON", false),
	})
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer container.Close()

	container.Logger.Info("Task started", "task", task)
	fmt.Println("\nAgent is working...")

	result, err := container.TaskExecutor.Execute(ctx, task)
	if err != nil {
		container.Logger.Error("Task failed", "error", err)
		fmt.Printf("\nExecution failed: %v\n", err)
		os.Exit(1)
	}

	container.Logger.Info("Task completed", "iterations", result.Iterations)
	fmt.Println("\nFINAL ANSWER:")
	fmt.Println(result.FinalAnswer)
}
