package main

import (
	"log"
	"net/http"

	"chat-agent/internal/infrastructure/bridge/httpbridge"
	"chat-agent/internal/infrastructure/env"
	"chat-agent/internal/infrastructure/executor/rodpage"
	"chat-agent/internal/infrastructure/logger"
)

// bridge hosts page contexts in a separate process. An agent configured
// with BRIDGE_URL forwards its browser commands here instead of launching
// browsers in-process.
func main() {
	envService := env.NewEnvService()

	zlog, err := logger.New(logger.Config{
		Level: envService.GetDefault("LOG_LEVEL", "info"),
		JSON:  envService.GetBool("LOG_JSON", true),
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Close()

	browserCfg := rodpage.DefaultConfig()
	browserCfg.Headless = envService.GetBool("BROWSER_HEADLESS", true)

	factory := rodpage.NewFactory(browserCfg, zlog, envService.GetInt("MAX_SNAPSHOT_SIZE", 0))
	server := httpbridge.NewServer(factory)
	defer server.Close()

	addr := envService.GetDefault("BRIDGE_ADDR", ":8700")
	zlog.Info("Bridge server listening", "addr", addr)

	if err := http.ListenAndServe(addr, server.Handler()); err != nil {
		zlog.Error("Bridge server stopped", "error", err)
	}
}
