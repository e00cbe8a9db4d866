package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "jupiter/internal/adapters/mcp"
	"jupiter/internal/application"
	"jupiter/internal/config"
	"jupiter/internal/logging"
)

func main() {
	configFlag := flag.String("config", "", "config file (default $XDG_CONFIG_HOME/jupiter/config.yaml)")
	dbFlag := flag.String("db", "", "database URL")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("jupiter-mcp: %v", err)
	}
	if *dbFlag != "" {
		cfg.DatabaseURL = *dbFlag
	}

	// stdout carries the protocol
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	env, err := application.Open(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("jupiter-mcp: %v", err)
	}
	defer env.Close()

	mcpServer := server.NewMCPServer(
		"jupiter-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, env)
	mcpadapter.RegisterWriteTools(mcpServer, env)

	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Error("server stopped", "error", err)
	}
}
