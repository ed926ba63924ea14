package main

import (
	"context"
	"log"
	"os"

	"discord_workflow/internal/command"
	"discord_workflow/internal/config"
	"discord_workflow/internal/logger"
	"discord_workflow/internal/service/mcpserver"
	"discord_workflow/internal/service/workflow"
)

func main() {
	ctx := context.Background()

	env, err := config.FromOS()
	if err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	// stdout carries the protocol, so logs go to stderr only
	if err := logger.InitWithOutput(env.LogLevel, "stderr"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	secrets, err := config.NewSecretProvider(ctx, env)
	if err != nil {
		log.Fatalf("Failed to create secret provider: %v", err)
	}
	endpoint, err := secrets.Get(ctx, env.WorkflowEndpointParam)
	if err != nil {
		log.Fatalf("Failed to resolve workflow endpoint: %v", err)
	}

	user := os.Getenv("MCP_USER")
	if user == "" {
		user = "mcp"
	}

	server := mcpserver.NewServer(
		command.Default(),
		secrets,
		workflow.NewClient(endpoint, env.WorkflowTimeout),
		env.CommandKeyName,
		user,
	)
	if err := mcpserver.Serve(server); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
