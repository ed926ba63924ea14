package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"discord_workflow/internal/command"
	"discord_workflow/internal/secret"
	"discord_workflow/internal/service/workflow"
)

const (
	serverName    = "discord workflow"
	serverVersion = "1.0.0"
)

// NewServer creates an MCP server exposing every registered command as a tool.
func NewServer(commands *command.Registry, secrets secret.Provider, runner workflow.Runner, keyName func(string) string, user string) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion)
	registerCommandTools(s, &toolset{
		commands: commands,
		secrets:  secrets,
		runner:   runner,
		keyName:  keyName,
		user:     user,
	})
	return s
}

// Serve starts the MCP server on stdio
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
