package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"discord_workflow/internal/command"
	"discord_workflow/internal/model"
	"discord_workflow/internal/secret"
	"discord_workflow/internal/service/workflow"
)

type toolset struct {
	commands *command.Registry
	secrets  secret.Provider
	runner   workflow.Runner
	keyName  func(string) string
	user     string
}

// registerCommandTools adds one tool per command descriptor
func registerCommandTools(s *server.MCPServer, ts *toolset) {
	for _, d := range ts.commands.All() {
		s.AddTool(newTool(d), ts.handler(d))
	}
}

func newTool(d command.Descriptor) mcp.Tool {
	opts := []mcp.PropertyOption{mcp.Description(d.Option.Description)}
	if d.Option.Required {
		opts = append(opts, mcp.Required())
	}
	return mcp.NewTool(d.Name,
		mcp.WithDescription(fmt.Sprintf("Run the %s workflow (%s)", d.Name, d.Description)),
		mcp.WithString(d.Option.Name, opts...),
	)
}

func (ts *toolset) handler(d command.Descriptor) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var options []model.CommandOption
		if value, ok := request.GetArguments()[d.Option.Name].(string); ok {
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s: %w", d.Option.Name, err)
			}
			options = append(options, model.CommandOption{Name: d.Option.Name, Value: raw})
		}

		inputs, err := d.BuildInputs(options)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid %s parameter", d.Option.Name)), nil
		}

		apiKey, err := ts.secrets.Get(ctx, ts.keyName(d.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve workflow key for %s: %w", d.Name, err)
		}

		result, err := ts.runner.Run(ctx, workflow.Request{Inputs: inputs, User: ts.user, APIKey: apiKey})
		if err != nil {
			var wfErr *workflow.Error
			if errors.As(err, &wfErr) {
				return mcp.NewToolResultError(wfErr.Error()), nil
			}
			return nil, err
		}
		return mcp.NewToolResultText(result.Text), nil
	}
}
