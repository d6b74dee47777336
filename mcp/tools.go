package mcp

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/tools"
)

// serverTool adapts one MCP server tool to the tools.Tool interface.
type serverTool struct {
	client Client
	info   ToolInfo
}

func (t *serverTool) Name() string        { return t.info.Name }
func (t *serverTool) Description() string { return t.info.Description }

func (t *serverTool) Schema() map[string]interface{} { return t.info.InputSchema }

func (t *serverTool) Execute(ctx context.Context, input string) (string, error) {
	return t.client.CallTool(ctx, t.info.Name, input)
}

// Connect creates a client for the configured transport.
func Connect(ctx context.Context, params config.MCPParams) (Client, error) {
	switch {
	case params.Command != "":
		return NewStdioClient(ctx, StdioConfig{
			Command: params.Command,
			Args:    params.Args,
			Env:     params.Env,
		})
	case params.URL != "":
		return NewHTTPClient(HTTPConfig{BaseURL: params.URL}), nil
	default:
		return nil, fmt.Errorf("mcp: server needs a command or a url")
	}
}

// LoadTools connects to an MCP server and returns its tools, filtered down to
// params.Tools when set. Requesting a tool the server does not have is an
// error naming both the requested and the available sets. The returned client
// owns the connection; close it when the agent is done.
func LoadTools(ctx context.Context, params config.MCPParams, logger *zap.Logger) ([]tools.Tool, Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := Connect(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	infos, err := client.ListTools(ctx)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	available := make([]string, 0, len(infos))
	byName := make(map[string]ToolInfo, len(infos))
	for _, info := range infos {
		available = append(available, info.Name)
		byName[info.Name] = info
	}

	selected := infos
	if len(params.Tools) > 0 {
		selected = selected[:0:0]
		var missing []string
		for _, name := range params.Tools {
			info, ok := byName[name]
			if !ok {
				missing = append(missing, name)
				continue
			}
			selected = append(selected, info)
		}
		if len(missing) > 0 {
			client.Close()
			return nil, nil, fmt.Errorf(
				"could not find all requested tools in the MCP server: requested [%s], available [%s]",
				strings.Join(params.Tools, ", "), strings.Join(available, ", "))
		}
	} else {
		logger.Info("No specific tools requested for MCP server, using all available tools",
			zap.Strings("tools", available))
	}

	wrapped := make([]tools.Tool, 0, len(selected))
	for _, info := range selected {
		wrapped = append(wrapped, &serverTool{client: client, info: info})
	}
	return wrapped, client, nil
}
