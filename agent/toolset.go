package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/mcp"
	"github.com/anyagent/anyagent/tools"
)

// defaultToolNames is the toolset an agent gets when the config names none:
// enough to research a question on the open web.
var defaultToolNames = []string{"search_web", "visit_webpage"}

// Toolset resolves everything an agent configuration can call: builtin tools
// by name, tools served by MCP servers, and managed agents wrapped as tools.
// A nil Tools list resolves to the default web pair; an explicit empty list
// resolves to no builtins. Managed agents are created on the same framework
// as their parent. The returned close function releases MCP connections and
// the managed agents' own resources.
func Toolset(ctx context.Context, framework string, cfg config.AgentConfig, logger *zap.Logger) ([]tools.Tool, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	names := cfg.Tools
	if names == nil {
		names = defaultToolNames
	}

	builtins := tools.DefaultRegistryWith(logger)
	resolved, err := tools.Resolve(builtins, names)
	if err != nil {
		return nil, nil, err
	}

	var closers []func() error
	closeAll := func() error {
		var firstErr error
		for _, c := range closers {
			if err := c(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, params := range cfg.MCPServers {
		mcpTools, client, err := mcp.LoadTools(ctx, params, logger)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("mcp server: %w", err)
		}
		closers = append(closers, client.Close)
		resolved = append(resolved, mcpTools...)
	}

	for _, managedCfg := range cfg.ManagedAgents {
		managed, err := Create(ctx, framework, managedCfg)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("managed agent %s: %w", managedCfg.Name, err)
		}
		if closer, ok := managed.(Closer); ok {
			closers = append(closers, closer.Close)
		}
		resolved = append(resolved, AsTool(managed, managedCfg.Name, managedCfg.Description))
	}

	return resolved, closeAll, nil
}
