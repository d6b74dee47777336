// Package langchain runs agents on LangChainGo's one-shot (MRKL) agent
// executor. Import it for its side effect of registering the "langchain"
// framework:
//
//	import _ "github.com/anyagent/anyagent/adapters/langchain"
package langchain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	lcagents "github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/chains"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
	lctools "github.com/tmc/langchaingo/tools"

	"github.com/anyagent/anyagent/agent"
	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/tools"
)

// Framework is the id this adapter registers under.
const Framework = "langchain"

func init() {
	agent.Register(Framework, Load)
}

// Load builds an agent on a LangChainGo executor over an OpenAI-compatible
// model. Instructions are prepended to each task because the MRKL prompt
// format owns the system prefix.
func Load(ctx context.Context, cfg config.AgentConfig) (agent.Agent, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("langchain requires an API key (set api_key_var or OPENAI_API_KEY)")
	}

	opts := []lcopenai.Option{
		lcopenai.WithModel(cfg.ModelID),
		lcopenai.WithToken(apiKey),
	}
	if cfg.APIBase != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.APIBase))
	}
	model, err := lcopenai.New(opts...)
	if err != nil {
		return nil, err
	}

	toolset, closeTools, err := agent.Toolset(ctx, Framework, cfg, nil)
	if err != nil {
		return nil, err
	}
	registry := tools.NewRegistry()
	for _, t := range toolset {
		if err := registry.Register(t); err != nil {
			closeTools()
			return nil, err
		}
	}
	wrapped := make([]lctools.Tool, 0, len(toolset))
	for _, t := range toolset {
		wrapped = append(wrapped, &registryTool{registry: registry, tool: t})
	}

	oneShot := lcagents.NewOneShotAgent(model, wrapped,
		lcagents.WithMaxIterations(cfg.MaxTurns))
	executor := lcagents.NewExecutor(oneShot)

	run := func(ctx context.Context, prompt string) (string, error) {
		task := prompt
		if cfg.Instructions != "" {
			task = cfg.Instructions + "\n\n" + prompt
		}
		out, err := chains.Run(ctx, executor, task)
		if err != nil {
			return "", fmt.Errorf("langchain executor: %w", err)
		}
		return out, nil
	}
	return agent.NewInstrumented(Framework, cfg, run).OnClose(closeTools), nil
}

// registryTool adapts a registered tool to the LangChainGo tool interface.
// Executing through the registry keeps tool spans and schema validation.
type registryTool struct {
	registry tools.Registry
	tool     tools.Tool
}

func (t *registryTool) Name() string        { return t.tool.Name() }
func (t *registryTool) Description() string { return t.tool.Description() }

func (t *registryTool) Call(ctx context.Context, input string) (string, error) {
	return t.registry.Execute(ctx, t.tool.Name(), coerceInput(t.tool, input))
}

// coerceInput turns a bare string into the JSON object the tool's schema
// expects. MRKL agents emit action inputs as plain text, not JSON.
func coerceInput(t tools.Tool, input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed
	}
	prop := firstRequiredProperty(t.Schema())
	if prop == "" {
		return input
	}
	encoded, err := json.Marshal(map[string]string{prop: trimmed})
	if err != nil {
		return input
	}
	return string(encoded)
}

func firstRequiredProperty(schema map[string]interface{}) string {
	if schema == nil {
		return ""
	}
	switch required := schema["required"].(type) {
	case []string:
		if len(required) > 0 {
			return required[0]
		}
	case []interface{}:
		if len(required) > 0 {
			if name, ok := required[0].(string); ok {
				return name
			}
		}
	}
	return ""
}

var _ lctools.Tool = (*registryTool)(nil)
