// Package anthropic runs agents on the Anthropic Messages tool-use protocol.
// Import it for its side effect of registering the "anthropic" framework:
//
//	import _ "github.com/anyagent/anyagent/adapters/anthropic"
package anthropic

import (
	"context"
	"fmt"
	"os"

	"github.com/anyagent/anyagent/agent"
	"github.com/anyagent/anyagent/config"
	ant "github.com/anyagent/anyagent/llm/anthropic"
)

// Framework is the id this adapter registers under.
const Framework = "anthropic"

func init() {
	agent.Register(Framework, Load)
}

// Load builds an agent on the native loop with an Anthropic client.
func Load(ctx context.Context, cfg config.AgentConfig) (agent.Agent, error) {
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("anthropic requires a model_id")
	}
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic requires an API key (set api_key_var or ANTHROPIC_API_KEY)")
	}

	clientCfg := ant.Config{
		APIKey:  apiKey,
		Model:   cfg.ModelID,
		BaseURL: cfg.APIBase,
	}
	if temp, ok := cfg.Float64Arg("temperature"); ok {
		clientCfg.Temperature = temp
	}
	if maxTokens, ok := cfg.IntArg("max_tokens"); ok {
		clientCfg.MaxTokens = maxTokens
	}

	client, err := ant.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}

	toolset, closeTools, err := agent.Toolset(ctx, Framework, cfg, nil)
	if err != nil {
		return nil, err
	}
	return agent.NewNative(agent.NativeConfig{
		Client:    client,
		Config:    cfg,
		Tools:     toolset,
		Framework: Framework,
		Close:     closeTools,
	})
}
