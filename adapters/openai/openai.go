// Package openai runs agents on the OpenAI chat completions tool-calling
// protocol. Import it for its side effect of registering the "openai"
// framework:
//
//	import _ "github.com/anyagent/anyagent/adapters/openai"
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/anyagent/anyagent/agent"
	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/llm"
	oai "github.com/anyagent/anyagent/llm/openai"
)

// Framework is the id this adapter registers under.
const Framework = "openai"

func init() {
	agent.Register(Framework, Load)
}

// Load builds an agent on the native loop with an OpenAI client.
func Load(ctx context.Context, cfg config.AgentConfig) (agent.Agent, error) {
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("openai requires a model_id")
	}
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	clientCfg := oai.Config{
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

	client, err := oai.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}

	return newNative(ctx, cfg, client)
}

func newNative(ctx context.Context, cfg config.AgentConfig, client llm.Client) (agent.Agent, error) {
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
