// Package smolagents runs agents on the go-smolagents ReAct framework.
// Import it for its side effect of registering the "smolagents" framework:
//
//	import _ "github.com/anyagent/anyagent/adapters/smolagents"
package smolagents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	smolagents "github.com/rizome-dev/go-smolagents/pkg/smolagents/agents"
	smolmodels "github.com/rizome-dev/go-smolagents/pkg/smolagents/models"
	smoltools "github.com/rizome-dev/go-smolagents/pkg/smolagents/tools"

	"github.com/anyagent/anyagent/agent"
	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/tools"
)

// Framework is the id this adapter registers under.
const Framework = "smolagents"

func init() {
	agent.Register(Framework, Load)
}

// Load builds an agent on a go-smolagents tool-calling agent over an
// OpenAI-compatible model server.
func Load(ctx context.Context, cfg config.AgentConfig) (agent.Agent, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("smolagents requires an API key (set api_key_var or OPENAI_API_KEY)")
	}

	model := smolmodels.NewOpenAIServerModel(cfg.ModelID, cfg.APIBase, apiKey, nil)

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
	runCtx := &runContext{}
	wrapped := make([]smoltools.Tool, 0, len(toolset))
	for _, t := range toolset {
		wrapped = append(wrapped, wrapTool(registry, runCtx, t))
	}

	smolAgent, err := smolagents.NewToolCallingAgent(model, wrapped, cfg.Instructions, nil)
	if err != nil {
		closeTools()
		return nil, fmt.Errorf("smolagents agent: %w", err)
	}

	run := func(ctx context.Context, prompt string) (string, error) {
		runCtx.set(ctx)
		defer runCtx.clear()

		result, err := smolAgent.Run(&smolagents.RunOptions{
			Task:     prompt,
			MaxSteps: cfg.MaxTurns,
			Context:  ctx,
		})
		if err != nil {
			return "", fmt.Errorf("smolagents run: %w", err)
		}
		if out, ok := result.Output.(string); ok {
			return out, nil
		}
		return fmt.Sprintf("%v", result.Output), nil
	}
	return agent.NewInstrumented(Framework, cfg, run).OnClose(closeTools), nil
}

// runContext hands the active run's context to the tool forwards, whose
// smolagents signature carries no context of its own. Tool executions then
// land inside the run's trace instead of starting one of their own.
type runContext struct {
	mu  sync.Mutex
	ctx context.Context
}

func (r *runContext) set(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()
}

func (r *runContext) clear() {
	r.mu.Lock()
	r.ctx = nil
	r.mu.Unlock()
}

func (r *runContext) current() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// wrapTool exposes a registered tool to smolagents. Execution goes back
// through the registry so tool spans and schema validation still apply.
func wrapTool(registry tools.Registry, runCtx *runContext, t tools.Tool) smoltools.Tool {
	names, inputs := toolInputs(t.Schema())
	return smoltools.NewBaseTool(t.Name(), t.Description(), inputs,
		forwardFunc(registry, runCtx, t.Name(), names))
}

// forwardFunc builds the forward closure for one tool.
func forwardFunc(registry tools.Registry, runCtx *runContext, name string, names []string) func(args ...interface{}) (interface{}, error) {
	return func(args ...interface{}) (interface{}, error) {
		input, err := encodeArgs(names, args)
		if err != nil {
			return nil, err
		}
		return registry.Execute(runCtx.current(), name, input)
	}
}

// toolInputs converts a JSON schema's properties into smolagents tool
// inputs. Names come back sorted so positional arguments line up.
func toolInputs(schema map[string]interface{}) ([]string, map[string]*smoltools.ToolInput) {
	inputs := make(map[string]*smoltools.ToolInput)
	props, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for propName, raw := range props {
		names = append(names, propName)
		in := &smoltools.ToolInput{Type: "string"}
		if prop, ok := raw.(map[string]interface{}); ok {
			if typ, ok := prop["type"].(string); ok {
				in.Type = typ
			}
			if desc, ok := prop["description"].(string); ok {
				in.Description = desc
			}
		}
		inputs[propName] = in
	}
	sort.Strings(names)
	return names, inputs
}

// encodeArgs rebuilds the JSON object a registered tool expects. smolagents
// hands the forward function either a keyword map or positional values.
func encodeArgs(names []string, args []interface{}) (string, error) {
	values := make(map[string]interface{})
	if len(args) == 1 {
		if kwargs, ok := args[0].(map[string]interface{}); ok {
			values = kwargs
		}
	}
	if len(values) == 0 {
		for i, arg := range args {
			if i >= len(names) {
				break
			}
			values[names[i]] = arg
		}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encoding tool arguments: %w", err)
	}
	return string(encoded), nil
}
