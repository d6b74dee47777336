// Package langgraph runs agents on a LangGraphGo message graph. Import it
// for its side effect of registering the "langgraph" framework:
//
//	import _ "github.com/anyagent/anyagent/adapters/langgraph"
package langgraph

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langgraphgo/graph"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/anyagent/anyagent/agent"
	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/tools"
)

// Framework is the id this adapter registers under.
const Framework = "langgraph"

const agentNode = "agent"

func init() {
	agent.Register(Framework, Load)
}

// Load builds an agent as a compiled message graph. The graph has a single
// agent node that drives the model's tool-calling protocol until the model
// answers without tool calls or the turn budget runs out.
func Load(ctx context.Context, cfg config.AgentConfig) (agent.Agent, error) {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("langgraph requires an API key (set api_key_var or OPENAI_API_KEY)")
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

	node := &toolLoopNode{
		model:    model,
		registry: registry,
		maxTurns: cfg.MaxTurns,
	}

	g := graph.NewMessageGraph()
	g.AddNode(agentNode, node.run)
	g.AddEdge(agentNode, graph.END)
	g.SetEntryPoint(agentNode)
	runnable, err := g.Compile()
	if err != nil {
		closeTools()
		return nil, fmt.Errorf("langgraph compile: %w", err)
	}

	run := func(ctx context.Context, prompt string) (string, error) {
		state := []llms.MessageContent{}
		if cfg.Instructions != "" {
			state = append(state, llms.TextParts(llms.ChatMessageTypeSystem, cfg.Instructions))
		}
		state = append(state, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

		out, err := runnable.Invoke(ctx, state)
		if err != nil {
			return "", fmt.Errorf("langgraph invoke: %w", err)
		}
		if len(out) == 0 {
			return "", fmt.Errorf("langgraph produced no messages")
		}
		return messageText(out[len(out)-1]), nil
	}
	return agent.NewInstrumented(Framework, cfg, run).OnClose(closeTools), nil
}

// toolLoopNode is the graph node that talks to the model. Tool executions go
// through the registry so they are validated and traced.
type toolLoopNode struct {
	model    llms.Model
	registry tools.Registry
	maxTurns int
}

func (n *toolLoopNode) run(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
	toolDefs := n.toolDefs()

	for turn := 0; turn < n.maxTurns; turn++ {
		resp, err := n.model.GenerateContent(ctx, state, llms.WithTools(toolDefs))
		if err != nil {
			return nil, fmt.Errorf("model call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("model returned no choices")
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			return append(state, llms.TextParts(llms.ChatMessageTypeAI, choice.Content)), nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, call := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, call)
		}
		state = append(state, assistant)

		for _, call := range choice.ToolCalls {
			result, err := n.registry.Execute(ctx, call.FunctionCall.Name, call.FunctionCall.Arguments)
			if err != nil {
				result = fmt.Sprintf("error: %v", err)
			}
			state = append(state, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: call.ID,
					Name:       call.FunctionCall.Name,
					Content:    result,
				}},
			})
		}
	}
	return nil, fmt.Errorf("%w (%d)", agent.ErrMaxTurns, n.maxTurns)
}

func (n *toolLoopNode) toolDefs() []llms.Tool {
	var defs []llms.Tool
	for _, name := range n.registry.List() {
		t, ok := n.registry.Get(name)
		if !ok {
			continue
		}
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Schema(),
			},
		})
	}
	return defs
}

func messageText(msg llms.MessageContent) string {
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
