package langchain

import (
	"context"
	"testing"

	"github.com/anyagent/anyagent/agent"
	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/tools"
)

func echoTool() *tools.Func {
	return &tools.Func{
		ToolName: "echo",
		ToolDesc: "Echoes the query back.",
		ToolSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string"},
			},
			"required": []string{"query"},
		},
		Fn: func(ctx context.Context, input string) (string, error) {
			return input, nil
		},
	}
}

func TestFrameworkRegistered(t *testing.T) {
	found := false
	for _, id := range agent.Frameworks() {
		if id == Framework {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %q in registered frameworks, got %v", Framework, agent.Frameworks())
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg := config.AgentConfig{ModelID: "gpt-4o-mini", MaxTurns: 3}
	if _, err := Load(context.Background(), cfg); err == nil {
		t.Error("Expected error without an API key")
	}
}

func TestCoerceInputBareString(t *testing.T) {
	got := coerceInput(echoTool(), "golang concurrency")
	want := `{"query":"golang concurrency"}`
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestCoerceInputJSONObject(t *testing.T) {
	input := `{"query": "golang"}`
	if got := coerceInput(echoTool(), input); got != input {
		t.Errorf("Expected JSON input to pass through, got %s", got)
	}
}

func TestCoerceInputTrimsWhitespace(t *testing.T) {
	got := coerceInput(echoTool(), "  golang\n")
	want := `{"query":"golang"}`
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestCoerceInputNoSchema(t *testing.T) {
	bare := &tools.Func{
		ToolName: "bare",
		ToolDesc: "No schema.",
		Fn: func(ctx context.Context, input string) (string, error) {
			return input, nil
		},
	}
	if got := coerceInput(bare, "raw text"); got != "raw text" {
		t.Errorf("Expected raw input without a schema, got %s", got)
	}
}

func TestFirstRequiredProperty(t *testing.T) {
	schema := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"url", "depth"},
	}
	if got := firstRequiredProperty(schema); got != "url" {
		t.Errorf("Expected url, got %s", got)
	}
	if got := firstRequiredProperty(nil); got != "" {
		t.Errorf("Expected empty property for nil schema, got %s", got)
	}
}

func TestRegistryToolCall(t *testing.T) {
	var received string
	tool := echoTool()
	tool.Fn = func(ctx context.Context, input string) (string, error) {
		received = input
		return "ok", nil
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	wrapped := &registryTool{registry: registry, tool: tool}

	if wrapped.Name() != "echo" {
		t.Errorf("Expected name echo, got %s", wrapped.Name())
	}
	out, err := wrapped.Call(context.Background(), "some question")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if out != "ok" {
		t.Errorf("Expected ok, got %s", out)
	}
	if received != `{"query":"some question"}` {
		t.Errorf("Expected coerced JSON input, got %s", received)
	}
}

func TestRegistryToolCallRejectsBadInput(t *testing.T) {
	tool := echoTool()
	registry := tools.NewRegistry()
	if err := registry.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	wrapped := &registryTool{registry: registry, tool: tool}

	if _, err := wrapped.Call(context.Background(), `{"wrong": "field"}`); err == nil {
		t.Error("Expected schema validation error for wrong field")
	}
}
