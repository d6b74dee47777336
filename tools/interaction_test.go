package tools

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestShowPlanTool(t *testing.T) {
	tool := NewShowPlanTool(nil)

	result, err := tool.Execute(context.Background(), `{"plan": "1. search 2. answer"}`)
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if result != "1. search 2. answer" {
		t.Errorf("Expected plan echoed back, got %q", result)
	}

	if _, err := tool.Execute(context.Background(), `{}`); err == nil {
		t.Error("Expected error for missing plan")
	}
}

func TestShowFinalAnswerTool(t *testing.T) {
	tool := NewShowFinalAnswerTool(nil)

	result, err := tool.Execute(context.Background(), `{"answer": "42"}`)
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if result != "42" {
		t.Errorf("Expected answer echoed back, got %q", result)
	}
}

func TestAskUserVerificationTool(t *testing.T) {
	in := strings.NewReader("yes, proceed\n")
	var out bytes.Buffer
	tool := NewAskUserVerificationTool(in, &out)

	result, err := tool.Execute(context.Background(), `{"query": "Delete the file?"}`)
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if result != "yes, proceed" {
		t.Errorf("Expected user answer, got %q", result)
	}
	if !strings.Contains(out.String(), "Delete the file?") {
		t.Errorf("Expected prompt written to output, got %q", out.String())
	}
}

func TestAskUserVerificationTool_EmptyInput(t *testing.T) {
	tool := NewAskUserVerificationTool(strings.NewReader(""), &bytes.Buffer{})

	result, err := tool.Execute(context.Background(), `{"query": "Continue?"}`)
	if err != nil {
		t.Fatalf("Expected success on EOF, got: %v", err)
	}
	if result != "" {
		t.Errorf("Expected empty answer on EOF, got %q", result)
	}
}

func TestDefaultRegistryWith(t *testing.T) {
	registry := DefaultRegistryWith(nil)

	expected := []string{
		"ask_user_verification",
		"search_web",
		"show_final_answer",
		"show_plan",
		"visit_webpage",
	}
	names := registry.List()
	if len(names) != len(expected) {
		t.Fatalf("Expected %d builtins, got %v", len(expected), names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("Expected builtin %s at %d, got %s", name, i, names[i])
		}
	}
}

func TestFunc(t *testing.T) {
	tool := &Func{
		ToolName: "reverse",
		ToolDesc: "reverses input",
		Fn: func(ctx context.Context, input string) (string, error) {
			return input + input, nil
		},
	}

	if tool.Name() != "reverse" {
		t.Errorf("Expected name reverse, got %s", tool.Name())
	}
	result, err := tool.Execute(context.Background(), "ab")
	if err != nil {
		t.Fatalf("Expected success, got: %v", err)
	}
	if result != "abab" {
		t.Errorf("Expected abab, got %s", result)
	}
}
