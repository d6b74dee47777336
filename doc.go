// Package anyagent provides top-level documentation for the anyagent module:
// define an LLM tool-using agent once and run it on any supported framework,
// with normalized OpenTelemetry traces and an evaluation harness for scoring
// them.
//
// Importers depend on the subpackages directly. A typical caller imports the
// agent registry plus the adapters for the frameworks it wants compiled in:
//
//	import (
//	  "github.com/anyagent/anyagent/agent"
//	  "github.com/anyagent/anyagent/config"
//	  _ "github.com/anyagent/anyagent/adapters/openai"
//	  _ "github.com/anyagent/anyagent/adapters/langchain"
//	)
//
//	a, err := agent.Create(ctx, "openai", config.AgentConfig{
//	  ModelID:      "gpt-4o-mini",
//	  Instructions: "You are a research assistant.",
//	  Tools:        []string{"search_web", "visit_webpage"},
//	})
//	result, err := a.Run(ctx, "Who won the 2024 Tour de France?")
//
// The root package intentionally keeps a small surface area; everything
// composable lives in `config`, `agent`, `adapters`, `llm`, `tools`, `mcp`,
// `tracing`, `tracestore`, `evaluation`, and `server`.
package anyagent
