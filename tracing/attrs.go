package tracing

import "go.opentelemetry.io/otel/attribute"

// Span names used across adapters. Traces only stay comparable across
// frameworks if every adapter emits the same vocabulary.
const (
	SpanAgentInvoke = "agent.invoke"
	SpanLLMChat     = "llm.chat"
	SpanToolExecute = "tool.execute"
)

// Attribute keys following the GenAI semantic conventions where they exist,
// with an "anyagent." prefix for the run-level keys they do not cover.
const (
	AttrSystem        = attribute.Key("gen_ai.system")
	AttrRequestModel  = attribute.Key("gen_ai.request.model")
	AttrResponseModel = attribute.Key("gen_ai.response.model")
	AttrInputTokens   = attribute.Key("gen_ai.usage.input_tokens")
	AttrOutputTokens  = attribute.Key("gen_ai.usage.output_tokens")
	AttrFinishReason  = attribute.Key("gen_ai.response.finish_reasons")
	AttrToolName      = attribute.Key("gen_ai.tool.name")
	AttrToolArgs      = attribute.Key("gen_ai.tool.args")

	AttrRunID       = attribute.Key("anyagent.run_id")
	AttrAgentName   = attribute.Key("anyagent.agent.name")
	AttrFramework   = attribute.Key("anyagent.framework")
	AttrFinalOutput = attribute.Key("anyagent.final_output")
	AttrCost        = attribute.Key("anyagent.usage.cost_usd")
	AttrPrompt      = attribute.Key("anyagent.input.prompt")
)
