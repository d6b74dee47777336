package llm

import "strings"

// Provider identifies an LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Model describes a catalog entry with pricing per million tokens in USD.
type Model struct {
	Provider   Provider `json:"provider"`
	Name       string   `json:"name"`
	InputCost  float64  `json:"input_cost"`
	OutputCost float64  `json:"output_cost"`
}

// OpenAI model identifiers.
const (
	ModelGPT4o     = "gpt-4o"
	ModelGPT4oMini = "gpt-4o-mini"
	ModelGPT4Turbo = "gpt-4-turbo"
	ModelO3Mini    = "o3-mini"
)

// Anthropic model identifiers.
const (
	ModelClaude35Sonnet = "claude-3-5-sonnet-20241022"
	ModelClaude35Haiku  = "claude-3-5-haiku-20241022"
	ModelClaudeOpus     = "claude-3-opus-20240229"
)

// Catalog maps known model identifiers to their metadata. Unknown models are
// still usable; they just get zero cost estimates.
var Catalog = map[string]Model{
	ModelGPT4o:     {Provider: ProviderOpenAI, Name: ModelGPT4o, InputCost: 2.5, OutputCost: 10.0},
	ModelGPT4oMini: {Provider: ProviderOpenAI, Name: ModelGPT4oMini, InputCost: 0.15, OutputCost: 0.60},
	ModelGPT4Turbo: {Provider: ProviderOpenAI, Name: ModelGPT4Turbo, InputCost: 10.0, OutputCost: 30.0},
	ModelO3Mini:    {Provider: ProviderOpenAI, Name: ModelO3Mini, InputCost: 1.1, OutputCost: 4.4},

	ModelClaude35Sonnet: {Provider: ProviderAnthropic, Name: ModelClaude35Sonnet, InputCost: 3.0, OutputCost: 15.0},
	ModelClaude35Haiku:  {Provider: ProviderAnthropic, Name: ModelClaude35Haiku, InputCost: 0.8, OutputCost: 4.0},
	ModelClaudeOpus:     {Provider: ProviderAnthropic, Name: ModelClaudeOpus, InputCost: 15.0, OutputCost: 75.0},
}

// Lookup returns the catalog entry for a model id.
func Lookup(name string) (Model, bool) {
	m, ok := Catalog[name]
	return m, ok
}

// GuessProvider infers the provider from a model id, falling back to the
// catalog for exact matches. Unknown ids default to OpenAI, which is also the
// convention for OpenAI-compatible endpoints.
func GuessProvider(modelID string) Provider {
	if m, ok := Catalog[modelID]; ok {
		return m.Provider
	}
	if strings.HasPrefix(modelID, "claude") {
		return ProviderAnthropic
	}
	return ProviderOpenAI
}

// EstimateCost computes the USD cost of a completion. Unknown models cost
// zero; tokens are still recorded by the caller.
func (m Model) EstimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1e6*m.InputCost + float64(outputTokens)/1e6*m.OutputCost
}
