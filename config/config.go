// Package config defines the framework-independent agent configuration.
// A single AgentConfig describes an agent once; each adapter translates it
// into its framework's native construction call.
package config

import (
	"fmt"
	"os"
)

// DefaultName is used when an agent config does not set a name.
const DefaultName = "default-name"

// DefaultMaxTurns bounds the tool-calling loop of the native adapters.
const DefaultMaxTurns = 10

// AgentConfig describes an agent independently of the framework that runs it.
type AgentConfig struct {
	// Name identifies the agent. Managed agents exposed as tools use it as
	// the tool name, so it should be a valid identifier.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// ModelID selects the model, e.g. "gpt-4o" or "claude-3-5-sonnet-20241022".
	ModelID string `yaml:"model_id" json:"model_id"`

	// Instructions is the system prompt handed to the framework.
	Instructions string `yaml:"instructions,omitempty" json:"instructions,omitempty"`

	// Description is used when this agent is exposed as a tool or handoff
	// target of another agent.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Tools lists registered tool names, e.g. "search_web".
	Tools []string `yaml:"tools,omitempty" json:"tools,omitempty"`

	// Handoff marks a managed agent as a handoff target rather than a plain
	// tool, for frameworks that distinguish the two.
	Handoff bool `yaml:"handoff,omitempty" json:"handoff,omitempty"`

	// APIBase overrides the provider endpoint.
	APIBase string `yaml:"api_base,omitempty" json:"api_base,omitempty"`

	// APIKeyVar names the environment variable holding the API key. When
	// empty, adapters fall back to their provider's conventional variable.
	APIKeyVar string `yaml:"api_key_var,omitempty" json:"api_key_var,omitempty"`

	// ModelArgs carries provider-specific generation options such as
	// "temperature" or "max_tokens".
	ModelArgs map[string]any `yaml:"model_args,omitempty" json:"model_args,omitempty"`

	// MaxTurns bounds the reasoning/tool loop where the wrapper controls it.
	MaxTurns int `yaml:"max_turns,omitempty" json:"max_turns,omitempty"`

	// ManagedAgents are subordinate agents exposed to the main agent as
	// callable tools (or handoffs, see Handoff).
	ManagedAgents []AgentConfig `yaml:"managed_agents,omitempty" json:"managed_agents,omitempty"`

	// MCPServers lists MCP servers whose tools are added to the agent.
	MCPServers []MCPParams `yaml:"mcp_servers,omitempty" json:"mcp_servers,omitempty"`
}

// MCPParams configures a connection to one MCP server. Either Command (stdio
// transport) or URL (HTTP transport) must be set.
type MCPParams struct {
	Command string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	URL     string            `yaml:"url,omitempty" json:"url,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// Tools filters the server's tools by name. Empty means all tools.
	Tools []string `yaml:"tools,omitempty" json:"tools,omitempty"`
}

// WithDefaults returns a copy of the config with defaults applied. The
// receiver is never mutated.
func (c AgentConfig) WithDefaults() AgentConfig {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	managed := make([]AgentConfig, len(c.ManagedAgents))
	for i, m := range c.ManagedAgents {
		managed[i] = m.WithDefaults()
		if managed[i].Name == DefaultName {
			managed[i].Name = fmt.Sprintf("managed-agent-%d", i)
		}
	}
	c.ManagedAgents = managed
	return c
}

// APIKey resolves the configured API key variable. A missing variable is an
// error naming it; an unset APIKeyVar resolves to the empty string so that
// provider SDK defaults apply.
func (c AgentConfig) APIKey() (string, error) {
	if c.APIKeyVar == "" {
		return "", nil
	}
	key, ok := os.LookupEnv(c.APIKeyVar)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", c.APIKeyVar)
	}
	return key, nil
}

// Validate checks the parts of the config the wrapper itself depends on.
// Framework-specific requirements are checked by the adapters.
func (c AgentConfig) Validate() error {
	if c.MaxTurns < 0 {
		return fmt.Errorf("max_turns must be non-negative, got %d", c.MaxTurns)
	}
	for i, m := range c.MCPServers {
		if m.Command == "" && m.URL == "" {
			return fmt.Errorf("mcp_servers[%d]: either command or url is required", i)
		}
		if m.Command != "" && m.URL != "" {
			return fmt.Errorf("mcp_servers[%d]: command and url are mutually exclusive", i)
		}
	}
	for _, m := range c.ManagedAgents {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("managed agent %q: %w", m.Name, err)
		}
	}
	return nil
}

// Float64Arg reads a float option from ModelArgs, accepting int and float
// YAML/JSON representations.
func (c AgentConfig) Float64Arg(key string) (float64, bool) {
	v, ok := c.ModelArgs[key]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// IntArg reads an integer option from ModelArgs.
func (c AgentConfig) IntArg(key string) (int, bool) {
	v, ok := c.ModelArgs[key]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	}
	return 0, false
}

// StringArg reads a string option from ModelArgs.
func (c AgentConfig) StringArg(key string) (string, bool) {
	v, ok := c.ModelArgs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
