package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anyagent/anyagent/tools"
)

// AsTool exposes an agent as a tool another agent can call. The managed
// agent runs its own full loop; its final output becomes the tool result.
func AsTool(a Agent, name, description string) tools.Tool {
	if description == "" {
		description = fmt.Sprintf("Delegate a task to the %s agent.", name)
	}
	return &tools.Func{
		ToolName: name,
		ToolDesc: description,
		ToolSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "The task for the agent to carry out.",
				},
			},
			"required": []string{"prompt"},
		},
		Fn: func(ctx context.Context, input string) (string, error) {
			var args struct {
				Prompt string `json:"prompt"`
			}
			if err := json.Unmarshal([]byte(input), &args); err != nil || args.Prompt == "" {
				// Some frameworks pass the task as a bare string.
				args.Prompt = input
			}
			result, err := a.Run(ctx, args.Prompt)
			if err != nil {
				return "", err
			}
			return result.FinalOutput, nil
		},
	}
}
