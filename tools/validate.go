package tools

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateInput checks a JSON input string against the tool's schema. Tools
// without a schema accept anything.
func ValidateInput(tool Tool, input string) error {
	schema := tool.Schema()
	if len(schema) == 0 {
		return nil
	}
	if strings.TrimSpace(input) == "" {
		input = "{}"
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewStringLoader(input),
	)
	if err != nil {
		return fmt.Errorf("tool %s: invalid input: %w", tool.Name(), err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("tool %s: input does not match schema: %s", tool.Name(), strings.Join(msgs, "; "))
}
