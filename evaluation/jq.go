package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/anyagent/anyagent/tracing"
)

const jqPrefix = "jq:"

func isJQCriteria(criteria string) bool {
	return strings.HasPrefix(strings.TrimSpace(criteria), jqPrefix)
}

// evalJQ runs a jq expression against the trace JSON. The checkpoint passes
// when the first result is truthy (anything but null or false).
func evalJQ(ctx context.Context, criteria string, trace *tracing.Trace) (bool, string, error) {
	expr := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(criteria), jqPrefix))
	query, err := gojq.Parse(expr)
	if err != nil {
		return false, "", fmt.Errorf("parsing jq expression %q: %w", expr, err)
	}

	data, err := trace.JSON()
	if err != nil {
		return false, "", fmt.Errorf("encoding trace: %w", err)
	}
	input := make(map[string]interface{})
	if err := json.Unmarshal(data, &input); err != nil {
		return false, "", fmt.Errorf("decoding trace: %w", err)
	}

	iter := query.RunWithContext(ctx, input)
	v, ok := iter.Next()
	if !ok {
		return false, "jq produced no result", nil
	}
	if jqErr, isErr := v.(error); isErr {
		return false, "", fmt.Errorf("running jq expression %q: %w", expr, jqErr)
	}
	if v == nil || v == false {
		return false, fmt.Sprintf("jq returned %v", v), nil
	}
	return true, fmt.Sprintf("jq returned %v", v), nil
}
