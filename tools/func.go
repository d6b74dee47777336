package tools

import "context"

// Func adapts a plain function into a Tool. It is the cheapest way to expose
// a capability; agents wrapping other agents use it too.
type Func struct {
	ToolName   string
	ToolDesc   string
	ToolSchema map[string]interface{}
	Fn         func(ctx context.Context, input string) (string, error)
}

// Name implements Tool.
func (f *Func) Name() string { return f.ToolName }

// Description implements Tool.
func (f *Func) Description() string { return f.ToolDesc }

// Execute implements Tool.
func (f *Func) Execute(ctx context.Context, input string) (string, error) {
	return f.Fn(ctx, input)
}

// Schema implements Tool.
func (f *Func) Schema() map[string]interface{} { return f.ToolSchema }

var _ Tool = (*Func)(nil)
