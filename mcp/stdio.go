package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

const protocolVersion = "2024-11-05"

// StdioConfig describes an MCP server launched as a subprocess.
type StdioConfig struct {
	Command string
	Args    []string
	Env     map[string]string // added on top of the current environment
}

// StdioClient speaks JSON-RPC 2.0 with an MCP server over the subprocess's
// stdin and stdout, one message per line.
type StdioClient struct {
	cmd    *exec.Cmd
	stdin  *json.Encoder
	stdout *bufio.Scanner

	mu     sync.Mutex
	nextID int64
	closed bool
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      *int64      `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("mcp server error %d: %s", e.Code, e.Message)
}

// NewStdioClient starts the server process and performs the MCP
// initialization handshake.
func NewStdioClient(ctx context.Context, cfg StdioConfig) (*StdioClient, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("mcp stdio: command is required")
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Env = os.Environ()
	for k, v := range cfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("mcp stdio: start %s: %w", cfg.Command, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	c := &StdioClient{
		cmd:    cmd,
		stdin:  json.NewEncoder(stdin),
		stdout: scanner,
	}

	if err := c.initialize(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *StdioClient) initialize(ctx context.Context) error {
	params := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]interface{}{
			"name":    "anyagent",
			"version": "1.0",
		},
	}
	if _, err := c.call(ctx, "initialize", params); err != nil {
		return fmt.Errorf("mcp stdio: initialize: %w", err)
	}
	return c.notify("notifications/initialized", nil)
}

// call sends one request and reads responses until the matching id arrives.
func (c *StdioClient) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("mcp stdio: client closed")
	}

	c.nextID++
	id := c.nextID
	req := rpcRequest{JSONRPC: "2.0", ID: &id, Method: method, Params: params}
	if err := c.stdin.Encode(req); err != nil {
		return nil, fmt.Errorf("mcp stdio: write request: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !c.stdout.Scan() {
			if err := c.stdout.Err(); err != nil {
				return nil, fmt.Errorf("mcp stdio: read response: %w", err)
			}
			return nil, fmt.Errorf("mcp stdio: server closed the connection")
		}
		line := strings.TrimSpace(c.stdout.Text())
		if line == "" {
			continue
		}

		var resp rpcResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			// Servers may log non-protocol lines to stdout; skip them.
			continue
		}
		if resp.ID == nil || *resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

func (c *StdioClient) notify(method string, params interface{}) error {
	return c.stdin.Encode(rpcRequest{JSONRPC: "2.0", Method: method, Params: params})
}

// ListTools implements Client.
func (c *StdioClient) ListTools(ctx context.Context) ([]ToolInfo, error) {
	raw, err := c.call(ctx, "tools/list", map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	var out struct {
		Tools []ToolInfo `json:"tools"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("mcp stdio: decode tools: %w", err)
	}
	return out.Tools, nil
}

// CallTool implements Client.
func (c *StdioClient) CallTool(ctx context.Context, name string, args string) (string, error) {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	var arguments map[string]interface{}
	if err := json.Unmarshal([]byte(args), &arguments); err != nil {
		return "", fmt.Errorf("mcp stdio: tool args must be a JSON object: %w", err)
	}

	raw, err := c.call(ctx, "tools/call", map[string]interface{}{
		"name":      name,
		"arguments": arguments,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("mcp stdio: decode result: %w", err)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if out.IsError {
		return "", fmt.Errorf("tool %s failed: %s", name, text.String())
	}
	return text.String(), nil
}

// Close implements Client, terminating the server process.
func (c *StdioClient) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.cmd.Process != nil {
		c.cmd.Process.Kill()
	}
	return c.cmd.Wait()
}

var _ Client = (*StdioClient)(nil)
