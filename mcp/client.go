// Package mcp connects to Model Context Protocol servers and exposes their
// tools to agents. Two transports are supported: a subprocess speaking
// JSON-RPC over stdio, and plain HTTP.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ToolInfo is tool metadata as reported by an MCP server.
type ToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Client lists and calls tools on one MCP server.
type Client interface {
	ListTools(ctx context.Context) ([]ToolInfo, error)

	// CallTool invokes a tool. Args is a JSON object string.
	CallTool(ctx context.Context, name string, args string) (string, error)

	Close() error
}

// HTTPConfig holds HTTP transport connection details.
type HTTPConfig struct {
	BaseURL string
	Headers map[string]string
	Timeout time.Duration
}

// HTTPClient talks to an MCP server exposed over HTTP.
type HTTPClient struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPClient creates an HTTP transport client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	hc := &http.Client{Timeout: cfg.Timeout}
	if cfg.Timeout == 0 {
		hc.Timeout = 15 * time.Second
	}
	return &HTTPClient{cfg: cfg, client: hc}
}

type listToolsResp struct {
	Tools []ToolInfo `json:"tools"`
}

// ListTools implements Client.
func (c *HTTPClient) ListTools(ctx context.Context) ([]ToolInfo, error) {
	url := fmt.Sprintf("%s/tools", c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("mcp list tools failed: %s: %s", resp.Status, string(b))
	}
	var out listToolsResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Tools, nil
}

type callReq struct {
	Args json.RawMessage `json:"args"`
}

type callResp struct {
	Result string `json:"result"`
}

// CallTool implements Client.
func (c *HTTPClient) CallTool(ctx context.Context, name string, args string) (string, error) {
	if args == "" {
		args = "{}"
	}
	url := fmt.Sprintf("%s/tools/%s/call", c.cfg.BaseURL, name)
	body, err := json.Marshal(callReq{Args: json.RawMessage(args)})
	if err != nil {
		return "", fmt.Errorf("mcp call: encode args: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("mcp call failed: %s: %s", resp.Status, string(b))
	}
	var out callResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// Close implements Client. The HTTP transport holds no resources.
func (c *HTTPClient) Close() error { return nil }

var _ Client = (*HTTPClient)(nil)
