package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anyagent/anyagent/agent"
	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/tracestore/inmemory"
	"github.com/anyagent/anyagent/tracing"
)

// mockAgent replays a result and records the prompts it saw.
type mockAgent struct {
	result  *agent.Result
	err     error
	prompts []string
}

func (m *mockAgent) Run(ctx context.Context, prompt string) (*agent.Result, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func testServer(t *testing.T, mock *mockAgent, store *inmemory.Store) *Server {
	t.Helper()
	var s *Server
	if store != nil {
		s = NewServer(config.AgentConfig{ModelID: "gpt-4o-mini"}, store, nil, Config{})
	} else {
		s = NewServer(config.AgentConfig{ModelID: "gpt-4o-mini"}, nil, nil, Config{})
	}
	s.create = func(ctx context.Context, framework string, cfg config.AgentConfig) (agent.Agent, error) {
		if framework == "unknown" {
			return nil, fmt.Errorf("unsupported framework %q", framework)
		}
		return mock, nil
	}
	return s
}

func runBody(t *testing.T, framework, prompt string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(RunRequest{Framework: framework, Prompt: prompt})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewBuffer(body)
}

func TestNewServerDefaults(t *testing.T) {
	s := NewServer(config.AgentConfig{}, nil, nil, Config{})

	if s.config.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", s.config.Port)
	}
	if s.config.ReadTimeout != 10*time.Second {
		t.Errorf("Expected default ReadTimeout 10s, got %v", s.config.ReadTimeout)
	}
	if s.config.WriteTimeout != 5*time.Minute {
		t.Errorf("Expected default WriteTimeout 5m, got %v", s.config.WriteTimeout)
	}
	if s.server.Addr != ":8080" {
		t.Errorf("Expected server addr :8080, got %s", s.server.Addr)
	}
}

func TestHealthHandler(t *testing.T) {
	s := testServer(t, &mockAgent{}, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	s.healthHandler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse JSON response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %s", response["status"])
	}
}

func TestRunHandler(t *testing.T) {
	store := inmemory.NewStore()
	mock := &mockAgent{result: &agent.Result{
		RunID:       "run-42",
		FinalOutput: "Paris",
		Framework:   "openai",
		Trace: &tracing.Trace{RunID: "run-42", Spans: []tracing.Span{
			{Name: tracing.SpanAgentInvoke},
		}},
	}}
	s := testServer(t, mock, store)

	req := httptest.NewRequest("POST", "/run", runBody(t, "openai", "Capital of France?"))
	w := httptest.NewRecorder()
	s.runHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.RunID != "run-42" || resp.FinalOutput != "Paris" || resp.Framework != "openai" {
		t.Errorf("Unexpected response %+v", resp)
	}
	if len(mock.prompts) != 1 || mock.prompts[0] != "Capital of France?" {
		t.Errorf("Agent saw prompts %v", mock.prompts)
	}

	// The trace must have been persisted.
	if _, err := store.Get(context.Background(), "run-42"); err != nil {
		t.Errorf("Expected stored trace, got %v", err)
	}
}

type closableMockAgent struct {
	mockAgent
	closed bool
}

func (c *closableMockAgent) Close() error {
	c.closed = true
	return nil
}

func TestRunHandlerClosesAgent(t *testing.T) {
	mock := &closableMockAgent{mockAgent: mockAgent{result: &agent.Result{
		RunID:       "run-close",
		FinalOutput: "done",
		Framework:   "openai",
	}}}
	s := testServer(t, &mock.mockAgent, nil)
	s.create = func(ctx context.Context, framework string, cfg config.AgentConfig) (agent.Agent, error) {
		return mock, nil
	}

	req := httptest.NewRequest("POST", "/run", runBody(t, "openai", "task"))
	w := httptest.NewRecorder()
	s.runHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !mock.closed {
		t.Error("Expected the agent to be closed after the run")
	}
}

func TestRunHandlerValidation(t *testing.T) {
	s := testServer(t, &mockAgent{}, nil)

	cases := []struct {
		name string
		body string
	}{
		{"bad json", "{not json"},
		{"missing framework", `{"prompt": "hi"}`},
		{"missing prompt", `{"framework": "openai"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/run", bytes.NewBufferString(tc.body))
			w := httptest.NewRecorder()
			s.runHandler(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestRunHandlerMethodNotAllowed(t *testing.T) {
	s := testServer(t, &mockAgent{}, nil)

	req := httptest.NewRequest("GET", "/run", nil)
	w := httptest.NewRecorder()
	s.runHandler(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestRunHandlerUnknownFramework(t *testing.T) {
	s := testServer(t, &mockAgent{}, nil)

	req := httptest.NewRequest("POST", "/run", runBody(t, "unknown", "hi"))
	w := httptest.NewRecorder()
	s.runHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	var resp RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Error == "" {
		t.Error("Expected error message in response")
	}
}

func TestRunHandlerAgentError(t *testing.T) {
	mock := &mockAgent{err: fmt.Errorf("model is down")}
	s := testServer(t, mock, nil)

	req := httptest.NewRequest("POST", "/run", runBody(t, "openai", "hi"))
	w := httptest.NewRecorder()
	s.runHandler(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestTraceHandler(t *testing.T) {
	store := inmemory.NewStore()
	trace := &tracing.Trace{RunID: "run-7", Spans: []tracing.Span{{Name: tracing.SpanAgentInvoke}}}
	if err := store.Save(context.Background(), trace); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	s := testServer(t, &mockAgent{}, store)

	req := httptest.NewRequest("GET", "/traces/run-7", nil)
	w := httptest.NewRecorder()
	s.traceHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var got tracing.Trace
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("Failed to parse trace: %v", err)
	}
	if got.RunID != "run-7" {
		t.Errorf("Expected run-7, got %s", got.RunID)
	}
}

func TestTraceHandlerNotFound(t *testing.T) {
	s := testServer(t, &mockAgent{}, inmemory.NewStore())

	req := httptest.NewRequest("GET", "/traces/missing", nil)
	w := httptest.NewRecorder()
	s.traceHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestTraceHandlerNoStore(t *testing.T) {
	s := testServer(t, &mockAgent{}, nil)

	req := httptest.NewRequest("GET", "/traces/run-1", nil)
	w := httptest.NewRecorder()
	s.traceHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestTraceHandlerMissingID(t *testing.T) {
	s := testServer(t, &mockAgent{}, inmemory.NewStore())

	req := httptest.NewRequest("GET", "/traces/", nil)
	w := httptest.NewRecorder()
	s.traceHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestFrameworksHandler(t *testing.T) {
	s := testServer(t, &mockAgent{}, nil)

	req := httptest.NewRequest("GET", "/frameworks", nil)
	w := httptest.NewRecorder()
	s.frameworksHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string][]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if _, ok := resp["frameworks"]; !ok {
		t.Error("Expected frameworks key in response")
	}
}

func TestCORSMiddleware(t *testing.T) {
	s := NewServer(config.AgentConfig{}, nil, nil, Config{EnableCORS: true})

	req := httptest.NewRequest("OPTIONS", "/run", nil)
	w := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for preflight, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS origin header")
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	s := NewServer(config.AgentConfig{}, nil, nil, Config{Port: 18099})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.ListenAndServe(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Server did not shut down")
	}
}
