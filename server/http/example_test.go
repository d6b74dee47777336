package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"

	"github.com/anyagent/anyagent/agent"
	"github.com/anyagent/anyagent/config"
)

type exAgent struct{}

func (exAgent) Run(ctx context.Context, prompt string) (*agent.Result, error) {
	return &agent.Result{RunID: "example-run", FinalOutput: "pong", Framework: "openai"}, nil
}

func ExampleServer_run() {
	s := NewServer(config.AgentConfig{ModelID: "gpt-4o-mini"}, nil, nil, Config{})
	s.create = func(ctx context.Context, framework string, cfg config.AgentConfig) (agent.Agent, error) {
		return exAgent{}, nil
	}

	reqBody, _ := json.Marshal(RunRequest{Framework: "openai", Prompt: "ping"})
	req := httptest.NewRequest("POST", "/run", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.runHandler(w, req)
	fmt.Println(w.Code)
	// Output:
	// 200
}
