// Package http exposes agents over HTTP: run an agent on any registered
// framework, fetch stored traces, and list the frameworks the binary was
// built with.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anyagent/anyagent/agent"
	"github.com/anyagent/anyagent/config"
	"github.com/anyagent/anyagent/tracestore"
)

// Config holds HTTP server configuration.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	EnableCORS   bool
}

// Server runs agents on request and serves recorded traces.
type Server struct {
	base   config.AgentConfig
	store  tracestore.Store
	logger *zap.Logger
	config Config
	server *http.Server

	// create is swapped out in tests.
	create func(ctx context.Context, framework string, cfg config.AgentConfig) (agent.Agent, error)
}

// NewServer creates an HTTP server. The base config is used for requests
// that do not carry their own agent config; store may be nil to disable
// trace persistence.
func NewServer(base config.AgentConfig, store tracestore.Store, logger *zap.Logger, cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	// Agent runs can take minutes.
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		base:   base,
		store:  store,
		logger: logger,
		config: cfg,
		create: agent.Create,
	}

	mux := http.NewServeMux()
	s.setupRoutes(mux)

	var handler http.Handler = s.loggingMiddleware(mux)
	if cfg.EnableCORS {
		handler = s.corsMiddleware(handler)
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/run", s.runHandler)
	mux.HandleFunc("/traces/", s.traceHandler)
	mux.HandleFunc("/frameworks", s.frameworksHandler)
}

// RunRequest asks the server to run an agent once.
type RunRequest struct {
	Framework string              `json:"framework"`
	Prompt    string              `json:"prompt"`
	Config    *config.AgentConfig `json:"config,omitempty"`
}

// RunResponse carries the outcome of one run.
type RunResponse struct {
	RunID       string `json:"run_id,omitempty"`
	FinalOutput string `json:"final_output,omitempty"`
	Framework   string `json:"framework,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Framework == "" {
		s.writeError(w, "Framework is required", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		s.writeError(w, "Prompt is required", http.StatusBadRequest)
		return
	}

	cfg := s.base
	if req.Config != nil {
		cfg = *req.Config
	}

	a, err := s.create(r.Context(), req.Framework, cfg)
	if err != nil {
		s.logger.Warn("agent creation failed",
			zap.String("framework", req.Framework),
			zap.Error(err))
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if closer, ok := a.(agent.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				s.logger.Warn("agent close failed",
					zap.String("framework", req.Framework),
					zap.Error(err))
			}
		}()
	}

	result, err := a.Run(r.Context(), req.Prompt)
	if err != nil {
		s.logger.Error("agent run failed",
			zap.String("framework", req.Framework),
			zap.Error(err))
		s.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if s.store != nil && result.Trace != nil {
		if err := s.store.Save(r.Context(), result.Trace); err != nil {
			s.logger.Warn("trace save failed",
				zap.String("run_id", result.RunID),
				zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RunResponse{
		RunID:       result.RunID,
		FinalOutput: result.FinalOutput,
		Framework:   result.Framework,
	})
}

func (s *Server) traceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		s.writeError(w, "Trace storage is not configured", http.StatusNotFound)
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/traces/")
	if runID == "" || strings.Contains(runID, "/") {
		s.writeError(w, "Run id is required", http.StatusBadRequest)
		return
	}

	trace, err := s.store.Get(r.Context(), runID)
	if errors.Is(err, tracestore.ErrNotFound) {
		s.writeError(w, "Trace not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("trace lookup failed", zap.String("run_id", runID), zap.Error(err))
		s.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trace)
}

func (s *Server) frameworksHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{
		"frameworks": agent.Frameworks(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(RunResponse{Error: message})
}

// statusWriter captures the response code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ListenAndServe starts the server and blocks until the context is canceled
// or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.Int("port", s.config.Port))
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
