// Package server exposes the assistant over HTTP: the chat endpoint, the
// health probes, and the Prometheus metrics listener.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rutopia/productobot/internal/assistant"
	"github.com/rutopia/productobot/internal/health"
)

// chatRequest is the inbound chat message wire shape.
type chatRequest struct {
	Query       string `json:"query"`
	Channel     string `json:"channel,omitempty"`
	Thread      string `json:"thread,omitempty"`
	Mode        string `json:"mode,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	// UseParallel opts out of parallel execution when explicitly false;
	// omitted means enabled.
	UseParallel *bool `json:"use_parallel,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Server hosts the chat API.
type Server struct {
	assistant *assistant.Assistant
	health    *health.Manager
	logger    *zap.Logger
	httpSrv   *http.Server
}

// New builds the chat server on the given port.
func New(a *assistant.Assistant, hm *health.Manager, port int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{assistant: a, health: hm, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/healthz", health.LivenessHandler())
	mux.HandleFunc("/readyz", health.ReadinessHandler(hm))
	mux.HandleFunc("/health", health.DetailedHandler(hm))

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.httpSrv.Handler }

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("Chat server listening", zap.String("address", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	useParallel := true
	if req.UseParallel != nil {
		useParallel = *req.UseParallel
	}

	reply := s.assistant.Chat(r.Context(), assistant.Request{
		Query:       req.Query,
		Channel:     req.Channel,
		Thread:      req.Thread,
		Mode:        req.Mode,
		DisplayName: req.DisplayName,
		UseParallel: useParallel,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(chatResponse{Response: reply})
}

// StartMetricsServer serves the Prometheus registry on its own port.
func StartMetricsServer(port int, logger *zap.Logger) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", port)
		logger.Info("Metrics server listening", zap.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Failed to start metrics server", zap.Error(err))
		}
	}()
}
