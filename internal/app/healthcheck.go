package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// buildStatus remembers the last build for the health endpoint.
type buildStatus struct {
	mu       sync.RWMutex
	at       time.Time
	targets  int
	failed   []string
	lastErr  string
	hasBuilt bool
}

func (s *buildStatus) record(outcomes []*Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.at = time.Now()
	s.targets = len(outcomes)
	s.failed = nil
	for _, o := range outcomes {
		if o != nil && o.Error != "" {
			s.failed = append(s.failed, o.Target)
		}
	}
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
	s.hasBuilt = true
}

// healthResponse is the body served by /health.
type healthResponse struct {
	Status    string    `json:"status"`
	LastBuild time.Time `json:"last_build,omitzero"`
	Targets   int       `json:"targets"`
	Failed    []string  `json:"failed,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// healthHandler reports whether the last build succeeded.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)

	a.status.mu.RLock()
	resp := healthResponse{
		Status:    "ok",
		LastBuild: a.status.at,
		Targets:   a.status.targets,
		Failed:    a.status.failed,
		Error:     a.status.lastErr,
	}
	built := a.status.hasBuilt
	a.status.mu.RUnlock()

	code := http.StatusOK
	switch {
	case !built:
		resp.Status = "starting"
	case resp.Error != "":
		resp.Status = "failing"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// startHealthCheckServer listens on the configured port and serves /health
// in the background. It returns the bound address.
func (a *App) startHealthCheckServer() (string, error) {
	a.logger.Debug("Configuring health check server.")

	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.HealthcheckPort))
	if err != nil {
		return "", fmt.Errorf("health check server: %w", err)
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.httpServer = srv

	addr := ln.Addr().String()
	go func() {
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://%s/health", addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return addr, nil
}

func (a *App) closeHealthCheckServer() error {
	if a.httpServer == nil {
		a.logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	a.httpServer = nil
	return nil
}
