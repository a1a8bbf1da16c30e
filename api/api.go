// Copyright 2026 OpenQuill Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api exposes the certificate engines over a REST API. Caller
// identity is taken from the X-Quill-Identity header; authenticating that
// identity is the responsibility of the deployment's front proxy.
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/openquill/quill/issuer"
	"github.com/openquill/quill/reconciler"
	"github.com/openquill/quill/registrar"
	"github.com/openquill/quill/verifier"
)

// IdentityHeader carries the caller's signing identity.
const IdentityHeader = "X-Quill-Identity"

// ServerConfig is the configuration for the API server.
type ServerConfig struct {
	ListenAddress string
	Issuer        *issuer.Issuer
	Verifier      *verifier.Verifier
	Reconciler    *reconciler.Reconciler
	Registrar     *registrar.Registrar
	Logger        *slog.Logger
}

// Server is the REST API server.
type Server struct {
	config     ServerConfig
	logger     *slog.Logger
	httpServer *http.Server
	mu         sync.Mutex
}

// New creates a new API server instance.
func New(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}
	return &Server{
		config: cfg,
		logger: logger,
	}
}

// Start starts the HTTP server in a background goroutine. The server is
// shut down when the context is cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.httpServer = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(
				"API server failed",
				"error", err,
			)
		}
	}()
	s.logger.Info(
		"API listener started on " + s.config.ListenAddress,
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer cancel()
		_ = s.Shutdown(shutdownCtx) //nolint:contextcheck
	}()
	return nil
}

// Handler returns the route handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/certificates", s.handleIssue)
	mux.HandleFunc("POST /api/v1/certificates/batch", s.handleIssueBatch)
	mux.HandleFunc("POST /api/v1/certificates/{id}/revoke", s.handleRevoke)
	mux.HandleFunc("POST /api/v1/verify", s.handleVerify)
	mux.HandleFunc("GET /api/v1/issuers/{identity}/sync", s.handleSyncReport)
	mux.HandleFunc("POST /api/v1/issuers/{identity}/sync", s.handleForceSync)
	mux.HandleFunc("POST /api/v1/institutions", s.handleRegisterInstitution)
	mux.HandleFunc(
		"POST /api/v1/institutions/{identity}/status",
		s.handleInstitutionStatus,
	)
	return mux
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.httpServer
	s.httpServer = nil
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
