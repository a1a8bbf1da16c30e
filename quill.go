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

// Package quill wires the certificate engines into a single service: the
// canonical record store, the ledger client, the issuance orchestrator, the
// authenticity verifier, the reconciliation engine, and the registrar.
package quill

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/openquill/quill/api"
	"github.com/openquill/quill/database"
	"github.com/openquill/quill/event"
	"github.com/openquill/quill/issuer"
	"github.com/openquill/quill/ledger"
	"github.com/openquill/quill/reconciler"
	"github.com/openquill/quill/registrar"
	"github.com/openquill/quill/verifier"
)

type Service struct {
	config       Config
	db           *database.Database
	eventBus     *event.EventBus
	ledgerClient ledger.Client
	registrar    *registrar.Registrar
	issuer       *issuer.Issuer
	verifier     *verifier.Verifier
	reconciler   *reconciler.Reconciler
	apiServer    *api.Server
	done         chan struct{}
	stopOnce     sync.Once
	shutdownOnce sync.Once
}

// New creates a Service from the given options. The service is not started
// until Run is called.
func New(opts ...ConfigOptionFunc) (*Service, error) {
	cfg := NewConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s := &Service{
		config: cfg,
		done:   make(chan struct{}),
	}
	if err := s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) setup() error {
	cfg := s.config
	s.eventBus = event.NewEventBus(cfg.promRegistry, cfg.logger)
	db, err := database.New(&database.Config{
		DataDir:      cfg.dataDir,
		Logger:       cfg.logger,
		PromRegistry: cfg.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	if cfg.isDevMode() {
		// Dev mode runs against an in-process ledger, no gateway required
		s.ledgerClient = ledger.NewMemoryLedger()
	} else {
		gatewayOpts := []ledger.GatewayOption{}
		if cfg.ledgerTimeout > 0 {
			gatewayOpts = append(
				gatewayOpts,
				ledger.WithTimeout(cfg.ledgerTimeout),
			)
		}
		s.ledgerClient = ledger.NewGatewayClient(
			cfg.ledgerGatewayURL,
			gatewayOpts...,
		)
	}
	s.registrar = registrar.New(registrar.RegistrarConfig{
		Database: s.db,
		Ledger:   s.ledgerClient,
		EventBus: s.eventBus,
		Policy:   registrar.NewAllowListPolicy(cfg.adminIdentities),
		Logger:   cfg.logger,
	})
	s.issuer = issuer.New(issuer.IssuerConfig{
		Database:     s.db,
		Ledger:       s.ledgerClient,
		Registrar:    s.registrar,
		EventBus:     s.eventBus,
		Logger:       cfg.logger,
		PromRegistry: cfg.promRegistry,
	})
	s.verifier = verifier.New(
		verifier.VerifierConfig{
			Database:     s.db,
			EventBus:     s.eventBus,
			Logger:       cfg.logger,
			PromRegistry: cfg.promRegistry,
		},
		verifier.WithThreshold(cfg.alteredThreshold),
	)
	s.reconciler = reconciler.New(reconciler.ReconcilerConfig{
		Database:     s.db,
		Ledger:       s.ledgerClient,
		Logger:       cfg.logger,
		PromRegistry: cfg.promRegistry,
	})
	s.apiServer = api.New(api.ServerConfig{
		ListenAddress: cfg.apiListenAddress,
		Issuer:        s.issuer,
		Verifier:      s.verifier,
		Reconciler:    s.reconciler,
		Registrar:     s.registrar,
		Logger:        cfg.logger,
	})
	return nil
}

// Run starts the API listener and blocks until the context is cancelled or
// Stop is called.
func (s *Service) Run(ctx context.Context) error {
	if err := s.apiServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API listener: %w", err)
	}
	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return s.shutdown()
}

// Stop shuts the service down. Safe to call more than once.
func (s *Service) Stop() error {
	err := s.shutdown()
	s.stopOnce.Do(func() {
		close(s.done)
	})
	return err
}

func (s *Service) shutdown() error {
	var err error
	s.shutdownOnce.Do(func() {
		ctx, cancel := context.WithTimeout(
			context.Background(),
			s.config.shutdownTimeout,
		)
		defer cancel()
		err = s.apiServer.Shutdown(ctx)
		s.eventBus.Stop()
		if dbErr := s.db.Close(); dbErr != nil && err == nil {
			err = dbErr
		}
	})
	return err
}

// Database returns the canonical record store.
func (s *Service) Database() *database.Database {
	return s.db
}

// Ledger returns the ledger client.
func (s *Service) Ledger() ledger.Client {
	return s.ledgerClient
}

// Issuer returns the issuance orchestrator.
func (s *Service) Issuer() *issuer.Issuer {
	return s.issuer
}

// Verifier returns the authenticity verifier.
func (s *Service) Verifier() *verifier.Verifier {
	return s.verifier
}

// Reconciler returns the reconciliation engine.
func (s *Service) Reconciler() *reconciler.Reconciler {
	return s.reconciler
}

// Registrar returns the institution registrar.
func (s *Service) Registrar() *registrar.Registrar {
	return s.registrar
}

// EventBus returns the service event bus.
func (s *Service) EventBus() *event.EventBus {
	return s.eventBus
}
