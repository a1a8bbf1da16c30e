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

package quill

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openquill/quill/verifier"
)

// runMode constants for operational mode configuration
const (
	runModeServe = "serve"
	runModeDev   = "dev"
)

// DefaultShutdownTimeout bounds graceful shutdown on Stop.
const DefaultShutdownTimeout = 30 * time.Second

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	dataDir          string
	ledgerGatewayURL string
	ledgerTimeout    time.Duration
	apiListenAddress string
	runMode          string
	alteredThreshold int
	adminIdentities  []string
	shutdownTimeout  time.Duration
}

// ConfigOptionFunc is a functional option for configuring a Service.
type ConfigOptionFunc func(*Config)

// NewConfig creates a Config with default values and applies the given
// options.
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		alteredThreshold: verifier.DefaultAlteredThreshold,
		runMode:          runModeServe,
		apiListenAddress: ":8080",
		shutdownTimeout:  DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// isDevMode returns true if running in development mode
func (c *Config) isDevMode() bool {
	return c.runMode == runModeDev
}

func (c *Config) validate() error {
	if c.alteredThreshold <= 0 || c.alteredThreshold > 100 {
		return errors.New(
			"altered threshold must be a percentage between 1 and 100",
		)
	}
	if c.runMode != runModeServe && c.runMode != runModeDev {
		return errors.New("run mode must be 'serve' or 'dev'")
	}
	if !c.isDevMode() && c.ledgerGatewayURL == "" {
		return errors.New(
			"a ledger gateway URL is required outside dev mode",
		)
	}
	return nil
}

func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

func WithLedgerGatewayURL(gatewayURL string) ConfigOptionFunc {
	return func(c *Config) {
		c.ledgerGatewayURL = gatewayURL
	}
}

func WithLedgerTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.ledgerTimeout = timeout
	}
}

func WithApiListenAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = address
	}
}

func WithRunMode(mode string) ConfigOptionFunc {
	return func(c *Config) {
		c.runMode = mode
	}
}

func WithAlteredThreshold(threshold int) ConfigOptionFunc {
	return func(c *Config) {
		c.alteredThreshold = threshold
	}
}

func WithAdminIdentities(identities []string) ConfigOptionFunc {
	return func(c *Config) {
		c.adminIdentities = identities
	}
}

func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
