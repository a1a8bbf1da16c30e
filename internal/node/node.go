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

package node

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/openquill/quill"
	"github.com/openquill/quill/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")

	ledgerTimeout, err := time.ParseDuration(cfg.LedgerTimeout)
	if err != nil {
		return fmt.Errorf("invalid ledger timeout: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	// Metrics and pprof listener
	promRegistry := prometheus.NewRegistry()
	if cfg.MetricsPort > 0 {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(
			"/metrics",
			promhttp.HandlerFor(
				promRegistry,
				promhttp.HandlerOpts{},
			),
		)
		metricsMux.Handle("/debug/", http.DefaultServeMux)
		metricsServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           metricsMux,
			ReadHeaderTimeout: 60 * time.Second,
		}
		go func() {
			logger.Info(
				fmt.Sprintf(
					"metrics listener starting on port %d",
					cfg.MetricsPort,
				),
				"component", "node",
			)
			if err := metricsServer.ListenAndServe(); err != nil &&
				err != http.ErrServerClosed {
				logger.Error(
					"metrics listener failed",
					"component", "node",
					"error", err,
				)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				shutdownTimeout,
			)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	service, err := quill.New(
		quill.WithLogger(logger),
		quill.WithDataDir(cfg.DatabasePath),
		quill.WithPrometheusRegistry(promRegistry),
		quill.WithLedgerGatewayURL(cfg.LedgerGatewayURL),
		quill.WithLedgerTimeout(ledgerTimeout),
		quill.WithApiListenAddress(cfg.ApiListenAddress),
		quill.WithRunMode(string(cfg.RunMode)),
		quill.WithAlteredThreshold(cfg.AlteredThreshold),
		quill.WithAdminIdentities(cfg.AdminIdentities),
		quill.WithShutdownTimeout(shutdownTimeout),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()
	return service.Run(ctx)
}
