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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/openquill/quill/verifier"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "quill.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// RunMode represents the operational mode of the quill service
type RunMode string

const (
	RunModeServe RunMode = "serve" // Full service against a real ledger gateway (default)
	RunModeDev   RunMode = "dev"   // Development mode (in-process ledger, no gateway)
)

// Valid returns true if the RunMode is a known valid mode
func (m RunMode) Valid() bool {
	switch m {
	case RunModeServe, RunModeDev, "":
		return true
	default:
		return false
	}
}

// IsDevMode returns true if the mode enables development behaviors
func (m RunMode) IsDevMode() bool {
	return m == RunModeDev
}

type Config struct {
	DatabasePath     string   `yaml:"databasePath"                                        split_words:"true"`
	ApiListenAddress string   `yaml:"apiListenAddress"  envconfig:"QUILL_API_LISTEN"`
	LedgerGatewayURL string   `yaml:"ledgerGatewayUrl"  envconfig:"QUILL_LEDGER_GATEWAY"`
	LedgerTimeout    string   `yaml:"ledgerTimeout"                                       split_words:"true"`
	ShutdownTimeout  string   `yaml:"shutdownTimeout"                                     split_words:"true"`
	MetricsPort      uint     `yaml:"metricsPort"                                         split_words:"true"`
	AlteredThreshold int      `yaml:"alteredThreshold"                                    split_words:"true"`
	AdminIdentities  []string `yaml:"adminIdentities"                                     split_words:"true"`
	RunMode          RunMode  `yaml:"runMode"           envconfig:"QUILL_RUN_MODE"`
}

var globalConfig = &Config{
	DatabasePath:     ".quill",
	ApiListenAddress: ":8080",
	LedgerGatewayURL: "",
	LedgerTimeout:    "45s",
	ShutdownTimeout:  DefaultShutdownTimeout,
	MetricsPort:      12800,
	AlteredThreshold: verifier.DefaultAlteredThreshold,
	RunMode:          RunModeServe,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.quill/quill.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".quill", "quill.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/quill/quill.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/quill/quill.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	// Process environment variables
	err := envconfig.Process("quill", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Validate and default RunMode
	if !globalConfig.RunMode.Valid() {
		return nil, fmt.Errorf(
			"invalid runMode: %q (must be 'serve' or 'dev')",
			globalConfig.RunMode,
		)
	}
	if globalConfig.RunMode == "" {
		globalConfig.RunMode = RunModeServe
	}
	if globalConfig.AlteredThreshold <= 0 ||
		globalConfig.AlteredThreshold > 100 {
		return nil, fmt.Errorf(
			"invalid alteredThreshold: %d (must be between 1 and 100)",
			globalConfig.AlteredThreshold,
		)
	}
	if !globalConfig.RunMode.IsDevMode() &&
		globalConfig.LedgerGatewayURL == "" {
		return nil, fmt.Errorf(
			"ledgerGatewayUrl is required when runMode is %q",
			RunModeServe,
		)
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}
