// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with external services.
// This file contains general-purpose utility functions that support the cloud package.
// These helpers cover hierarchical configuration loading, environment overrides
// for secrets, and resilient interaction with the completion models.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Implements a hierarchical configuration loader. It first reads a base
//     configuration file and then overwrites values with a second, environment-specific
//     file (e.g., .env.local.toml, .env.test.toml). The environment is determined by
//     an environment variable. Secrets are then taken from the process environment.
//   - GenerateCompletion: A wrapper for making calls to a completion model. It includes
//     a retry mechanism to handle transient errors and integrates with OpenTelemetry to
//     record metrics for token usage and retries.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/metric"
)

// Cloud Constants define key strings and values used throughout the package,
// primarily for configuration loading and API interaction policies.
const (
	ConfigFileBaseName  = ".env"                    // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"                   // The file extension for configuration files.
	ConfigSeparator     = "."                       // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "DISCOVERY_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "DISCOVERY_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	MaxRetries          = 3                         // The default number of times to retry a failed completion.
)

// Environment variables that override secrets and deployment specific values.
const (
	EnvTMDBAPIKey       = "TMDB_API_KEY"
	EnvOpenRouterAPIKey = "OPENROUTER_API_KEY"
	EnvRedisAddr        = "REDIS_ADDR"
	EnvRedisPassword    = "REDIS_PASSWORD"
	EnvGoogleProject    = "GOOGLE_CLOUD_PROJECT"
	EnvPort             = "PORT"
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first loads a
// base configuration file and then merges or overwrites its values with an environment-specific
// configuration file. The paths and environment are determined by environment variables.
// Before the files are read, any `.env` file found in the working directory or in the
// configuration directory is loaded into the process environment. When baseConfig is a
// *Config, secrets are finally copied from the environment (see ApplyEnvironment).
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct that will be populated
//     from the TOML files.
//
// Outputs:
//   - error: A decoding error for a file that exists but cannot be parsed.
func LoadConfig(baseConfig any) error {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	// godotenv never overrides variables that are already set, so the real
	// environment always wins over the files.
	for _, dotenv := range []string{".env", configurationFilePrefix + ".env"} {
		if fileExists(dotenv) {
			if err := godotenv.Load(dotenv); err != nil {
				slog.Warn("failed to load dotenv file", "file", dotenv, "error", err)
			}
		}
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	slog.Debug("loading configuration", "base", baseConfigFileName, "runtime", envConfigFileName)

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode base configuration file %s: %w", baseConfigFileName, err)
		}
	}

	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode environment configuration file %s: %w", envConfigFileName, err)
		}
	}

	if config, ok := baseConfig.(*Config); ok {
		ApplyEnvironment(config)
	}
	return nil
}

// ApplyEnvironment copies secrets and deployment values from the process
// environment into config. Values already present in the environment take
// precedence over the TOML files; the OpenRouter key is applied to every
// OpenRouter model that does not define its own key.
//
// Inputs:
//   - config: The configuration to update in place.
func ApplyEnvironment(config *Config) {
	if v := os.Getenv(EnvTMDBAPIKey); v != "" {
		config.TMDB.APIKey = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		config.Cache.RedisAddr = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		config.Cache.RedisPassword = v
	}
	if v := os.Getenv(EnvGoogleProject); v != "" && config.Application.GoogleProjectId == "" {
		config.Application.GoogleProjectId = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		} else {
			slog.Warn("ignoring invalid port", "env", EnvPort, "value", v)
		}
	}
	if v := os.Getenv(EnvOpenRouterAPIKey); v != "" {
		for key, m := range config.AgentModels {
			if m.Provider == ProviderOpenRouter && m.APIKey == "" {
				m.APIKey = v
				config.AgentModels[key] = m
			}
		}
	}
}

// GenerateCompletion is a helper function for executing completion requests
// against a rate-limited model. It includes logic for retries and telemetry.
//
// Inputs:
//   - ctx: The context for the request, which controls cancellation and tracing.
//   - inputTokenCounter: An OpenTelemetry counter for prompt tokens used.
//   - outputTokenCounter: An OpenTelemetry counter for response tokens generated.
//   - retryCounter: An OpenTelemetry counter for tracking the number of retries.
//   - tryCount: The current attempt number for this request (starts at 0).
//   - model: The rate-limited, quota-aware completion model to use.
//   - request: The prompts and sampling parameters.
//
// Outputs:
//   - string: The completion text with any surrounding markdown fence removed.
//   - error: An error if the request fails after all retries.
func GenerateCompletion(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	tryCount int,
	model *QuotaAwareCompletionModel,
	request *CompletionRequest) (value string, err error) {
	resp, err := model.Complete(ctx, request)
	if err != nil {
		// Missing credentials and cancelled contexts never succeed on retry.
		if tryCount < model.MaxRetries() && !errors.Is(err, ErrMissingAPIKey) && ctx.Err() == nil {
			if retryCounter != nil {
				retryCounter.Add(ctx, 1)
			}
			return GenerateCompletion(ctx, inputTokenCounter, outputTokenCounter, retryCounter, tryCount+1, model, request)
		}
		return "", err
	}

	if inputTokenCounter != nil {
		inputTokenCounter.Add(ctx, resp.PromptTokens)
	}
	if outputTokenCounter != nil {
		outputTokenCounter.Add(ctx, resp.OutputTokens)
	}
	return StripCodeFence(resp.Text), nil
}

// StripCodeFence removes a surrounding markdown code fence (``` or ```json)
// from a model response.
func StripCodeFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return value
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 && !strings.ContainsAny(trimmed[:nl], " \t") {
		// Drop the language tag.
		trimmed = trimmed[nl+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
