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
// This file implements a decorator around the completion backends. It adds
// rate limiting and default request parameters to any backend so callers
// never exceed the quota of the upstream provider.
//
// Structs:
//   - CompletionRequest, Completion: Provider neutral request and response.
//   - QuotaAwareCompletionModel: Wraps a CompletionBackend with a token bucket.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - Complete: Waits for the rate limiter, fills defaults and calls the backend.
package cloud

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrMissingAPIKey is returned by backends that need a key and have none.
var ErrMissingAPIKey = errors.New("completion backend has no api key")

// CompletionRequest is a single-turn chat completion request.
type CompletionRequest struct {
	System      string  // System prompt; the model default is used when empty.
	User        string  // User prompt.
	Temperature float32 // Zero uses the model default.
	TopP        float32 // Zero uses the model default.
	MaxTokens   int32   // Zero uses the model default.
}

// Completion is the text returned by a backend and its token usage.
type Completion struct {
	Text         string
	PromptTokens int64
	OutputTokens int64
}

// CompletionBackend performs one completion call against a provider.
type CompletionBackend interface {
	Complete(ctx context.Context, model string, request *CompletionRequest) (*Completion, error)
}

// CompletionBackendFunc adapts a function to CompletionBackend.
type CompletionBackendFunc func(ctx context.Context, model string, request *CompletionRequest) (*Completion, error)

func (f CompletionBackendFunc) Complete(ctx context.Context, model string, request *CompletionRequest) (*Completion, error) {
	return f(ctx, model, request)
}

// QuotaAwareCompletionModel is a decorator that adds a rate limiter and the
// configured defaults to a CompletionBackend.
type QuotaAwareCompletionModel struct {
	Backend   CompletionBackend
	ModelName string
	Defaults  AgentModel
	RateLimit *rate.Limiter
}

// NewQuotaAwareModel is a constructor function that creates a new
// QuotaAwareCompletionModel. The limiter refills requestsPerSecond tokens per
// second with a burst of the same size; a non-positive rate disables limiting.
//
// Inputs:
//   - backend: The provider implementation.
//   - settings: The model configuration, used for the name and the request defaults.
//
// Outputs:
//   - *QuotaAwareCompletionModel: A pointer to the newly created wrapper.
func NewQuotaAwareModel(backend CompletionBackend, settings AgentModel) *QuotaAwareCompletionModel {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if settings.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Second/time.Duration(settings.RateLimit)), settings.RateLimit)
	}
	return &QuotaAwareCompletionModel{
		Backend:   backend,
		ModelName: settings.Model,
		Defaults:  settings,
		RateLimit: limiter,
	}
}

// MaxRetries returns the configured retry budget, MaxRetries when unset.
// A negative value disables retries.
func (q *QuotaAwareCompletionModel) MaxRetries() int {
	switch {
	case q.Defaults.MaxRetries < 0:
		return 0
	case q.Defaults.MaxRetries == 0:
		return MaxRetries
	default:
		return q.Defaults.MaxRetries
	}
}

// Complete blocks until the rate limiter grants a token, applies the
// configured defaults to the request and calls the backend with the
// configured timeout.
//
// Inputs:
//   - ctx: The context for the request; cancelling it aborts the wait.
//   - request: The prompts and optional sampling overrides.
//
// Outputs:
//   - *Completion: The backend response.
//   - error: The limiter or backend error.
func (q *QuotaAwareCompletionModel) Complete(ctx context.Context, request *CompletionRequest) (*Completion, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}

	effective := *request
	if effective.System == "" {
		effective.System = q.Defaults.SystemInstructions
	}
	if effective.Temperature == 0 {
		effective.Temperature = q.Defaults.Temperature
	}
	if effective.TopP == 0 {
		effective.TopP = q.Defaults.TopP
	}
	if effective.MaxTokens == 0 {
		effective.MaxTokens = q.Defaults.MaxTokens
	}

	callCtx, cancel := context.WithTimeout(ctx, q.Defaults.Timeout())
	defer cancel()
	return q.Backend.Complete(callCtx, q.ModelName, &effective)
}
