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

package cloud_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterComplete(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "https://example.com", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Movie Discovery", r.Header.Get("X-Title"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ranked"}}],"usage":{"prompt_tokens":12,"completion_tokens":34}}`))
	}))
	defer server.Close()

	backend := cloud.NewOpenRouterBackend(cloud.AgentModel{
		Endpoint: server.URL,
		APIKey:   " secret ",
		Referer:  "https://example.com",
		Title:    "Movie Discovery",
	}, server.Client())

	out, err := backend.Complete(context.Background(), "google/gemma-3-4b-latest", &cloud.CompletionRequest{
		System:      "sys",
		User:        "usr",
		Temperature: 0.7,
		MaxTokens:   1200,
	})
	require.NoError(t, err)
	assert.Equal(t, "ranked", out.Text)
	assert.Equal(t, int64(12), out.PromptTokens)
	assert.Equal(t, int64(34), out.OutputTokens)

	assert.Equal(t, "google/gemma-3-4b-latest", captured["model"])
	assert.EqualValues(t, 1200, captured["max_tokens"])
	messages := captured["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "usr", messages[1].(map[string]any)["content"])
}

func TestOpenRouterErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		backend := cloud.NewOpenRouterBackend(cloud.AgentModel{}, nil)
		_, err := backend.Complete(context.Background(), "m", &cloud.CompletionRequest{User: "u"})
		assert.ErrorIs(t, err, cloud.ErrMissingAPIKey)
	})

	t.Run("http status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
		}))
		defer server.Close()
		backend := cloud.NewOpenRouterBackend(cloud.AgentModel{Endpoint: server.URL, APIKey: "k"}, server.Client())
		_, err := backend.Complete(context.Background(), "m", &cloud.CompletionRequest{User: "u"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Contains(t, err.Error(), "slow down")
	})

	t.Run("error payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","code":404}}`))
		}))
		defer server.Close()
		backend := cloud.NewOpenRouterBackend(cloud.AgentModel{Endpoint: server.URL, APIKey: "k"}, server.Client())
		_, err := backend.Complete(context.Background(), "m", &cloud.CompletionRequest{User: "u"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
		assert.Contains(t, err.Error(), "model not found")
	})

	t.Run("full chat completions url", func(t *testing.T) {
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
		}))
		defer server.Close()
		backend := cloud.NewOpenRouterBackend(cloud.AgentModel{Endpoint: server.URL + "/api/v1/chat/completions", APIKey: "k"}, server.Client())
		out, err := backend.Complete(context.Background(), "m", &cloud.CompletionRequest{User: "u"})
		require.NoError(t, err)
		assert.Equal(t, "ok", out.Text)
		assert.Equal(t, "/api/v1/chat/completions", path)
		assert.Equal(t, server.URL+"/api/v1", backend.Endpoint)
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()
		backend := cloud.NewOpenRouterBackend(cloud.AgentModel{Endpoint: server.URL, APIKey: "k"}, server.Client())
		out, err := backend.Complete(context.Background(), "m", &cloud.CompletionRequest{User: "u"})
		require.NoError(t, err)
		assert.Empty(t, out.Text)
	})
}

func TestQuotaAwareModelAppliesDefaults(t *testing.T) {
	var seen cloud.CompletionRequest
	var seenModel string
	backend := cloud.CompletionBackendFunc(func(ctx context.Context, model string, request *cloud.CompletionRequest) (*cloud.Completion, error) {
		seen = *request
		seenModel = model
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return &cloud.Completion{Text: "ok"}, nil
	})
	model := cloud.NewQuotaAwareModel(backend, cloud.AgentModel{
		Model:              "critic",
		SystemInstructions: "be a critic",
		Temperature:        0.7,
		MaxTokens:          1200,
		RateLimit:          5,
	})

	_, err := model.Complete(context.Background(), &cloud.CompletionRequest{User: "u", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "critic", seenModel)
	assert.Equal(t, "be a critic", seen.System)
	assert.Equal(t, float32(0.2), seen.Temperature)
	assert.Equal(t, int32(1200), seen.MaxTokens)
}

func TestGenerateCompletionRetries(t *testing.T) {
	calls := 0
	backend := cloud.CompletionBackendFunc(func(ctx context.Context, model string, request *cloud.CompletionRequest) (*cloud.Completion, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("upstream unavailable")
		}
		return &cloud.Completion{Text: "```text\n1. Opening\n```"}, nil
	})
	model := cloud.NewQuotaAwareModel(backend, cloud.AgentModel{Model: "m"})

	out, err := cloud.GenerateCompletion(context.Background(), nil, nil, nil, 0, model, &cloud.CompletionRequest{User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "1. Opening", out)
	assert.Equal(t, 3, calls)
}

func TestGenerateCompletionGivesUp(t *testing.T) {
	t.Run("retry budget", func(t *testing.T) {
		calls := 0
		backend := cloud.CompletionBackendFunc(func(ctx context.Context, model string, request *cloud.CompletionRequest) (*cloud.Completion, error) {
			calls++
			return nil, errors.New("boom")
		})
		model := cloud.NewQuotaAwareModel(backend, cloud.AgentModel{Model: "m", MaxRetries: 2})
		_, err := cloud.GenerateCompletion(context.Background(), nil, nil, nil, 0, model, &cloud.CompletionRequest{User: "u"})
		assert.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("missing key", func(t *testing.T) {
		calls := 0
		backend := cloud.CompletionBackendFunc(func(ctx context.Context, model string, request *cloud.CompletionRequest) (*cloud.Completion, error) {
			calls++
			return nil, cloud.ErrMissingAPIKey
		})
		model := cloud.NewQuotaAwareModel(backend, cloud.AgentModel{Model: "m"})
		_, err := cloud.GenerateCompletion(context.Background(), nil, nil, nil, 0, model, &cloud.CompletionRequest{User: "u"})
		assert.ErrorIs(t, err, cloud.ErrMissingAPIKey)
		assert.Equal(t, 1, calls)
	})
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, "plain", cloud.StripCodeFence("plain"))
	assert.Equal(t, `{"a":1}`, cloud.StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "body", cloud.StripCodeFence("```\nbody\n```"))
	assert.Equal(t, "  spaced ", cloud.StripCodeFence("  spaced "))
}
