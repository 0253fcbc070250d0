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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenRouterEndpoint is the OpenRouter OpenAI compatible API root.
const DefaultOpenRouterEndpoint = "https://openrouter.ai/api/v1"

// maxErrorBody bounds how much of an upstream error body is kept in errors.
const maxErrorBody = 512

// OpenRouterBackend calls the OpenAI compatible chat completions API hosted
// by OpenRouter.
type OpenRouterBackend struct {
	Endpoint string
	APIKey   string
	client   *openai.Client
}

// attributionDoer adds the optional OpenRouter attribution headers.
type attributionDoer struct {
	next    openai.HTTPDoer
	referer string
	title   string
}

func (a *attributionDoer) Do(req *http.Request) (*http.Response, error) {
	if a.referer != "" {
		req.Header.Set("HTTP-Referer", a.referer)
	}
	if a.title != "" {
		req.Header.Set("X-Title", a.title)
	}
	return a.next.Do(req)
}

// NewOpenRouterBackend builds a backend from a model configuration. The
// endpoint is the API root; a trailing /chat/completions is accepted.
func NewOpenRouterBackend(settings AgentModel, httpClient *http.Client) *OpenRouterBackend {
	endpoint := strings.TrimSuffix(strings.TrimRight(settings.Endpoint, "/"), "/chat/completions")
	if endpoint == "" {
		endpoint = DefaultOpenRouterEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	key := strings.TrimSpace(settings.APIKey)

	config := openai.DefaultConfig(key)
	config.BaseURL = endpoint
	config.HTTPClient = &attributionDoer{next: httpClient, referer: settings.Referer, title: settings.Title}

	return &OpenRouterBackend{
		Endpoint: endpoint,
		APIKey:   key,
		client:   openai.NewClientWithConfig(config),
	}
}

// Complete sends a system and user message and returns the content of the
// first choice. A response without choices yields an empty text, not an error.
func (o *OpenRouterBackend) Complete(ctx context.Context, model string, request *CompletionRequest) (*Completion, error) {
	if o.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if request.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: request.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: request.User})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: request.Temperature,
		TopP:        request.TopP,
		MaxTokens:   int(request.MaxTokens),
	})
	if err != nil {
		return nil, completionError(err)
	}

	out := &Completion{
		PromptTokens: int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out, nil
}

// completionError keeps the status code and an excerpt of the upstream body.
func completionError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return fmt.Errorf("completion request failed with status %d: %s: %w", apiErr.HTTPStatusCode, truncate(apiErr.Message, maxErrorBody), err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion request failed with status %d: %s: %w", reqErr.HTTPStatusCode, truncate(string(reqErr.Body), maxErrorBody), err)
	}
	return fmt.Errorf("completion request: %w", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
