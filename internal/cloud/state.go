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
// This file holds the dependency injection container of the application. It
// creates the clients needed to talk to Google Cloud, the completion
// providers and the response cache once at startup and bundles them into a
// single ServiceClients struct shared by the handlers and workflows.
//
// Logic Flow:
//  1. NewCloudServiceClients is called at application startup with the loaded Config.
//  2. The response cache is created for the configured backend, its entry
//     lifetime bounded by the longest configured TTL.
//  3. A completion model is created for every configured agent model. Vertex AI
//     models share one GenAI client, which is created only when needed.
//  4. BigQuery is connected when scenes are sourced from BigQuery.
//  5. Pub/Sub is connected and a listener is created for every configured
//     subscription when a Google Cloud project is set.
//
// Structs:
//   - ServiceClients: The container of all initialized clients.
//
// Functions:
//   - Close: Releases every client connection.
//   - NewCloudServiceClients: Factory for ServiceClients.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/pubsub"
	"google.golang.org/genai"
)

// ServiceClients is a central container for the clients that interact with
// external services. Optional clients are nil when their feature is not
// configured.
type ServiceClients struct {
	Cache           Cache                                 // Response cache shared by every service.
	PubsubClient    *pubsub.Client                        // Nil without a Google Cloud project.
	GenAIClient     *genai.Client                         // Nil unless a Vertex AI model is configured.
	BigQueryClient  *bigquery.Client                      // Nil unless scenes come from BigQuery.
	PubSubListeners map[string]*PubSubListener            // Keyed by the logical name from the config.
	AgentModels     map[string]*QuotaAwareCompletionModel // Keyed by the logical name from the config.

	closeCache func() error
}

// Close releases every client connection. It is safe to call on a partially
// initialized container.
func (c *ServiceClients) Close() error {
	var errs []error
	if c.closeCache != nil {
		errs = append(errs, c.closeCache())
	}
	if c.PubsubClient != nil {
		errs = append(errs, c.PubsubClient.Close())
	}
	if c.BigQueryClient != nil {
		errs = append(errs, c.BigQueryClient.Close())
	}
	return errors.Join(errs...)
}

// NewCloudServiceClients initializes the external clients required by the
// configuration.
//
// Inputs:
//   - ctx: The root context of the application; it bounds the lifetime of the clients.
//   - config: The loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The initialized container.
//   - error: The first client that failed to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareCompletionModel),
	}
	defer func() {
		if err != nil {
			_ = cloud.Close()
			cloud = nil
		}
	}()

	cacheSettings := config.Cache
	cacheSettings.MaxTTLSeconds = int(config.CacheMaxTTL() / time.Second)
	cache, closeCache, err := NewCache(ctx, cacheSettings)
	if err != nil {
		return cloud, err
	}
	cloud.Cache = cache
	cloud.closeCache = closeCache

	httpClient := &http.Client{}
	for amKey, values := range config.AgentModels {
		var backend CompletionBackend
		switch values.Provider {
		case "", ProviderOpenRouter:
			backend = NewOpenRouterBackend(values, httpClient)
		case ProviderVertex:
			if cloud.GenAIClient == nil {
				cloud.GenAIClient, err = genai.NewClient(ctx, &genai.ClientConfig{
					Project:  config.Application.GoogleProjectId,
					Location: config.Application.GoogleLocation,
					Backend:  genai.BackendVertexAI,
				})
				if err != nil {
					return cloud, fmt.Errorf("create genai client: %w", err)
				}
			}
			backend = NewGenAIBackend(cloud.GenAIClient)
		default:
			return cloud, fmt.Errorf("agent model %s: unknown provider %q", amKey, values.Provider)
		}
		cloud.AgentModels[amKey] = NewQuotaAwareModel(backend, values)
		slog.Debug("configured agent model", "key", amKey, "provider", values.Provider, "model", values.Model)
	}

	if config.Highlights.Source == SceneSourceBigQuery {
		cloud.BigQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId)
		if err != nil {
			return cloud, fmt.Errorf("create bigquery client: %w", err)
		}
	}

	if config.Application.GoogleProjectId != "" && len(config.TopicSubscriptions) > 0 {
		cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId)
		if err != nil {
			return cloud, fmt.Errorf("create pubsub client: %w", err)
		}
		// The command is attached later, when the workflows are built.
		for subKey, values := range config.TopicSubscriptions {
			cloud.PubSubListeners[subKey] = NewPubSubListener(cloud.PubsubClient, values, nil)
		}
	}

	return cloud, nil
}
