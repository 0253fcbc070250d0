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

package services

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/workflow"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/tmdb"
)

// Registry holds the services shared by the HTTP server and the CLI.
type Registry struct {
	Movies     *tmdb.Client
	Catalog    *CatalogService
	Highlights *HighlightService
	Discovery  *DiscoveryService
}

// NewRegistry builds the services over the initialized clients. A missing
// highlight agent model disables ranking instead of failing, so highlights
// are then always served in catalog order.
func NewRegistry(config *cloud.Config, clients *cloud.ServiceClients) (*Registry, error) {
	movies := tmdb.NewClient(config.TMDB, clients.Cache)

	scenes, err := NewSceneCatalog(config, clients)
	if err != nil {
		return nil, err
	}

	var ranking cor.Executable
	if completionModel, ok := clients.AgentModels[config.Highlights.AgentModel]; ok {
		rankingWorkflow, err := workflow.NewSceneRankingWorkflow(config, completionModel)
		if err != nil {
			return nil, fmt.Errorf("scene ranking workflow: %w", err)
		}
		ranking = rankingWorkflow
	} else {
		slog.Warn("no agent model for highlights, ranking disabled", "agent_model", config.Highlights.AgentModel)
	}

	return &Registry{
		Movies:     movies,
		Catalog:    NewCatalogService(movies, scenes, config.Application.ThreadPoolSize),
		Highlights: NewHighlightService(movies, scenes, ranking, clients.Cache, config.Highlights.CacheTTL()),
		Discovery: NewDiscoveryService(
			NewSessionStore(clients.Cache, config.Discovery.SessionTTL()),
			movies,
			config.Discovery,
		),
	}, nil
}
