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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/tmdb"
)

const highlightCacheKeyFormat = "highlights:ranked:%d"

// HighlightService serves the scene highlights of a movie, either in catalog
// order or ranked by the scene ranking workflow.
type HighlightService struct {
	Movies   MovieSource
	Catalog  SceneCatalog
	Ranking  cor.Executable // Nil serves catalog order for every request.
	Cache    cloud.Cache
	CacheTTL time.Duration
}

// NewHighlightService creates a highlight service. A nil catalog serves the
// built-in scene tables.
func NewHighlightService(movies MovieSource, catalog SceneCatalog, ranking cor.Executable, cache cloud.Cache, ttl time.Duration) *HighlightService {
	if catalog == nil {
		catalog = StaticSceneCatalog{}
	}
	return &HighlightService{
		Movies:   movies,
		Catalog:  catalog,
		Ranking:  ranking,
		Cache:    cache,
		CacheTTL: ttl,
	}
}

// Scenes returns the catalog highlights of a movie.
func (h *HighlightService) Scenes(ctx context.Context, movieID int) ([]model.SceneHighlight, error) {
	return h.Catalog.Scenes(ctx, movieID)
}

// Enhanced returns the highlights of a movie ranked by the completion model.
// Ranked results are cached. When ranking fails the catalog highlights are
// returned unchanged and a warning is logged; an error is returned only when
// the movie or its scenes cannot be loaded.
func (h *HighlightService) Enhanced(ctx context.Context, movieID int) ([]model.SceneHighlight, error) {
	key := fmt.Sprintf(highlightCacheKeyFormat, movieID)
	if h.Cache != nil {
		var cached []model.SceneHighlight
		err := cloud.GetJSON(ctx, h.Cache, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cloud.ErrCacheMiss) {
			slog.Warn("highlight cache read failed", "movie_id", movieID, "error", err)
		}
	}

	movie, err := h.Movies.Details(ctx, movieID)
	if err != nil {
		return nil, err
	}
	scenes, err := h.Catalog.Scenes(ctx, movieID)
	if err != nil {
		return nil, err
	}

	ranked, err := h.rank(ctx, movie, scenes)
	if err != nil {
		slog.Warn("scene ranking failed, serving catalog order", "movie_id", movieID, "error", err)
		return scenes, nil
	}
	if h.Cache != nil {
		if err := cloud.SetJSON(ctx, h.Cache, key, ranked, h.CacheTTL); err != nil {
			slog.Warn("highlight cache write failed", "movie_id", movieID, "error", err)
		}
	}
	return ranked, nil
}

func (h *HighlightService) rank(ctx context.Context, movie *tmdb.Movie, scenes []model.SceneHighlight) ([]model.SceneHighlight, error) {
	if h.Ranking == nil {
		return nil, errors.New("scene ranking is not configured")
	}
	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	defer chCtx.Close()
	chCtx.Add(cor.CtxIn, &model.SceneRankingRequest{
		MovieID:  movie.ID,
		Title:    movie.Title,
		Overview: movie.Overview,
		Scenes:   model.CloneScenes(scenes),
	})

	h.Ranking.Execute(chCtx)
	if chCtx.HasErrors() {
		return nil, chCtx.Err()
	}
	// A request without scenes skips every step and leaves the input in place.
	if ranked, ok := chCtx.Get(cor.CtxIn).([]model.SceneHighlight); ok {
		return ranked, nil
	}
	return scenes, nil
}
