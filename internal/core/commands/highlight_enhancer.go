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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that ranks and caches the highlights of one movie ahead of the
// first request for them.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
)

// HighlightWarmer produces, and caches, the ranked highlights of a movie. It
// returns an error only when the movie or its scenes cannot be loaded.
type HighlightWarmer interface {
	Enhanced(ctx context.Context, movieID int) ([]model.SceneHighlight, error)
}

// HighlightEnhancer warms the highlight cache for a *model.HighlightTrigger.
type HighlightEnhancer struct {
	cor.BaseCommand
	warmer HighlightWarmer
}

func NewHighlightEnhancer(name string, warmer HighlightWarmer) *HighlightEnhancer {
	return &HighlightEnhancer{BaseCommand: *cor.NewBaseCommand(name), warmer: warmer}
}

func (h *HighlightEnhancer) IsExecutable(context cor.Context) bool {
	if !h.BaseCommand.IsExecutable(context) {
		return false
	}
	_, ok := context.Get(h.GetInputParam()).(*model.HighlightTrigger)
	return ok
}

func (h *HighlightEnhancer) Execute(context cor.Context) {
	trigger := context.Get(h.GetInputParam()).(*model.HighlightTrigger)
	scenes, err := h.warmer.Enhanced(context.GetContext(), trigger.MovieID)
	if err != nil {
		h.Fail(context, fmt.Errorf("failed to warm highlights of movie %d: %w", trigger.MovieID, err))
		return
	}
	slog.Debug("warmed highlights", "movie_id", trigger.MovieID, "scenes", len(scenes))
	h.Succeed(context, scenes)
}
