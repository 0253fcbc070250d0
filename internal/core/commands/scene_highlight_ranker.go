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
// command that turns the model analysis into a ranked list of scenes.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/highlights"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
)

// SceneHighlightRanker applies the highlight heuristics to the analysis text
// and outputs the top scenes as []model.SceneHighlight.
type SceneHighlightRanker struct {
	cor.BaseCommand
	requestParam string // Context key of the *model.SceneRankingRequest.
	limit        int    // Scenes kept after ranking.
}

// NewSceneHighlightRanker is the constructor for the SceneHighlightRanker command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - requestParam: The context key holding the ranking request.
//   - limit: The number of scenes to keep; non-positive uses highlights.DefaultLimit.
func NewSceneHighlightRanker(name string, requestParam string, limit int) *SceneHighlightRanker {
	return &SceneHighlightRanker{
		BaseCommand:  *cor.NewBaseCommand(name),
		requestParam: requestParam,
		limit:        limit,
	}
}

// IsExecutable requires the analysis text as input and the ranking request.
func (r *SceneHighlightRanker) IsExecutable(context cor.Context) bool {
	if !r.BaseCommand.IsExecutable(context) {
		return false
	}
	_, ok := context.Get(r.GetInputParam()).(string)
	return ok
}

func (r *SceneHighlightRanker) Execute(context cor.Context) {
	analysis := context.Get(r.GetInputParam()).(string)
	request, ok := context.Get(r.requestParam).(*model.SceneRankingRequest)
	if !ok || request == nil {
		r.Fail(context, fmt.Errorf("missing scene ranking request under %s", r.requestParam))
		return
	}
	r.Succeed(context, highlights.Rank(analysis, model.CloneScenes(request.Scenes), r.limit))
}
