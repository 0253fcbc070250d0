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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into pipelines. This file implements the scene ranking
// workflow, which asks a completion model to critique the scene highlights of
// a movie and reorders them with the highlight heuristics.
package workflow

import (
	"text/template"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/highlights"
)

// DefaultSceneRankingPrompt is used when no scene_ranking template is configured.
const DefaultSceneRankingPrompt = `For the movie "{{.TITLE}}": {{.OVERVIEW}}

Rank these scenes from most interesting (1) to least interesting and explain why each would make viewers want to watch the film:
{{.SCENE_LIST}}`

// DefaultSceneCriticInstructions is used when the agent model has no system instructions.
const DefaultSceneCriticInstructions = `You are an expert film critic who identifies the most captivating scenes in movies. Your goal is to highlight scenes that would make viewers interested in watching the movie without revealing major plot twists. For each scene, provide:
1. Why it's captivating (visuals, emotional impact, action, character development)
2. A rating from 1-10 on how likely this scene would make someone want to watch the movie
3. A brief, engaging description that entices viewers`

// SceneRankingWorkflow ranks the scenes of a *model.SceneRankingRequest. On
// success the chain input holds the ranked []model.SceneHighlight; a request
// without scenes is left untouched.
type SceneRankingWorkflow struct {
	cor.BaseCommand
	completionModel *cloud.QuotaAwareCompletionModel
	system          string
	promptTemplate  *template.Template
	limit           int
	chain           cor.Chain
}

func (s *SceneRankingWorkflow) Execute(context cor.Context) {
	s.chain.Execute(context)
}

// initializeChain builds prompt rendering, the model call and ranking.
func (s *SceneRankingWorkflow) initializeChain() {
	out := cor.NewBaseChain(s.GetName())
	out.AddCommand(commands.NewScenePromptBuilder("scene-prompt-builder", s.system, s.promptTemplate))
	out.AddCommand(commands.NewSceneAnalysisRequest("scene-analysis-request", s.completionModel))
	out.AddCommand(commands.NewSceneHighlightRanker("scene-highlight-ranker", commands.SceneRequestParam, s.limit))
	s.chain = out
}

// NewSceneRankingWorkflow is the constructor for the SceneRankingWorkflow.
//
// Inputs:
//   - config: The application configuration; supplies the prompt template and limit.
//   - completionModel: The model named by the highlights agent_model setting.
//
// Outputs:
//   - *SceneRankingWorkflow: The initialized workflow.
//   - error: A prompt template that does not parse.
func NewSceneRankingWorkflow(config *cloud.Config, completionModel *cloud.QuotaAwareCompletionModel) (*SceneRankingWorkflow, error) {
	source := config.PromptTemplates.SceneRankingPrompt
	if source == "" {
		source = DefaultSceneRankingPrompt
	}
	promptTemplate, err := template.New("scene-ranking-template").Parse(source)
	if err != nil {
		return nil, err
	}

	system := ""
	if completionModel == nil || completionModel.Defaults.SystemInstructions == "" {
		system = DefaultSceneCriticInstructions
	}
	limit := config.Highlights.MaxHighlights
	if limit <= 0 {
		limit = highlights.DefaultLimit
	}

	workflow := &SceneRankingWorkflow{
		BaseCommand:     *cor.NewBaseCommand("scene-ranking-workflow"),
		completionModel: completionModel,
		system:          system,
		promptTemplate:  promptTemplate,
		limit:           limit,
	}
	workflow.initializeChain()
	return workflow, nil
}
