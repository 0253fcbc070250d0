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
// first step of the scene ranking workflow.
//
// Logic Flow:
//  1. The command receives a *model.SceneRankingRequest holding the movie
//     title, its overview and the candidate scenes.
//  2. It renders the user prompt from a text/template with the vocabulary
//     TITLE, OVERVIEW and SCENE_LIST.
//  3. It stores the request under SceneRequestParam so the ranker can reach
//     the original scenes, and outputs a *model.ScenePrompt.
//
// A request without scenes is not executable, which leaves the request in
// place and skips the model call entirely.
package commands

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/highlights"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
)

// SceneRequestParam is the context key holding the *model.SceneRankingRequest
// for the commands that run after the prompt builder.
const SceneRequestParam = "__scene_request__"

// ScenePromptBuilder renders the prompts of the scene ranking request.
type ScenePromptBuilder struct {
	cor.BaseCommand
	system   string             // System prompt; empty uses the model default.
	template *template.Template // User prompt template.
}

// NewScenePromptBuilder is the constructor for the ScenePromptBuilder command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - system: The system prompt; may be empty.
//   - template: A parsed Go template for the user prompt.
//
// Outputs:
//   - *ScenePromptBuilder: A pointer to the newly instantiated command.
func NewScenePromptBuilder(name string, system string, template *template.Template) *ScenePromptBuilder {
	return &ScenePromptBuilder{
		BaseCommand: *cor.NewBaseCommand(name),
		system:      system,
		template:    template,
	}
}

// IsExecutable requires a ranking request with at least one scene.
func (b *ScenePromptBuilder) IsExecutable(context cor.Context) bool {
	if !b.BaseCommand.IsExecutable(context) {
		return false
	}
	request, ok := context.Get(b.GetInputParam()).(*model.SceneRankingRequest)
	return ok && request != nil && len(request.Scenes) > 0
}

// GenerateParams creates the template vocabulary for a request.
func (b *ScenePromptBuilder) GenerateParams(request *model.SceneRankingRequest) map[string]interface{} {
	params := make(map[string]interface{})
	params["TITLE"] = request.Title
	params["OVERVIEW"] = request.Overview
	params["SCENE_LIST"] = highlights.BuildSceneList(request.Scenes)
	return params
}

func (b *ScenePromptBuilder) Execute(context cor.Context) {
	request := context.Get(b.GetInputParam()).(*model.SceneRankingRequest)

	var buffer bytes.Buffer
	if err := b.template.Execute(&buffer, b.GenerateParams(request)); err != nil {
		b.Fail(context, fmt.Errorf("failed to execute scene prompt template: %w", err))
		return
	}

	context.Add(SceneRequestParam, request)
	b.Succeed(context, &model.ScenePrompt{System: b.system, User: buffer.String()})
}
