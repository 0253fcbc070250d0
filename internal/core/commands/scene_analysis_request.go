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
// command that sends the scene prompt to the completion model and outputs the
// raw analysis text.
package commands

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
)

// SceneAnalysisRequest asks the completion model to rank and describe scenes.
type SceneAnalysisRequest struct {
	cor.BaseCommand
	completionModel    *cloud.QuotaAwareCompletionModel // The rate-limited completion model.
	inputTokenCounter  metric.Int64Counter              // OTel counter for prompt tokens.
	outputTokenCounter metric.Int64Counter              // OTel counter for response tokens.
	retryCounter       metric.Int64Counter              // OTel counter for retries.
}

// NewSceneAnalysisRequest is the constructor for the SceneAnalysisRequest command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - completionModel: The rate-limited completion model.
//
// Outputs:
//   - *SceneAnalysisRequest: The command with its token counters initialized.
func NewSceneAnalysisRequest(name string, completionModel *cloud.QuotaAwareCompletionModel) *SceneAnalysisRequest {
	out := &SceneAnalysisRequest{
		BaseCommand:     *cor.NewBaseCommand(name),
		completionModel: completionModel,
	}
	out.inputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.completion.token.input", out.GetName()))
	out.outputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.completion.token.output", out.GetName()))
	out.retryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.completion.retry", out.GetName()))
	return out
}

// IsExecutable requires a rendered *model.ScenePrompt.
func (s *SceneAnalysisRequest) IsExecutable(context cor.Context) bool {
	if !s.BaseCommand.IsExecutable(context) {
		return false
	}
	prompt, ok := context.Get(s.GetInputParam()).(*model.ScenePrompt)
	return ok && prompt != nil
}

func (s *SceneAnalysisRequest) Execute(context cor.Context) {
	if s.completionModel == nil {
		s.Fail(context, fmt.Errorf("no completion model configured for %s", s.GetName()))
		return
	}
	prompt := context.Get(s.GetInputParam()).(*model.ScenePrompt)

	out, err := cloud.GenerateCompletion(
		context.GetContext(),
		s.inputTokenCounter,
		s.outputTokenCounter,
		s.retryCounter,
		0,
		s.completionModel,
		&cloud.CompletionRequest{System: prompt.System, User: prompt.User})
	if err != nil {
		s.Fail(context, fmt.Errorf("scene analysis request failed: %w", err))
		return
	}
	s.Succeed(context, out)
}
