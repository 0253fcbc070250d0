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
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIBackend calls Gemini models on Vertex AI through the genai SDK.
type GenAIBackend struct {
	Models *genai.Models
}

// NewGenAIBackend wraps the Models service of an initialised genai client.
func NewGenAIBackend(client *genai.Client) *GenAIBackend {
	return &GenAIBackend{Models: client.Models}
}

// Complete sends the user prompt with the system instruction and sampling
// settings and concatenates the text parts of every candidate.
func (g *GenAIBackend) Complete(ctx context.Context, model string, request *CompletionRequest) (*Completion, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](request.Temperature),
		MaxOutputTokens: request.MaxTokens,
		SafetySettings:  DefaultSafetySettings,
	}
	if request.TopP > 0 {
		config.TopP = genai.Ptr[float32](request.TopP)
	}
	if request.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: request.System}}}
	}

	resp, err := g.Models.GenerateContent(ctx, model, genai.Text(request.User), config)
	if err != nil {
		return nil, fmt.Errorf("genai generate content: %w", err)
	}

	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
	}

	out := &Completion{Text: text.String()}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
