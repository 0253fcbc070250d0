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
// combining commands into pipelines. This file implements the highlight
// warm-up workflow. It is attached to a Pub/Sub listener and ranks the
// highlights of the requested movie so the first page view is served from
// the cache.
package workflow

import (
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
)

// HighlightWarmupWorkflow parses a warm-up message and warms the highlight cache.
type HighlightWarmupWorkflow struct {
	cor.BaseCommand
	warmer commands.HighlightWarmer
	chain  cor.Chain
}

func (h *HighlightWarmupWorkflow) Execute(context cor.Context) {
	h.chain.Execute(context)
}

func (h *HighlightWarmupWorkflow) initializeChain() {
	out := cor.NewBaseChain(h.GetName())
	out.AddCommand(commands.NewHighlightTriggerReader("highlight-trigger-reader"))
	out.AddCommand(commands.NewHighlightEnhancer("highlight-enhancer", h.warmer))
	h.chain = out
}

// NewHighlightWarmupWorkflow creates the warm-up workflow around the service
// that ranks and caches highlights.
func NewHighlightWarmupWorkflow(warmer commands.HighlightWarmer) *HighlightWarmupWorkflow {
	workflow := &HighlightWarmupWorkflow{
		BaseCommand: *cor.NewBaseCommand("highlight-warmup-workflow"),
		warmer:      warmer,
	}
	workflow.initializeChain()
	return workflow
}
