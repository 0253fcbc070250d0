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

// Package main contains the logic for setting up and starting the Pub/Sub message listeners.
// The highlight warm-up listener ranks and caches the scene highlights of a
// movie ahead of the first request for them.
package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/workflow"
)

// SetupListeners attaches the warm-up workflow to the listener named by
// Highlights.WarmupTopic and starts it. Nothing happens when no warm-up
// topic is configured.
//
// Inputs:
//   - ctx: The application's root context, used to manage the lifecycle of the listeners.
//   - config: The application's configuration.
//   - cloudClients: The initialized clients, holding the Pub/Sub listeners.
//   - warmer: The service that ranks and caches highlights.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, warmer commands.HighlightWarmer) {
	topic := config.Highlights.WarmupTopic
	if topic == "" {
		return
	}
	listener, ok := cloudClients.PubSubListeners[topic]
	if !ok {
		slog.Warn("warm-up topic has no subscription", "topic", topic)
		return
	}
	listener.SetCommand(workflow.NewHighlightWarmupWorkflow(warmer))
	listener.Listen(ctx)
	slog.Info("listening for highlight warm-ups", "topic", topic)
}
