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

// Package cloud provides components for interacting with external services.
// This file defines a generic Pub/Sub message listener. Receiving messages is
// separated from processing them: every message is handed to a cor.Command,
// and the message is acknowledged only when the command finishes without
// errors, giving at-least-once processing.
package cloud

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PubSubListener connects a subscription to a processing command. Listeners
// live for the whole process, independent of API requests.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	timeout      time.Duration // Processing deadline of one message.
	command      cor.Command
}

// NewPubSubListener creates a listener for the subscription named in settings.
//
// Inputs:
//   - pubsubClient: An authenticated *pubsub.Client.
//   - settings: The subscription name and the per-message timeout.
//   - command: The command executed for each message; may be nil and set later.
func NewPubSubListener(
	pubsubClient *pubsub.Client,
	settings TopicSubscription,
	command cor.Command,
) *PubSubListener {
	return &PubSubListener{
		client:       pubsubClient,
		subscription: pubsubClient.Subscription(settings.Name),
		timeout:      secondsOr(settings.TimeoutInSeconds, 120),
		command:      command,
	}
}

// SetCommand attaches a command if none is set yet.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen starts receiving messages in a background goroutine. Cancelling ctx
// stops the receiver.
func (m *PubSubListener) Listen(ctx context.Context) {
	if m.command == nil {
		slog.Warn("pubsub listener has no command, not listening", "subscription", m.subscription.ID())
		return
	}
	slog.Info("listening", "subscription", m.subscription.ID())

	go func() {
		tracer := otel.Tracer("message-listener")
		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			m.handle(msgCtx, tracer, msg.ID, msg.Data, msg.Ack)
		})
		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.ID(), "error", err)
		}
	}()
}

// handle runs the command for one message. Failed messages are neither acked
// nor nacked so redelivery follows the subscription retry policy.
func (m *PubSubListener) handle(ctx context.Context, tracer trace.Tracer, id string, data []byte, ack func()) {
	msgCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	spanCtx, span := tracer.Start(msgCtx, "receive-message")
	defer span.End()
	span.SetAttributes(attribute.String("msg", string(data)), attribute.String("id", id))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(spanCtx)
	chainCtx.Add(cor.CtxIn, string(data))
	defer chainCtx.Close()

	m.command.Execute(chainCtx)

	if !chainCtx.HasErrors() {
		span.SetStatus(codes.Ok, "success")
		ack()
		return
	}
	span.SetStatus(codes.Error, "failed")
	for _, e := range chainCtx.GetErrors() {
		slog.Error("error executing chain", "message_id", id, "error", e)
	}
}
