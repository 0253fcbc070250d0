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
// entry point of the highlight warm-up workflow, which parses the Pub/Sub
// message requesting a warm-up.
//
// Two payloads are accepted: {"movie_id": 157336} and a bare 157336.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
)

// HighlightTriggerReader parses the warm-up message into a *model.HighlightTrigger.
type HighlightTriggerReader struct {
	cor.BaseCommand
}

func NewHighlightTriggerReader(name string) *HighlightTriggerReader {
	return &HighlightTriggerReader{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *HighlightTriggerReader) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Fail(context, fmt.Errorf("expected a string message, got %T", context.Get(c.GetInputParam())))
		return
	}
	trigger, err := ParseHighlightTrigger(in)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context, trigger)
}

// ParseHighlightTrigger decodes a warm-up message. The movie id must be positive.
func ParseHighlightTrigger(in string) (*model.HighlightTrigger, error) {
	in = strings.TrimSpace(in)
	out := &model.HighlightTrigger{}
	if id, err := strconv.Atoi(in); err == nil {
		out.MovieID = id
	} else if err := json.Unmarshal([]byte(in), out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal highlight trigger: %w", err)
	}
	if out.MovieID <= 0 {
		return nil, errors.New("highlight trigger has no movie id")
	}
	return out, nil
}
