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

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/services"
)

type quizResult struct {
	Session         *model.DiscoverySession     `json:"session"`
	Recommendations []model.MovieRecommendation `json:"recommendations"`
}

// runQuiz walks one session through its questions. Blank answers and end of
// input skip the rest of the quiz.
func runQuiz(cmd *cobra.Command, discovery *services.DiscoveryService, mode string) error {
	ctx := cmd.Context()
	session, err := discovery.Start(ctx, model.DiscoveryMode(mode))
	if err != nil {
		return err
	}
	total := len(model.GetDiscoveryQuestions(session.Mode))
	prompt := cmd.ErrOrStderr()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for question := session.CurrentQuestion(); question != nil; question = session.CurrentQuestion() {
		fmt.Fprintf(prompt, "[%d/%d] %s\n> ", question.Order, total, question.Text)
		if !scanner.Scan() || strings.TrimSpace(scanner.Text()) == "" {
			fmt.Fprintln(prompt)
			if session, err = discovery.Skip(ctx, session.ID); err != nil {
				return err
			}
			break
		}
		if session, err = discovery.AnswerQuestion(ctx, session.ID, question.ID, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	recs, err := discovery.Results(ctx, session.ID)
	if err != nil {
		return err
	}
	if err := discovery.Restart(ctx, session.ID); err != nil {
		return err
	}
	return printJSON(cmd, quizResult{Session: session, Recommendations: recs})
}
