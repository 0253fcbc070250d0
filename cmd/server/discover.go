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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
)

type startSessionRequest struct {
	Mode model.DiscoveryMode `json:"mode" binding:"required"`
}

type answerRequest struct {
	QuestionID string `json:"question_id"` // Optional; a stale id is rejected with 409.
	Answer     string `json:"answer"`
}

// sessionView is a session with the question it is waiting on.
type sessionView struct {
	*model.DiscoverySession
	CurrentQuestion *model.DiscoveryQuestion `json:"current_question,omitempty"`
	TotalQuestions  int                      `json:"total_questions"`
}

func newSessionView(session *model.DiscoverySession) sessionView {
	return sessionView{
		DiscoverySession: session,
		CurrentQuestion:  session.CurrentQuestion(),
		TotalQuestions:   len(model.GetDiscoveryQuestions(session.Mode)),
	}
}

type resultsView struct {
	SessionID       string                      `json:"session_id"`
	Mode            model.DiscoveryMode         `json:"mode"`
	Recommendations []model.MovieRecommendation `json:"recommendations"`
}

// DiscoverRouter sets up the discovery quiz routes.
func DiscoverRouter(r *gin.RouterGroup, s *StateManager) {
	discovery := s.services.Discovery

	discover := r.Group("/discover")
	{
		discover.GET("/modes", func(c *gin.Context) {
			c.JSON(http.StatusOK, discovery.Modes())
		})

		discover.GET("/modes/:mode/questions", func(c *gin.Context) {
			out, err := discovery.Questions(model.DiscoveryMode(c.Param("mode")))
			respond(c, out, err)
		})

		discover.POST("/sessions", func(c *gin.Context) {
			var req startSessionRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, "body must be {\"mode\": \"put-me-on\" | \"pull-me-in\"}")
				return
			}
			session, err := discovery.Start(c.Request.Context(), req.Mode)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusCreated, newSessionView(session))
		})

		discover.GET("/sessions/:id", func(c *gin.Context) {
			session, err := discovery.Get(c.Request.Context(), c.Param("id"))
			respondSession(c, session, err)
		})

		discover.POST("/sessions/:id/answers", func(c *gin.Context) {
			var req answerRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, "body must be {\"answer\": \"...\"}")
				return
			}
			session, err := discovery.AnswerQuestion(c.Request.Context(), c.Param("id"), req.QuestionID, req.Answer)
			respondSession(c, session, err)
		})

		discover.POST("/sessions/:id/skip", func(c *gin.Context) {
			session, err := discovery.Skip(c.Request.Context(), c.Param("id"))
			respondSession(c, session, err)
		})

		discover.GET("/sessions/:id/results", func(c *gin.Context) {
			id := c.Param("id")
			recs, err := discovery.Results(c.Request.Context(), id)
			if err != nil {
				writeError(c, err)
				return
			}
			session, err := discovery.Get(c.Request.Context(), id)
			if err != nil {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusOK, resultsView{SessionID: id, Mode: session.Mode, Recommendations: recs})
		})

		discover.DELETE("/sessions/:id", func(c *gin.Context) {
			if err := discovery.Restart(c.Request.Context(), c.Param("id")); err != nil {
				writeError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})
	}
}

func respondSession(c *gin.Context, session *model.DiscoverySession, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionView(session))
}
