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
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxListLimit = 20

// MovieRouter sets up the movie listing, detail, trailer, similar and
// highlight routes.
func MovieRouter(r *gin.RouterGroup, s *StateManager) {
	catalog := s.services.Catalog
	highlights := s.services.Highlights

	movies := r.Group("/movies")
	{
		movies.GET("/trending", func(c *gin.Context) {
			out, err := catalog.Trending(c.Request.Context())
			respond(c, out, err)
		})

		movies.GET("/popular", func(c *gin.Context) {
			out, err := catalog.Popular(c.Request.Context())
			respond(c, out, err)
		})

		movies.GET("/upcoming", func(c *gin.Context) {
			out, err := catalog.Upcoming(c.Request.Context())
			respond(c, out, err)
		})

		movies.GET("/:id", func(c *gin.Context) {
			id, ok := movieID(c)
			if !ok {
				return
			}
			out, err := catalog.Detail(c.Request.Context(), id)
			respond(c, out, err)
		})

		movies.GET("/:id/trailer", func(c *gin.Context) {
			id, ok := movieID(c)
			if !ok {
				return
			}
			out, err := catalog.Trailer(c.Request.Context(), id)
			respond(c, out, err)
		})

		movies.GET("/:id/similar", func(c *gin.Context) {
			id, ok := movieID(c)
			if !ok {
				return
			}
			limit, ok := queryLimit(c, 0)
			if !ok {
				return
			}
			out, err := catalog.Similar(c.Request.Context(), id, limit)
			respond(c, out, err)
		})

		movies.GET("/:id/highlights", func(c *gin.Context) {
			id, ok := movieID(c)
			if !ok {
				return
			}
			enhance := s.config.Highlights.EnhanceByDefault
			if raw := c.Query("enhance"); raw != "" {
				parsed, err := strconv.ParseBool(raw)
				if err != nil {
					badRequest(c, "enhance must be true or false")
					return
				}
				enhance = parsed
			}
			if enhance {
				out, err := highlights.Enhanced(c.Request.Context(), id)
				respond(c, out, err)
				return
			}
			out, err := highlights.Scenes(c.Request.Context(), id)
			respond(c, out, err)
		})
	}
}

// SearchRouter sets up the rate limited title search.
func SearchRouter(r *gin.RouterGroup, s *StateManager) {
	limiter := newIPRateLimiter(s.config.Server.SearchRatePerSecond, s.config.Server.SearchBurst)
	r.GET("/search", limiter.middleware(), func(c *gin.Context) {
		limit, ok := queryLimit(c, 0)
		if !ok {
			return
		}
		out, err := s.services.Catalog.Search(c.Request.Context(), c.Query("q"), limit)
		respond(c, out, err)
	})
}

// HomeRouter sets up the aggregated landing page.
func HomeRouter(r *gin.RouterGroup, s *StateManager) {
	r.GET("/home", func(c *gin.Context) {
		out, err := s.services.Catalog.Home(c.Request.Context())
		respond(c, out, err)
	})
}

func respond(c *gin.Context, out any, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func movieID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "invalid movie id")
		return 0, false
	}
	return id, true
}

// queryLimit parses the optional limit query parameter, capped at
// maxListLimit. Zero means the service default.
func queryLimit(c *gin.Context, fallback int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		badRequest(c, "limit must be a positive integer")
		return 0, false
	}
	return min(limit, maxListLimit), true
}
