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
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
)

type statsView struct {
	StartedAt     time.Time        `json:"started_at"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Cache         cloud.CacheStats `json:"cache"`
}

// Dashboard sets up the /stats route reporting uptime and cache usage.
func Dashboard(r *gin.RouterGroup, s *StateManager) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			out := statsView{
				StartedAt:     s.startedAt,
				UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
			}
			if s.cloud != nil && s.cloud.Cache != nil {
				out.Cache = s.cloud.Cache.Stats(c.Request.Context())
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
