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
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/services"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/tmdb"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var statusErr *tmdb.StatusError
	switch {
	case errors.Is(err, tmdb.ErrNotFound),
		errors.Is(err, services.ErrNoTrailer),
		errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrBlankAnswer),
		errors.Is(err, services.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrSessionNotFinished),
		errors.Is(err, services.ErrStaleAnswer),
		errors.Is(err, cloud.ErrUpdateConflict):
		return http.StatusConflict
	case errors.Is(err, tmdb.ErrUnauthorized),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &statusErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with {"error": "..."}. Upstream and internal
// failures are logged and reported without their details.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	switch status {
	case http.StatusBadGateway:
		message = "upstream service unavailable"
	case http.StatusInternalServerError:
		message = "internal server error"
	}
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			"route", c.FullPath(),
			"status", status,
			"request_id", c.GetString(requestIDHeader),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
