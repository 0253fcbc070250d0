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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/services"
	test "github.com/jaycherian/gcp-go-movie-discovery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *StateManager {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trending/movie/day", "/movie/popular", "/movie/upcoming", "/search/movie":
			_, _ = w.Write([]byte(test.TrendingJSON))
		case "/movie/157336":
			_, _ = w.Write([]byte(test.InterstellarDetailsJSON))
		case "/movie/238":
			_, _ = w.Write([]byte(`{"id": 238, "title": "The Godfather"}`))
		case "/movie/500":
			w.WriteHeader(http.StatusInternalServerError)
		case "/movie/401":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(upstream.Close)

	config := cloud.NewConfig()
	config.TMDB.BaseURL = upstream.URL
	config.TMDB.APIKey = "test-key"
	config.TMDB.MaxRetries = -1
	config.Server.SearchRatePerSecond = 1
	config.Server.SearchBurst = 3

	clients := &cloud.ServiceClients{
		Cache:           cloud.NewMemoryCache(64, time.Minute, time.Hour),
		AgentModels:     map[string]*cloud.QuotaAwareCompletionModel{},
		PubSubListeners: map[string]*cloud.PubSubListener{},
	}
	registry, err := services.NewRegistry(config, clients)
	require.NoError(t, err)
	registry.Catalog.Intn = func(int) int { return 0 }

	return &StateManager{config: config, cloud: clients, services: registry, startedAt: time.Now()}
}

func serve(router http.Handler, method string, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestMovieRoutes(t *testing.T) {
	router := NewRouter(newTestState(t))

	rec := serve(router, http.MethodGet, "/api/v1/movies/trending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.MovieSummary](t, rec), 6)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = serve(router, http.MethodGet, "/api/v1/movies/157336", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[model.MovieDetail](t, rec)
	assert.Equal(t, "2h 49m", detail.RuntimeLabel)
	assert.Len(t, detail.Cast, 12)

	rec = serve(router, http.MethodGet, "/api/v1/movies/157336/trailer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zSWdZVtXT7E", decode[model.Trailer](t, rec).VideoID)

	rec = serve(router, http.MethodGet, "/api/v1/movies/157336/similar?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	similar := decode[[]model.SimilarMovie](t, rec)
	require.Len(t, similar, 2)
	assert.Equal(t, "Full Overlap", similar[0].Title)

	rec = serve(router, http.MethodGet, "/api/v1/movies/238/highlights", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.SceneHighlight](t, rec), 2)

	// Ranking is not configured, so enhanced highlights keep catalog order.
	rec = serve(router, http.MethodGet, "/api/v1/movies/157336/highlights?enhance=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Docking Scene", decode[[]model.SceneHighlight](t, rec)[0].Title)
}

func TestMovieRouteErrors(t *testing.T) {
	router := NewRouter(newTestState(t))

	cases := []struct {
		target string
		status int
	}{
		{"/api/v1/movies/abc", http.StatusBadRequest},
		{"/api/v1/movies/-1", http.StatusBadRequest},
		{"/api/v1/movies/999", http.StatusNotFound},
		{"/api/v1/movies/238/trailer", http.StatusNotFound},
		{"/api/v1/movies/500", http.StatusBadGateway},
		{"/api/v1/movies/401", http.StatusBadGateway},
		{"/api/v1/movies/157336/similar?limit=zero", http.StatusBadRequest},
		{"/api/v1/movies/157336/highlights?enhance=maybe", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := serve(router, http.MethodGet, tc.target, "")
		assert.Equal(t, tc.status, rec.Code, tc.target)
		assert.NotEmpty(t, decode[map[string]string](t, rec)["error"], tc.target)
	}

	rec := serve(router, http.MethodGet, "/api/v1/movies/500", "")
	assert.Equal(t, "upstream service unavailable", decode[map[string]string](t, rec)["error"])
}

func TestSearchRoute(t *testing.T) {
	router := NewRouter(newTestState(t))

	rec := serve(router, http.MethodGet, "/api/v1/search?q=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/v1/search?q=inter", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.MovieSummary](t, rec), services.DefaultSearchLimit)

	// The burst of three is spent; the fourth request is throttled.
	rec = serve(router, http.MethodGet, "/api/v1/search?q=inter&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(router, http.MethodGet, "/api/v1/search?q=inter", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestHomeRoute(t *testing.T) {
	router := NewRouter(newTestState(t))

	rec := serve(router, http.MethodGet, "/api/v1/home", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[model.HomePage](t, rec)
	require.NotNil(t, page.Featured)
	assert.Equal(t, 157336, page.Featured.ID)
	assert.Equal(t, 238, page.HighlightMovie.ID)
	assert.Equal(t, "The Offer", page.Highlights[0].Title)
}

func TestDiscoverRoutes(t *testing.T) {
	router := NewRouter(newTestState(t))

	rec := serve(router, http.MethodGet, "/api/v1/discover/modes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.DiscoveryModeInfo](t, rec), 2)

	rec = serve(router, http.MethodGet, "/api/v1/discover/modes/pull-me-in/questions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.DiscoveryQuestion](t, rec), 5)

	rec = serve(router, http.MethodGet, "/api/v1/discover/modes/nope/questions", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, "/api/v1/discover/sessions", `{"mode": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(router, http.MethodPost, "/api/v1/discover/sessions", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, "/api/v1/discover/sessions", `{"mode": "put-me-on"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decode[sessionView](t, rec)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, "genre", session.CurrentQuestion.ID)
	assert.Equal(t, 5, session.TotalQuestions)
	base := "/api/v1/discover/sessions/" + session.ID

	rec = serve(router, http.MethodGet, base+"/results", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(router, http.MethodPost, base+"/answers", `{"answer": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, base+"/answers", `{"answer": "Science fiction"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	session = decode[sessionView](t, rec)
	assert.Equal(t, 1, session.QuestionIndex)
	assert.Equal(t, "mood", session.CurrentQuestion.ID)

	// A retried answer to the genre question must not land on mood.
	rec = serve(router, http.MethodPost, base+"/answers", `{"question_id": "genre", "answer": "Science fiction"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(router, http.MethodPost, base+"/answers", `{"question_id": "mood", "answer": "Something light"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	session = decode[sessionView](t, rec)
	assert.Equal(t, 2, session.QuestionIndex)

	rec = serve(router, http.MethodPost, base+"/skip", "")
	require.Equal(t, http.StatusOK, rec.Code)
	session = decode[sessionView](t, rec)
	assert.True(t, session.Completed)
	assert.Nil(t, session.CurrentQuestion)

	rec = serve(router, http.MethodGet, base+"/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	results := decode[resultsView](t, rec)
	assert.Equal(t, model.ModePutMeOn, results.Mode)
	assert.NotEmpty(t, results.Recommendations)

	rec = serve(router, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(router, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOperationalRoutes(t *testing.T) {
	router := NewRouter(newTestState(t))

	rec := serve(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rec)["status"])

	serve(router, http.MethodGet, "/api/v1/movies/trending", "")
	rec = serve(router, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[statsView](t, rec)
	assert.Equal(t, cloud.CacheBackendMemory, stats.Cache.Backend)
	assert.Positive(t, stats.Cache.Entries)

	rec = serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/api/v1/movies/trending",status="200"} 1`)

	rec = serve(router, http.MethodGet, "/api/v1/movies/trending", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	out := httptest.NewRecorder()
	router.ServeHTTP(out, req)
	assert.Equal(t, "abc-123", out.Header().Get(requestIDHeader))
}
