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

package services_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/services"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/tmdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDiscovery(t *testing.T, movies services.MovieSource, source string) *services.DiscoveryService {
	t.Helper()
	cache := cloud.NewMemoryCache(64, time.Minute, time.Hour)
	svc := services.NewDiscoveryService(services.NewSessionStore(cache, time.Minute), movies, cloud.Discovery{
		RecommendationSource: source,
		MaxRecommendations:   3,
	})
	next := 0
	svc.NewID = func() string {
		next++
		return fmt.Sprintf("session-%d", next)
	}
	svc.Now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func answerAll(t *testing.T, svc *services.DiscoveryService, id string, answers ...string) *model.DiscoverySession {
	t.Helper()
	var session *model.DiscoverySession
	for _, a := range answers {
		var err error
		session, err = svc.Answer(context.Background(), id, a)
		require.NoError(t, err)
	}
	return session
}

func TestDiscoveryModesAndQuestions(t *testing.T) {
	svc := newDiscovery(t, nil, cloud.RecommendationSourceStatic)

	modes := svc.Modes()
	require.Len(t, modes, 2)
	assert.Equal(t, model.ModePutMeOn, modes[0].Mode)
	assert.Equal(t, 5, modes[0].Questions)

	questions, err := svc.Questions(model.ModePullMeIn)
	require.NoError(t, err)
	require.Len(t, questions, 5)
	assert.Equal(t, "scenes", questions[0].ID)

	_, err = svc.Questions("binge-me")
	assert.ErrorIs(t, err, services.ErrUnknownMode)
}

func TestDiscoveryWalkthrough(t *testing.T) {
	ctx := context.Background()
	svc := newDiscovery(t, nil, cloud.RecommendationSourceStatic)

	session, err := svc.Start(ctx, model.ModePutMeOn)
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.ID)
	assert.Zero(t, session.QuestionIndex)
	assert.Equal(t, "genre", session.CurrentQuestion().ID)

	_, err = svc.Results(ctx, session.ID)
	assert.ErrorIs(t, err, services.ErrSessionNotFinished)

	_, err = svc.Answer(ctx, session.ID, "  \t ")
	assert.ErrorIs(t, err, services.ErrBlankAnswer)

	session = answerAll(t, svc, session.ID, "  sci-fi  ", "curious", "Arrival")
	assert.Equal(t, 3, session.QuestionIndex)
	assert.False(t, session.Completed)
	assert.Equal(t, "sci-fi", session.Answers[0].Answer)

	session = answerAll(t, svc, session.ID, "time travel", "Nolan")
	assert.True(t, session.Completed)
	assert.Nil(t, session.CurrentQuestion())
	require.Len(t, session.Answers, 5)
	assert.Equal(t, "actors", session.Answers[4].QuestionID)

	// Answers after completion are ignored.
	again, err := svc.Answer(ctx, session.ID, "one more")
	require.NoError(t, err)
	assert.Len(t, again.Answers, 5)

	loaded, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Answers, loaded.Answers)

	recs, err := svc.Results(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GetMockRecommendations(model.ModePutMeOn)[:len(recs)], recs)
	assert.NotEmpty(t, recs)

	require.NoError(t, svc.Restart(ctx, session.ID))
	_, err = svc.Get(ctx, session.ID)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestDiscoverySkip(t *testing.T) {
	ctx := context.Background()
	svc := newDiscovery(t, nil, cloud.RecommendationSourceStatic)

	session, err := svc.Start(ctx, model.ModePullMeIn)
	require.NoError(t, err)
	answerAll(t, svc, session.ID, "plot twists")

	skipped, err := svc.Skip(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, skipped.Completed)
	assert.True(t, skipped.Skipped)
	assert.Len(t, skipped.Answers, 1)

	recs, err := svc.Results(ctx, session.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, recs)
}

func TestDiscoveryUnknownSession(t *testing.T) {
	ctx := context.Background()
	svc := newDiscovery(t, nil, cloud.RecommendationSourceStatic)

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
	_, err = svc.Answer(ctx, "missing", "drama")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
	_, err = svc.Skip(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
	_, err = svc.Results(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
	_, err = svc.Start(ctx, "binge-me")
	assert.ErrorIs(t, err, services.ErrUnknownMode)
}

func TestDiscoverySessionsExpire(t *testing.T) {
	ctx := context.Background()
	cache := cloud.NewMemoryCache(8, time.Minute, time.Hour)
	svc := services.NewDiscoveryService(services.NewSessionStore(cache, time.Millisecond), nil, cloud.Discovery{})

	session, err := svc.Start(ctx, model.ModePutMeOn)
	require.NoError(t, err)
	_, err = uuid.Parse(session.ID)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = svc.Get(ctx, session.ID)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestDiscoveryGenreRecommendations(t *testing.T) {
	ctx := context.Background()
	fake, client := newFakeTMDB(t)
	svc := newDiscovery(t, client, cloud.RecommendationSourceTMDB)

	session, err := svc.Start(ctx, model.ModePutMeOn)
	require.NoError(t, err)
	answerAll(t, svc, session.ID, "Mostly sci-fi and thrillers", "tense", "Arrival", "space", "Nolan")

	recs, err := svc.Results(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	query, err := url.ParseQuery(fake.query("/discover/movie"))
	require.NoError(t, err)
	assert.Equal(t, "878|53", query.Get("with_genres"))
	assert.Equal(t, "Interstellar", recs[0].Movie.Title)
	assert.Equal(t, "Picked for your love of Science Fiction.", recs[0].Reason)
	assert.Equal(t, "The Godfather", recs[1].Movie.Title)
	assert.Equal(t, "Picked for your love of Science Fiction and Thriller.", recs[1].Reason)
}

func TestDiscoveryGenreRecommendationsFallBack(t *testing.T) {
	ctx := context.Background()
	fake, client := newFakeTMDB(t)
	svc := newDiscovery(t, client, cloud.RecommendationSourceTMDB)

	session, err := svc.Start(ctx, model.ModePullMeIn)
	require.NoError(t, err)
	_, err = svc.Skip(ctx, session.ID)
	require.NoError(t, err)

	recs, err := svc.Results(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GetMockRecommendations(model.ModePullMeIn)[:len(recs)], recs)
	assert.Zero(t, fake.count("/discover/movie"))

	fake.status["/genre/movie/list"] = http.StatusServiceUnavailable
	session, err = svc.Start(ctx, model.ModePutMeOn)
	require.NoError(t, err)
	answerAll(t, svc, session.ID, "drama", "calm", "Up", "family", "none")
	recs, err = svc.Results(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GetMockRecommendations(model.ModePutMeOn)[:len(recs)], recs)
}

func TestMatchGenres(t *testing.T) {
	genres := []tmdb.Genre{
		{ID: 28, Name: "Action"},
		{ID: 35, Name: "Comedy"},
		{ID: 18, Name: "Drama"},
		{ID: 27, Name: "Horror"},
		{ID: 878, Name: "Science Fiction"},
	}
	names := func(in []tmdb.Genre) []string {
		var out []string
		for _, g := range in {
			out = append(out, g.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Action", "Science Fiction"}, names(services.MatchGenres("I love ACTION and Sci-Fi!", genres)))
	assert.Equal(t, []string{"Comedy", "Horror"}, names(services.MatchGenres("something funny, or scary", genres)))
	assert.Equal(t, []string{"Drama"}, names(services.MatchGenres("period dramas", genres)))
	assert.Empty(t, services.MatchGenres("a transaction about fractions", genres))
	assert.Empty(t, services.MatchGenres("", genres))
}

// slowCache delays reads, as a networked cache would.
type slowCache struct {
	*cloud.MemoryCache
	delay time.Duration
}

func (c slowCache) Get(ctx context.Context, key string) ([]byte, error) {
	time.Sleep(c.delay)
	return c.MemoryCache.Get(ctx, key)
}

func (c slowCache) Update(ctx context.Context, key string, ttl time.Duration, fn func([]byte) ([]byte, error)) error {
	return c.MemoryCache.Update(ctx, key, ttl, func(current []byte) ([]byte, error) {
		time.Sleep(c.delay)
		return fn(current)
	})
}

func TestDiscoveryConcurrentAnswersAreAllRecorded(t *testing.T) {
	ctx := context.Background()
	cache := slowCache{MemoryCache: cloud.NewMemoryCache(64, time.Minute, time.Hour), delay: 5 * time.Millisecond}
	svc := services.NewDiscoveryService(services.NewSessionStore(cache, time.Minute), nil, cloud.Discovery{})

	session, err := svc.Start(ctx, model.ModePutMeOn)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Answer(ctx, session.ID, fmt.Sprintf("answer %d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Answers, 5)
	assert.Equal(t, 5, loaded.QuestionIndex)
	assert.True(t, loaded.Completed)
	seen := map[string]bool{}
	for _, a := range loaded.Answers {
		assert.False(t, seen[a.QuestionID], a.QuestionID)
		seen[a.QuestionID] = true
	}
}

func TestDiscoveryRejectsStaleAnswers(t *testing.T) {
	ctx := context.Background()
	svc := newDiscovery(t, nil, cloud.RecommendationSourceStatic)
	session, err := svc.Start(ctx, model.ModePutMeOn)
	require.NoError(t, err)

	session, err = svc.AnswerQuestion(ctx, session.ID, "genre", "drama")
	require.NoError(t, err)
	assert.Equal(t, "mood", session.CurrentQuestion().ID)

	// A second submission for the same question is rejected, not recorded
	// against the next one.
	_, err = svc.AnswerQuestion(ctx, session.ID, "genre", "drama")
	assert.ErrorIs(t, err, services.ErrStaleAnswer)

	loaded, err := svc.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Answers, 1)
	assert.Equal(t, 1, loaded.QuestionIndex)

	_, err = svc.AnswerQuestion(ctx, "missing", "genre", "drama")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}
