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

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/tmdb"
)

const (
	sessionKeyFormat          = "discovery:session:%s"
	DefaultMaxRecommendations = 6
)

// genreAliases maps lower-case TMDB genre names to other ways people name
// them in free text.
var genreAliases = map[string][]string{
	"action":          {"explosions", "fight scenes", "car chases"},
	"animation":       {"animated", "cartoon", "cartoons", "anime"},
	"comedy":          {"comedies", "funny", "laugh", "hilarious"},
	"crime":           {"heist", "gangster", "mafia"},
	"documentary":     {"documentaries", "true story"},
	"drama":           {"dramas", "dramatic"},
	"fantasy":         {"magic", "dragons"},
	"horror":          {"scary", "spooky", "creepy"},
	"mystery":         {"whodunit", "mysteries", "detective"},
	"romance":         {"romantic", "love story", "romcom"},
	"science fiction": {"sci fi", "scifi", "space", "futuristic"},
	"thriller":        {"thrillers", "suspense", "suspenseful", "tense"},
	"war":             {"battle", "soldiers"},
	"western":         {"westerns", "cowboys"},
}

// SessionStore keeps discovery sessions in the shared cache as JSON. Each
// save renews the session TTL.
type SessionStore struct {
	Cache cloud.Cache
	TTL   time.Duration
}

func NewSessionStore(cache cloud.Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{Cache: cache, TTL: ttl}
}

// Load returns the session with id, or ErrSessionNotFound when it is unknown
// or has expired.
func (s *SessionStore) Load(ctx context.Context, id string) (*model.DiscoverySession, error) {
	session := &model.DiscoverySession{}
	err := cloud.GetJSON(ctx, s.Cache, fmt.Sprintf(sessionKeyFormat, id), session)
	if errors.Is(err, cloud.ErrCacheMiss) {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *model.DiscoverySession) error {
	return cloud.SetJSON(ctx, s.Cache, fmt.Sprintf(sessionKeyFormat, session.ID), session, s.TTL)
}

// Update applies fn to the stored session and saves the result atomically,
// so concurrent updates of one session are applied one after the other.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(session *model.DiscoverySession) error) (*model.DiscoverySession, error) {
	var out *model.DiscoverySession
	err := s.Cache.Update(ctx, fmt.Sprintf(sessionKeyFormat, id), s.TTL, func(current []byte) ([]byte, error) {
		if current == nil {
			return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
		}
		session := &model.DiscoverySession{}
		if err := json.Unmarshal(current, session); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", id, err)
		}
		if err := fn(session); err != nil {
			return nil, err
		}
		out = session
		return json.Marshal(session)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.Cache.Delete(ctx, fmt.Sprintf(sessionKeyFormat, id))
}

// DiscoveryService runs the discovery quiz: it walks a session through the
// questions of its mode and produces recommendations once it is complete.
type DiscoveryService struct {
	Sessions           *SessionStore
	Movies             MovieSource // Required by the "tmdb" recommendation source.
	Source             string
	MaxRecommendations int

	Now   func() time.Time
	NewID func() string
}

// NewDiscoveryService creates a discovery service from the quiz settings.
func NewDiscoveryService(sessions *SessionStore, movies MovieSource, settings cloud.Discovery) *DiscoveryService {
	limit := settings.MaxRecommendations
	if limit <= 0 {
		limit = DefaultMaxRecommendations
	}
	source := settings.RecommendationSource
	if source == "" {
		source = cloud.RecommendationSourceStatic
	}
	return &DiscoveryService{
		Sessions:           sessions,
		Movies:             movies,
		Source:             source,
		MaxRecommendations: limit,
		Now:                time.Now,
		NewID:              uuid.NewString,
	}
}

func (d *DiscoveryService) Modes() []model.DiscoveryModeInfo {
	return model.GetDiscoveryModes()
}

func (d *DiscoveryService) Questions(mode model.DiscoveryMode) ([]model.DiscoveryQuestion, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%q: %w", mode, ErrUnknownMode)
	}
	return model.GetDiscoveryQuestions(mode), nil
}

// Start opens a new session positioned on the first question of mode.
func (d *DiscoveryService) Start(ctx context.Context, mode model.DiscoveryMode) (*model.DiscoverySession, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%q: %w", mode, ErrUnknownMode)
	}
	now := d.now()
	session := &model.DiscoverySession{
		ID:        d.newID(),
		Mode:      mode,
		Answers:   []model.DiscoveryAnswer{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	slog.Debug("discovery session started", "session_id", session.ID, "mode", mode)
	return session, nil
}

func (d *DiscoveryService) Get(ctx context.Context, id string) (*model.DiscoverySession, error) {
	return d.Sessions.Load(ctx, id)
}

// Answer records the answer to the current question and advances the
// session. Answering the last question completes it. A completed session is
// returned unchanged.
func (d *DiscoveryService) Answer(ctx context.Context, id string, answer string) (*model.DiscoverySession, error) {
	return d.AnswerQuestion(ctx, id, "", answer)
}

// AnswerQuestion is Answer for a client that names the question it answers.
// When questionID is set and is not the current question, the answer is
// rejected with ErrStaleAnswer.
func (d *DiscoveryService) AnswerQuestion(ctx context.Context, id string, questionID string, answer string) (*model.DiscoverySession, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, ErrBlankAnswer
	}
	return d.Sessions.Update(ctx, id, func(session *model.DiscoverySession) error {
		question := session.CurrentQuestion()
		if question == nil {
			return nil
		}
		if questionID != "" && questionID != question.ID {
			return fmt.Errorf("answer to %q, current question is %q: %w", questionID, question.ID, ErrStaleAnswer)
		}

		session.Answers = append(session.Answers, model.DiscoveryAnswer{
			QuestionID: question.ID,
			Answer:     answer,
		})
		session.QuestionIndex++
		if session.QuestionIndex >= len(model.GetDiscoveryQuestions(session.Mode)) {
			session.Completed = true
		}
		session.UpdatedAt = d.now()
		return nil
	})
}

// Skip completes the session without answering the remaining questions.
func (d *DiscoveryService) Skip(ctx context.Context, id string) (*model.DiscoverySession, error) {
	return d.Sessions.Update(ctx, id, func(session *model.DiscoverySession) error {
		if !session.Completed {
			session.Completed = true
			session.Skipped = true
			session.UpdatedAt = d.now()
		}
		return nil
	})
}

// Restart forgets the session so the user can pick a mode again.
func (d *DiscoveryService) Restart(ctx context.Context, id string) error {
	return d.Sessions.Delete(ctx, id)
}

// Results returns the recommendations of a completed session.
func (d *DiscoveryService) Results(ctx context.Context, id string) ([]model.MovieRecommendation, error) {
	session, err := d.Sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Completed {
		return nil, fmt.Errorf("session %s: %w", id, ErrSessionNotFinished)
	}

	if d.Source == cloud.RecommendationSourceTMDB && d.Movies != nil {
		recs, err := d.genreRecommendations(ctx, session)
		if err == nil {
			return recs, nil
		}
		slog.Info("falling back to static recommendations", "session_id", id, "reason", err)
	}
	return truncate(model.GetMockRecommendations(session.Mode), d.MaxRecommendations), nil
}

func (d *DiscoveryService) genreRecommendations(ctx context.Context, session *model.DiscoverySession) ([]model.MovieRecommendation, error) {
	texts := make([]string, 0, len(session.Answers))
	for _, a := range session.Answers {
		texts = append(texts, a.Answer)
	}
	genres, err := d.Movies.GenreList(ctx)
	if err != nil {
		return nil, err
	}
	matched := MatchGenres(strings.Join(texts, " "), genres)
	if len(matched) == 0 {
		return nil, errors.New("no genre named in the answers")
	}

	ids := make([]int, 0, len(matched))
	for _, g := range matched {
		ids = append(ids, g.ID)
	}
	movies, err := d.Movies.DiscoverByGenres(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, errors.New("no movie found for the matched genres")
	}

	out := make([]model.MovieRecommendation, 0, d.MaxRecommendations)
	for _, m := range truncate(movies, d.MaxRecommendations) {
		out = append(out, model.MovieRecommendation{
			Movie:  summarize(d.Movies, m),
			Reason: recommendationReason(session.Mode, sharedGenreNames(matched, m.GenreIDs)),
		})
	}
	return out, nil
}

// MatchGenres returns the genres named in text, by name or by a common alias,
// in the order of genres.
func MatchGenres(text string, genres []tmdb.Genre) []tmdb.Genre {
	normalized := " " + normalizeWords(text) + " "
	var out []tmdb.Genre
	for _, g := range genres {
		name := strings.ToLower(g.Name)
		terms := append([]string{name}, genreAliases[name]...)
		for _, term := range terms {
			term = normalizeWords(term)
			if term == "" {
				continue
			}
			if strings.Contains(normalized, " "+term+" ") || strings.Contains(normalized, " "+term+"s ") {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// normalizeWords lower-cases s and collapses every run of characters that
// are not letters or digits into a single space.
func normalizeWords(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func sharedGenreNames(matched []tmdb.Genre, movieGenres []int) []string {
	var names []string
	for _, g := range matched {
		for _, id := range movieGenres {
			if id == g.ID {
				names = append(names, g.Name)
				break
			}
		}
	}
	if len(names) == 0 {
		for _, g := range matched {
			names = append(names, g.Name)
		}
	}
	return names
}

func recommendationReason(mode model.DiscoveryMode, genres []string) string {
	list := joinNames(genres)
	if mode == model.ModePullMeIn {
		return fmt.Sprintf("Chosen from %s for the kind of scenes you said pull you in.", list)
	}
	return fmt.Sprintf("Picked for your love of %s.", list)
}

// joinNames renders names as "A", "A and B" or "A, B and C".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func (d *DiscoveryService) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *DiscoveryService) newID() string {
	if d.NewID == nil {
		return uuid.NewString()
	}
	return d.NewID()
}
