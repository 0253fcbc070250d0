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

// Package model defines the data structures for the application. This file
// holds the discovery quiz: its two modes, their ordered questions, the mock
// recommendations shown at the end of each flow and the session state that
// tracks a user's progress through a flow.
package model

import (
	"time"
)

// DiscoveryMode selects one of the two quiz flows.
type DiscoveryMode string

const (
	// ModePutMeOn recommends movies from the user's tastes and preferences.
	ModePutMeOn DiscoveryMode = "put-me-on"
	// ModePullMeIn recommends movies whose scenes match what captivates the user.
	ModePullMeIn DiscoveryMode = "pull-me-in"
)

// Valid reports whether m is a known mode.
func (m DiscoveryMode) Valid() bool {
	return m == ModePutMeOn || m == ModePullMeIn
}

// DiscoveryModeInfo describes a mode for the mode picker.
type DiscoveryModeInfo struct {
	Mode        DiscoveryMode `json:"mode"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Questions   int           `json:"questions"`
}

// DiscoveryQuestion is one step of a quiz flow.
type DiscoveryQuestion struct {
	ID    string        `json:"id"`
	Text  string        `json:"text"`
	Mode  DiscoveryMode `json:"mode"`
	Order int           `json:"order"`
}

// DiscoveryAnswer is the user's answer to one question.
type DiscoveryAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// MovieRecommendation pairs a movie with the reason it is recommended.
type MovieRecommendation struct {
	Movie  MovieSummary `json:"movie"`
	Reason string       `json:"reason"`
}

// DiscoverySession is the server-side state of one quiz run.
type DiscoverySession struct {
	ID            string            `json:"id"`
	Mode          DiscoveryMode     `json:"mode"`
	QuestionIndex int               `json:"question_index"`
	Answers       []DiscoveryAnswer `json:"answers"`
	Completed     bool              `json:"completed"`
	Skipped       bool              `json:"skipped,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// CurrentQuestion returns the question awaiting an answer, or nil once the
// session is complete.
func (s *DiscoverySession) CurrentQuestion() *DiscoveryQuestion {
	if s.Completed {
		return nil
	}
	questions := GetDiscoveryQuestions(s.Mode)
	if s.QuestionIndex < 0 || s.QuestionIndex >= len(questions) {
		return nil
	}
	q := questions[s.QuestionIndex]
	return &q
}

// AnswerTo returns the answer recorded for questionID, if any.
func (s *DiscoverySession) AnswerTo(questionID string) (string, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a.Answer, true
		}
	}
	return "", false
}

var discoveryModes = []DiscoveryModeInfo{
	{
		Mode:        ModePutMeOn,
		Title:       "Put Me On",
		Description: "Discover new movies based on your tastes and preferences.",
	},
	{
		Mode:        ModePullMeIn,
		Title:       "Pull Me In",
		Description: "Discover movies with scenes that will captivate and draw you in.",
	},
}

var discoveryQuestions = map[DiscoveryMode][]DiscoveryQuestion{
	ModePutMeOn: {
		{ID: "genre", Text: "What genres of movies do you enjoy the most?", Mode: ModePutMeOn, Order: 1},
		{ID: "mood", Text: "What kind of mood are you in right now?", Mode: ModePutMeOn, Order: 2},
		{ID: "recent", Text: "Name a movie you've watched recently that you loved.", Mode: ModePutMeOn, Order: 3},
		{ID: "themes", Text: "What themes or topics are you interested in exploring?", Mode: ModePutMeOn, Order: 4},
		{ID: "actors", Text: "Do you have any favorite actors or directors?", Mode: ModePutMeOn, Order: 5},
	},
	ModePullMeIn: {
		{ID: "scenes", Text: "What type of scenes captivate you the most? (action, emotional, plot twists, visuals)", Mode: ModePullMeIn, Order: 1},
		{ID: "characters", Text: "What character qualities do you find most interesting?", Mode: ModePullMeIn, Order: 2},
		{ID: "emotions", Text: "What emotions do you want to experience while watching?", Mode: ModePullMeIn, Order: 3},
		{ID: "storytelling", Text: "Do you prefer straightforward or complex storytelling?", Mode: ModePullMeIn, Order: 4},
		{ID: "moments", Text: "Describe a movie moment that had a strong impact on you.", Mode: ModePullMeIn, Order: 5},
	},
}

var mockRecommendations = map[DiscoveryMode][]MovieRecommendation{
	ModePutMeOn: {
		{
			Movie: MovieSummary{
				ID:           157336,
				Title:        "Interstellar",
				PosterPath:   "/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg",
				BackdropPath: "/xJHokMbljvjADYdit5fK5VQsXEG.jpg",
				Overview:     "The adventures of a group of explorers who make use of a newly discovered wormhole to surpass the limitations on human space travel and conquer the vast distances involved in an interstellar voyage.",
				ReleaseDate:  "2014-11-05",
				VoteAverage:  8.3,
			},
			Reason: "Based on your interest in science fiction and emotional storytelling, Interstellar offers both mind-bending concepts and deeply moving family relationships.",
		},
		{
			Movie: MovieSummary{
				ID:           238,
				Title:        "The Godfather",
				PosterPath:   "/3bhkrj58Vtu7enYsRolD1fZdja1.jpg",
				BackdropPath: "/rSPw7tgCH9c6NqICZef4kZjFOQ5.jpg",
				Overview:     "Spanning the years 1945 to 1955, a chronicle of the fictional Italian-American Corleone crime family. When organized crime family patriarch, Vito Corleone barely survives an attempt on his life, his youngest son, Michael steps in to take care of the would-be killers, launching a campaign of bloody revenge.",
				ReleaseDate:  "1972-03-14",
				VoteAverage:  8.7,
			},
			Reason: "Your interest in complex characters and family dynamics makes The Godfather a perfect match - it's widely considered one of the greatest films ever made.",
		},
		{
			Movie: MovieSummary{
				ID:           550,
				Title:        "Fight Club",
				PosterPath:   "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg",
				BackdropPath: "/hZkgoQYus5vegHoetLkCJzb17zJ.jpg",
				Overview:     "A ticking-time-bomb insomniac and a slippery soap salesman channel primal male aggression into a shocking new form of therapy. Their concept catches on, with underground \"fight clubs\" forming in every town, until an eccentric gets in the way and ignites an out-of-control spiral toward oblivion.",
				ReleaseDate:  "1999-10-15",
				VoteAverage:  8.4,
			},
			Reason: "Based on your preference for psychological themes and plot twists, Fight Club delivers with its mind-bending narrative and social commentary.",
		},
	},
	ModePullMeIn: {
		{
			Movie: MovieSummary{
				ID:           13,
				Title:        "Forrest Gump",
				PosterPath:   "/arw2vcBveWOVZr6pxd9XTd1TdQa.jpg",
				BackdropPath: "/3h1JZGDhZ8nzxdgvkxha0qBqi05.jpg",
				Overview:     "A man with a low IQ has accomplished great things in his life and been present during significant historic events—in each case, far exceeding what anyone imagined he could do. But despite all he has achieved, his one true love eludes him.",
				ReleaseDate:  "1994-06-23",
				VoteAverage:  8.5,
			},
			Reason: "You mentioned emotional scenes that leave a lasting impact - Forrest Gump contains several powerful moments that have become cultural touchstones.",
		},
		{
			Movie: MovieSummary{
				ID:           24428,
				Title:        "The Avengers",
				PosterPath:   "/RYMX2wcKCBAr24UyPD7xwmjaTn.jpg",
				BackdropPath: "/9BBTo63ANSmhC4e6r62OJFuK2GL.jpg",
				Overview:     "When an unexpected enemy emerges and threatens global safety and security, Nick Fury, director of the international peacekeeping agency known as S.H.I.E.L.D., finds himself in need of a team to pull the world back from the brink of disaster. Spanning the globe, a daring recruitment effort begins!",
				ReleaseDate:  "2012-04-25",
				VoteAverage:  7.7,
			},
			Reason: "Your interest in visually spectacular action sequences makes The Avengers a great pick - it features some of the most memorable team-up action scenes in cinema.",
		},
		{
			Movie: MovieSummary{
				ID:           155,
				Title:        "The Dark Knight",
				PosterPath:   "/qJ2tW6WMUDux911r6m7haRef0WH.jpg",
				BackdropPath: "/hkBaDkMWbLaf8B1lsWsKX7Ew3Xq.jpg",
				Overview:     "Batman raises the stakes in his war on crime. With the help of Lt. Jim Gordon and District Attorney Harvey Dent, Batman sets out to dismantle the remaining criminal organizations that plague the streets. The partnership proves to be effective, but they soon find themselves prey to a reign of chaos unleashed by a rising criminal mastermind known to the terrified citizens of Gotham as the Joker.",
				ReleaseDate:  "2008-07-16",
				VoteAverage:  8.5,
			},
			Reason: "The Dark Knight features unforgettable character moments and plot twists, perfectly matching your desire for captivating scenes that leave you thinking.",
		},
	},
}

// GetDiscoveryModes returns the mode picker entries.
func GetDiscoveryModes() []DiscoveryModeInfo {
	out := make([]DiscoveryModeInfo, len(discoveryModes))
	for i, m := range discoveryModes {
		m.Questions = len(discoveryQuestions[m.Mode])
		out[i] = m
	}
	return out
}

// GetDiscoveryQuestions returns a copy of the ordered questions of mode, or
// nil for an unknown mode.
func GetDiscoveryQuestions(mode DiscoveryMode) []DiscoveryQuestion {
	questions, ok := discoveryQuestions[mode]
	if !ok {
		return nil
	}
	out := make([]DiscoveryQuestion, len(questions))
	copy(out, questions)
	return out
}

// GetMockRecommendations returns a copy of the static recommendations of mode.
func GetMockRecommendations(mode DiscoveryMode) []MovieRecommendation {
	recs := mockRecommendations[mode]
	out := make([]MovieRecommendation, len(recs))
	copy(out, recs)
	return out
}
