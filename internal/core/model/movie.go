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

// Package model defines the data structures shared by the services, the
// workflows and the HTTP API. This file holds the movie view types returned
// to clients. They are built from TMDB responses by the catalog service and
// carry ready-to-use image and video URLs.
package model

import "fmt"

// YouTubeEmbedURLFormat is the player URL used for trailers and scene clips.
const YouTubeEmbedURLFormat = "https://www.youtube.com/embed/%s?autoplay=1&rel=0"

// YouTubeEmbedURL returns the embeddable player URL for a YouTube video key,
// or an empty string when the key is empty.
func YouTubeEmbedURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return fmt.Sprintf(YouTubeEmbedURLFormat, videoID)
}

// MovieSummary is the card-sized representation of a movie used by lists,
// search suggestions and recommendations.
type MovieSummary struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Overview     string   `json:"overview,omitempty"`
	PosterPath   string   `json:"poster_path,omitempty"`
	BackdropPath string   `json:"backdrop_path,omitempty"`
	PosterURL    string   `json:"poster_url,omitempty"`
	BackdropURL  string   `json:"backdrop_url,omitempty"`
	ReleaseDate  string   `json:"release_date,omitempty"`
	ReleaseYear  int      `json:"release_year,omitempty"` // Zero when the release date is unknown.
	VoteAverage  float64  `json:"vote_average"`
	GenreIDs     []int    `json:"genre_ids,omitempty"`
	Genres       []string `json:"genres,omitempty"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is a credited actor.
type CastMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Character  string `json:"character"`
	ProfileURL string `json:"profile_url,omitempty"`
	Order      int    `json:"order"`
}

// CrewMember is a credited crew member.
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
	ProfileURL string `json:"profile_url,omitempty"`
}

// Provider is a streaming, rental or purchase service.
type Provider struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	LogoURL         string `json:"logo_url,omitempty"`
	DisplayPriority int    `json:"display_priority"`
}

// WatchProviders groups the providers available in one region.
type WatchProviders struct {
	Region   string     `json:"region"`
	Link     string     `json:"link,omitempty"`
	Flatrate []Provider `json:"flatrate"`
	Rent     []Provider `json:"rent"`
	Buy      []Provider `json:"buy"`
}

// Empty reports whether no provider is available.
func (w *WatchProviders) Empty() bool {
	return w == nil || len(w.Flatrate)+len(w.Rent)+len(w.Buy) == 0
}

// Trailer is the selected YouTube trailer of a movie.
type Trailer struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title"`
	EmbedURL string `json:"embed_url"`
}

// MovieDetail is the detail page payload.
type MovieDetail struct {
	MovieSummary
	Runtime      int             `json:"runtime"`
	RuntimeLabel string          `json:"runtime_label"` // "2h 49m", or "Unknown" when the runtime is not known.
	Trailer      *Trailer        `json:"trailer,omitempty"`
	Providers    *WatchProviders `json:"providers,omitempty"`
	Cast         []CastMember    `json:"cast"`
	Crew         []CrewMember    `json:"crew"`
	Keywords     []string        `json:"keywords"`
	GenreList    []Genre         `json:"genre_list"`
}

// SimilarMovie is a similar movie with its genre overlap relevance in [0, 1].
type SimilarMovie struct {
	MovieSummary
	Relevance float64 `json:"relevance"`
}

// HomePage is the aggregated landing page payload.
type HomePage struct {
	Trending       []MovieSummary   `json:"trending"`
	Popular        []MovieSummary   `json:"popular"`
	Upcoming       []MovieSummary   `json:"upcoming"`
	Featured       *MovieDetail     `json:"featured,omitempty"`
	HighlightMovie *MovieDetail     `json:"highlight_movie,omitempty"`
	Highlights     []SceneHighlight `json:"highlights"`
}
