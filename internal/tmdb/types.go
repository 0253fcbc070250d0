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

package tmdb

import (
	"strconv"
	"strings"
)

// Image sizes accepted by the TMDB image CDN.
const (
	SizeW92      = "w92"
	SizeW185     = "w185"
	SizeW342     = "w342"
	SizeW500     = "w500"
	SizeW780     = "w780"
	SizeOriginal = "original"
)

// Movie is a TMDB movie. List endpoints fill the summary fields and
// GenreIDs; the details endpoint fills Genres, Runtime and every appended
// response.
type Movie struct {
	ID             int                   `json:"id"`
	Title          string                `json:"title"`
	PosterPath     string                `json:"poster_path"`
	BackdropPath   string                `json:"backdrop_path"`
	Overview       string                `json:"overview"`
	ReleaseDate    string                `json:"release_date"`
	VoteAverage    float64               `json:"vote_average"`
	Popularity     float64               `json:"popularity"`
	GenreIDs       []int                 `json:"genre_ids,omitempty"`
	Runtime        int                   `json:"runtime,omitempty"`
	Genres         []Genre               `json:"genres,omitempty"`
	Videos         *VideoList            `json:"videos,omitempty"`
	Credits        *Credits              `json:"credits,omitempty"`
	Similar        *Page                 `json:"similar,omitempty"`
	Keywords       *KeywordList          `json:"keywords,omitempty"`
	WatchProviders *WatchProviderResults `json:"watch/providers,omitempty"`
}

// ReleaseYear returns the year of the release date, or 0 when unknown.
func (m Movie) ReleaseYear() int {
	return ReleaseYear(m.ReleaseDate)
}

// ReleaseYear parses the year of a "YYYY-MM-DD" date, returning 0 when the
// date is malformed.
func ReleaseYear(date string) int {
	year, _, _ := strings.Cut(date, "-")
	if len(year) != 4 {
		return 0
	}
	n, err := strconv.Atoi(year)
	if err != nil {
		return 0
	}
	return n
}

// Page is one page of a paged list response.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type VideoList struct {
	Results []Video `json:"results"`
}

type Cast struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type Crew struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path"`
}

type Credits struct {
	Cast []Cast `json:"cast"`
	Crew []Crew `json:"crew"`
}

type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type KeywordList struct {
	Keywords []Keyword `json:"keywords"`
}

type Provider struct {
	LogoPath        string `json:"logo_path"`
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	DisplayPriority int    `json:"display_priority"`
}

// ProviderRegion lists the providers of one country.
type ProviderRegion struct {
	Link     string     `json:"link"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

// WatchProviderResults holds the providers keyed by ISO 3166-1 country code.
type WatchProviderResults struct {
	Results map[string]ProviderRegion `json:"results"`
}

// Region returns the providers of country, or nil when there are none.
func (w *WatchProviderResults) Region(country string) *ProviderRegion {
	if w == nil {
		return nil
	}
	region, ok := w.Results[country]
	if !ok {
		return nil
	}
	return &region
}
