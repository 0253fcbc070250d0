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

// Package services holds the business logic behind the HTTP API and the CLI:
// the movie catalog, scene highlights and the discovery quiz.
package services

import (
	"context"
	"errors"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/tmdb"
)

var (
	ErrNoTrailer          = errors.New("no youtube trailer available")
	ErrBlankAnswer        = errors.New("answer must not be blank")
	ErrSessionNotFound    = errors.New("discovery session not found")
	ErrUnknownMode        = errors.New("unknown discovery mode")
	ErrSessionNotFinished = errors.New("discovery session is not finished")
	ErrStaleAnswer        = errors.New("answer is not for the current question")
)

// MovieSource is the slice of the TMDB API the services depend on. It is
// satisfied by *tmdb.Client.
type MovieSource interface {
	Trending(ctx context.Context) ([]tmdb.Movie, error)
	Popular(ctx context.Context) ([]tmdb.Movie, error)
	Upcoming(ctx context.Context) ([]tmdb.Movie, error)
	Details(ctx context.Context, id int) (*tmdb.Movie, error)
	Search(ctx context.Context, query string) ([]tmdb.Movie, error)
	DiscoverByGenres(ctx context.Context, genreIDs []int) ([]tmdb.Movie, error)
	GenreList(ctx context.Context) ([]tmdb.Genre, error)
	ImageURL(size string, path string) string
	Region() string
}

var _ MovieSource = (*tmdb.Client)(nil)
