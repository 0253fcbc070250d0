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
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/tmdb"
)

const (
	DefaultSearchLimit    = 5
	DefaultSimilarLimit   = 8
	DefaultFeaturedWindow = 5
	DefaultHomeHighlights = 4
	castLimit             = 12
	crewLimit             = 6
	defaultFanOutWorkers  = 4
	unknownRuntimeLabel   = "Unknown"
	trailerTitleFormat    = "%s - Trailer"
	youTubeSite           = "YouTube"
	trailerVideoType      = "Trailer"
	providerLogoImageSize = tmdb.SizeW92
	profileImageSize      = tmdb.SizeW185
	posterImageSize       = tmdb.SizeW500
	backdropImageSize     = tmdb.SizeOriginal
)

// keyCrewJobs are the crew roles shown on the detail page.
var keyCrewJobs = map[string]bool{
	"Director":   true,
	"Producer":   true,
	"Screenplay": true,
	"Writer":     true,
}

// CatalogService turns TMDB responses into the movie views of the API.
type CatalogService struct {
	Movies  MovieSource
	Scenes  SceneCatalog
	Workers int // Maximum concurrent upstream calls of the home page fan-out.

	// Intn returns a random int in [0, n). It picks the featured movie of
	// the home page and defaults to math/rand/v2.
	Intn func(n int) int
}

// NewCatalogService creates a catalog over movies. A nil scenes catalog
// serves the built-in scene tables.
func NewCatalogService(movies MovieSource, scenes SceneCatalog, workers int) *CatalogService {
	if scenes == nil {
		scenes = StaticSceneCatalog{}
	}
	return &CatalogService{
		Movies:  movies,
		Scenes:  scenes,
		Workers: workers,
		Intn:    rand.IntN,
	}
}

func (c *CatalogService) Trending(ctx context.Context) ([]model.MovieSummary, error) {
	movies, err := c.Movies.Trending(ctx)
	if err != nil {
		return nil, err
	}
	return c.summaries(movies), nil
}

func (c *CatalogService) Popular(ctx context.Context) ([]model.MovieSummary, error) {
	movies, err := c.Movies.Popular(ctx)
	if err != nil {
		return nil, err
	}
	return c.summaries(movies), nil
}

func (c *CatalogService) Upcoming(ctx context.Context) ([]model.MovieSummary, error) {
	movies, err := c.Movies.Upcoming(ctx)
	if err != nil {
		return nil, err
	}
	return c.summaries(movies), nil
}

// Search returns at most limit movies matching query. A blank query returns
// an empty list without calling TMDB.
func (c *CatalogService) Search(ctx context.Context, query string, limit int) ([]model.MovieSummary, error) {
	if strings.TrimSpace(query) == "" {
		return []model.MovieSummary{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	movies, err := c.Movies.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.summaries(truncate(movies, limit)), nil
}

// Detail returns the detail page of a movie.
func (c *CatalogService) Detail(ctx context.Context, id int) (*model.MovieDetail, error) {
	movie, err := c.Movies.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.detail(movie), nil
}

// Trailer returns the first YouTube trailer of a movie, or ErrNoTrailer.
func (c *CatalogService) Trailer(ctx context.Context, id int) (*model.Trailer, error) {
	movie, err := c.Movies.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	trailer := FindTrailer(movie)
	if trailer == nil {
		return nil, fmt.Errorf("movie %d: %w", id, ErrNoTrailer)
	}
	return trailer, nil
}

// Similar returns at most limit of the movies TMDB lists as similar, ordered
// by how many of the movie's genres they share.
func (c *CatalogService) Similar(ctx context.Context, id int, limit int) ([]model.SimilarMovie, error) {
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}
	movie, err := c.Movies.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	var candidates []tmdb.Movie
	if movie.Similar != nil {
		candidates = movie.Similar.Results
	}

	out := make([]model.SimilarMovie, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, model.SimilarMovie{
			MovieSummary: c.summary(candidate),
			Relevance:    GenreRelevance(movie.Genres, candidate.GenreIDs),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Relevance > out[j].Relevance
	})
	return truncate(out, limit), nil
}

// Home assembles the landing page. The three lists are fetched in parallel,
// then the featured and highlight movies are expanded.
func (c *CatalogService) Home(ctx context.Context) (*model.HomePage, error) {
	var trending, popular, upcoming []tmdb.Movie
	lists := pool.New().
		WithMaxGoroutines(c.workers()).
		WithContext(ctx).
		WithCancelOnError()
	lists.Go(func(ctx context.Context) (err error) {
		trending, err = c.Movies.Trending(ctx)
		return err
	})
	lists.Go(func(ctx context.Context) (err error) {
		popular, err = c.Movies.Popular(ctx)
		return err
	})
	lists.Go(func(ctx context.Context) (err error) {
		upcoming, err = c.Movies.Upcoming(ctx)
		return err
	})
	if err := lists.Wait(); err != nil {
		return nil, err
	}

	page := &model.HomePage{
		Trending:   c.summaries(trending),
		Popular:    c.summaries(popular),
		Upcoming:   c.summaries(upcoming),
		Highlights: []model.SceneHighlight{},
	}
	n := len(trending)
	if n == 0 {
		return page, nil
	}
	featuredIndex := c.intn(min(DefaultFeaturedWindow, n))
	highlightIndex := (featuredIndex + 1) % n
	highlightID := trending[highlightIndex].ID

	var scenes []model.SceneHighlight
	expand := pool.New().
		WithMaxGoroutines(c.workers()).
		WithContext(ctx).
		WithCancelOnError()
	expand.Go(func(ctx context.Context) (err error) {
		page.Featured, err = c.Detail(ctx, trending[featuredIndex].ID)
		return err
	})
	expand.Go(func(ctx context.Context) (err error) {
		page.HighlightMovie, err = c.Detail(ctx, highlightID)
		return err
	})
	expand.Go(func(ctx context.Context) (err error) {
		scenes, err = c.Scenes.Scenes(ctx, highlightID)
		return err
	})
	if err := expand.Wait(); err != nil {
		return nil, err
	}
	page.Highlights = truncate(scenes, DefaultHomeHighlights)
	slog.Debug("home page assembled", "featured", page.Featured.ID, "highlight", highlightID)
	return page, nil
}

func (c *CatalogService) workers() int {
	if c.Workers <= 0 {
		return defaultFanOutWorkers
	}
	return c.Workers
}

func (c *CatalogService) intn(n int) int {
	if c.Intn == nil {
		return rand.IntN(n)
	}
	return c.Intn(n)
}

func (c *CatalogService) summaries(movies []tmdb.Movie) []model.MovieSummary {
	out := make([]model.MovieSummary, 0, len(movies))
	for _, m := range movies {
		out = append(out, c.summary(m))
	}
	return out
}

func (c *CatalogService) summary(m tmdb.Movie) model.MovieSummary {
	return summarize(c.Movies, m)
}

func summarize(source MovieSource, m tmdb.Movie) model.MovieSummary {
	out := model.MovieSummary{
		ID:           m.ID,
		Title:        m.Title,
		Overview:     m.Overview,
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		PosterURL:    source.ImageURL(posterImageSize, m.PosterPath),
		BackdropURL:  source.ImageURL(backdropImageSize, m.BackdropPath),
		ReleaseDate:  m.ReleaseDate,
		ReleaseYear:  m.ReleaseYear(),
		VoteAverage:  m.VoteAverage,
		GenreIDs:     m.GenreIDs,
	}
	for _, g := range m.Genres {
		out.Genres = append(out.Genres, g.Name)
	}
	if len(out.GenreIDs) == 0 && len(m.Genres) > 0 {
		for _, g := range m.Genres {
			out.GenreIDs = append(out.GenreIDs, g.ID)
		}
	}
	return out
}

func (c *CatalogService) detail(m *tmdb.Movie) *model.MovieDetail {
	out := &model.MovieDetail{
		MovieSummary: c.summary(*m),
		Runtime:      m.Runtime,
		RuntimeLabel: FormatRuntime(m.Runtime),
		Trailer:      FindTrailer(m),
		Cast:         []model.CastMember{},
		Crew:         []model.CrewMember{},
		Keywords:     []string{},
		GenreList:    []model.Genre{},
	}
	for _, g := range m.Genres {
		out.GenreList = append(out.GenreList, model.Genre{ID: g.ID, Name: g.Name})
	}
	if m.Credits != nil {
		for _, cast := range truncate(m.Credits.Cast, castLimit) {
			out.Cast = append(out.Cast, model.CastMember{
				ID:         cast.ID,
				Name:       cast.Name,
				Character:  cast.Character,
				ProfileURL: c.Movies.ImageURL(profileImageSize, cast.ProfilePath),
				Order:      cast.Order,
			})
		}
		for _, crew := range m.Credits.Crew {
			if !keyCrewJobs[crew.Job] {
				continue
			}
			out.Crew = append(out.Crew, model.CrewMember{
				ID:         crew.ID,
				Name:       crew.Name,
				Job:        crew.Job,
				Department: crew.Department,
				ProfileURL: c.Movies.ImageURL(profileImageSize, crew.ProfilePath),
			})
			if len(out.Crew) == crewLimit {
				break
			}
		}
	}
	if m.Keywords != nil {
		for _, k := range m.Keywords.Keywords {
			out.Keywords = append(out.Keywords, k.Name)
		}
	}
	region := c.Movies.Region()
	if providers := m.WatchProviders.Region(region); providers != nil {
		out.Providers = &model.WatchProviders{
			Region:   region,
			Link:     providers.Link,
			Flatrate: c.providers(providers.Flatrate),
			Rent:     c.providers(providers.Rent),
			Buy:      c.providers(providers.Buy),
		}
	}
	return out
}

func (c *CatalogService) providers(in []tmdb.Provider) []model.Provider {
	out := make([]model.Provider, 0, len(in))
	for _, p := range in {
		out = append(out, model.Provider{
			ID:              p.ProviderID,
			Name:            p.ProviderName,
			LogoURL:         c.Movies.ImageURL(providerLogoImageSize, p.LogoPath),
			DisplayPriority: p.DisplayPriority,
		})
	}
	return out
}

// FormatRuntime renders minutes as "2h 49m", or "Unknown" when the runtime
// is not positive.
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return unknownRuntimeLabel
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FindTrailer returns the first YouTube video of type "Trailer", or nil.
func FindTrailer(m *tmdb.Movie) *model.Trailer {
	if m == nil || m.Videos == nil {
		return nil
	}
	for _, v := range m.Videos.Results {
		if v.Type != trailerVideoType || v.Site != youTubeSite || v.Key == "" {
			continue
		}
		return &model.Trailer{
			VideoID:  v.Key,
			Title:    fmt.Sprintf(trailerTitleFormat, m.Title),
			EmbedURL: model.YouTubeEmbedURL(v.Key),
		}
	}
	return nil
}

// GenreRelevance counts the candidate genre ids found among genres, relative
// to the number of genres. Duplicate candidate ids each count. It is 0 when
// genres is empty.
func GenreRelevance(genres []tmdb.Genre, candidate []int) float64 {
	if len(genres) == 0 {
		return 0
	}
	matches := 0
	for _, id := range candidate {
		if slices.ContainsFunc(genres, func(g tmdb.Genre) bool { return g.ID == id }) {
			matches++
		}
	}
	return float64(matches) / float64(len(genres))
}

func truncate[T any](in []T, limit int) []T {
	if limit >= 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}
