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
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	test "github.com/jaycherian/gcp-go-movie-discovery/internal/testutil"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/tmdb"
)

const godfatherDetailsJSON = `{
  "id": 238,
  "title": "The Godfather",
  "overview": "Spanning the years 1945 to 1955, a chronicle of the fictional Italian-American Corleone crime family.",
  "release_date": "1972-03-14",
  "runtime": 0,
  "similar": {"page": 1, "results": [
    {"id": 240, "title": "The Godfather Part II", "genre_ids": [18, 80]},
    {"id": 311, "title": "Once Upon a Time in America", "genre_ids": [18]}
  ]}
}`

// fakeTMDB serves canned TMDB responses and counts requests per path.
type fakeTMDB struct {
	mu       sync.Mutex
	hits     map[string]int
	queries  map[string]string
	trending string
	status   map[string]int
}

func newFakeTMDB(t *testing.T) (*fakeTMDB, *tmdb.Client) {
	t.Helper()
	fake := &fakeTMDB{
		hits:     make(map[string]int),
		queries:  make(map[string]string),
		trending: test.TrendingJSON,
		status:   make(map[string]int),
	}
	server := httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(server.Close)
	client := tmdb.NewClient(cloud.TMDB{
		BaseURL:    server.URL,
		APIKey:     "test-key",
		MaxRetries: -1,
	}, nil, tmdb.WithHTTPClient(server.Client()), tmdb.WithRetryDelay(time.Millisecond))
	return fake, client
}

func (f *fakeTMDB) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeTMDB) query(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

func (f *fakeTMDB) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	f.queries[r.URL.Path] = r.URL.RawQuery
	status, failing := f.status[r.URL.Path]
	trending := f.trending
	f.mu.Unlock()

	if failing {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status_message":"failure"}`))
		return
	}

	switch path := r.URL.Path; {
	case path == "/trending/movie/day", path == "/search/movie", path == "/discover/movie":
		if path == "/trending/movie/day" {
			_, _ = w.Write([]byte(trending))
			return
		}
		_, _ = w.Write([]byte(test.TrendingJSON))
	case path == "/movie/popular":
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":603,"title":"The Matrix"},{"id":680,"title":"Pulp Fiction"}]}`))
	case path == "/movie/upcoming":
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	case path == "/genre/movie/list":
		_, _ = w.Write([]byte(test.GenreListJSON))
	case path == "/movie/157336":
		_, _ = w.Write([]byte(test.InterstellarDetailsJSON))
	case path == "/movie/238":
		_, _ = w.Write([]byte(godfatherDetailsJSON))
	case path == "/movie/404":
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	case strings.HasPrefix(path, "/movie/"):
		id := strings.TrimPrefix(path, "/movie/")
		_, _ = fmt.Fprintf(w, `{"id": %s, "title": "Movie %s", "runtime": 90}`, id, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
