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
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
)

// fakeRows replays rows, then err (iterator.Done when nil).
type fakeRows struct {
	rows []sceneRow
	err  error
}

func (f *fakeRows) Next(dst interface{}) error {
	if len(f.rows) == 0 {
		if f.err != nil {
			return f.err
		}
		return iterator.Done
	}
	*dst.(*sceneRow) = f.rows[0]
	f.rows = f.rows[1:]
	return nil
}

func TestCollectScenesConvertsRows(t *testing.T) {
	scenes, err := collectScenes(157336, &fakeRows{rows: []sceneRow{
		{
			SceneID:     "dock",
			Title:       "Docking",
			Description: "Cooper spins the Endurance.",
			Type:        bigquery.NullString{StringVal: "ACTION", Valid: true},
			Timestamp:   bigquery.NullString{StringVal: "2:15:00", Valid: true},
			VideoID:     bigquery.NullString{StringVal: "a3lcGnMhvsA", Valid: true},
			IsSpoiler:   bigquery.NullBool{Bool: true, Valid: true},
		},
		{
			SceneID:     "farm",
			Title:       "Dust",
			Description: "The farm is buried.",
			Type:        bigquery.NullString{StringVal: "montage", Valid: true},
		},
	}})
	require.NoError(t, err)
	require.Len(t, scenes, 2)

	assert.Equal(t, model.SceneHighlight{
		ID:          "dock",
		Title:       "Docking",
		Description: "Cooper spins the Endurance.",
		Type:        model.SceneTypeAction,
		Timestamp:   "2:15:00",
		VideoID:     "a3lcGnMhvsA",
		IsSpoiler:   true,
	}, scenes[0])

	assert.Equal(t, model.SceneTypePlot, scenes[1].Type)
	assert.Empty(t, scenes[1].VideoID)
	assert.False(t, scenes[1].IsSpoiler)
}

func TestCollectScenesFallsBackToBuiltInTable(t *testing.T) {
	scenes, err := collectScenes(238, &fakeRows{})
	require.NoError(t, err)
	assert.Equal(t, model.GetStaticScenes(238), scenes)

	scenes, err = collectScenes(424242, &fakeRows{})
	require.NoError(t, err)
	assert.Equal(t, model.GetStaticScenes(model.DefaultSceneTableID), scenes)
}

func TestCollectScenesReportsIteratorErrors(t *testing.T) {
	_, err := collectScenes(238, &fakeRows{
		rows: []sceneRow{{SceneID: "one"}},
		err:  errors.New("connection reset"),
	})
	assert.ErrorContains(t, err, "read scene highlights of movie 238")
}

func TestBigQuerySceneCatalog(t *testing.T) {
	var queried bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queried = true
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "Not found: Table scene_highlights", "errors": [{"reason": "invalid"}]}}`))
	}))
	defer server.Close()

	ctx := context.Background()
	client, err := bigquery.NewClient(ctx, "movie-project",
		option.WithEndpoint(server.URL),
		option.WithHTTPClient(server.Client()),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	defer client.Close()

	catalog := NewBigQuerySceneCatalog(client, cloud.BigQueryDataSource{DatasetName: "discovery", SceneTable: "scene_highlights"})
	assert.Equal(t, "movie-project.discovery.scene_highlights", catalog.GetFQN())

	_, err = catalog.Scenes(ctx, 157336)
	assert.ErrorContains(t, err, "scene highlights of movie 157336")
	assert.True(t, queried)
}
