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
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
)

// SceneCatalog returns the scene highlights of a movie in display order.
type SceneCatalog interface {
	Scenes(ctx context.Context, movieID int) ([]model.SceneHighlight, error)
}

// StaticSceneCatalog serves the built-in scene tables. Movies without a
// table of their own get the default table.
type StaticSceneCatalog struct{}

func (StaticSceneCatalog) Scenes(_ context.Context, movieID int) ([]model.SceneHighlight, error) {
	return model.GetStaticScenes(movieID), nil
}

// BigQuerySceneCatalog reads scene highlights from a BigQuery table with the
// columns scene_id, movie_id, position, title, description, type, timestamp,
// video_id and is_spoiler.
type BigQuerySceneCatalog struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	SceneTable     string
}

// sceneRow mirrors one row of the scene table. Optional columns are nullable.
type sceneRow struct {
	SceneID     string              `bigquery:"scene_id"`
	Title       string              `bigquery:"title"`
	Description string              `bigquery:"description"`
	Type        bigquery.NullString `bigquery:"type"`
	Timestamp   bigquery.NullString `bigquery:"timestamp"`
	VideoID     bigquery.NullString `bigquery:"video_id"`
	IsSpoiler   bigquery.NullBool   `bigquery:"is_spoiler"`
}

func (r sceneRow) highlight() model.SceneHighlight {
	sceneType := model.SceneType(strings.ToLower(r.Type.StringVal))
	if !sceneType.Valid() {
		sceneType = model.SceneTypePlot
	}
	return model.SceneHighlight{
		ID:          r.SceneID,
		Title:       r.Title,
		Description: r.Description,
		Type:        sceneType,
		Timestamp:   r.Timestamp.StringVal,
		VideoID:     r.VideoID.StringVal,
		IsSpoiler:   r.IsSpoiler.Valid && r.IsSpoiler.Bool,
	}
}

// NewBigQuerySceneCatalog creates a catalog over the configured table.
func NewBigQuerySceneCatalog(client *bigquery.Client, source cloud.BigQueryDataSource) *BigQuerySceneCatalog {
	return &BigQuerySceneCatalog{
		BigqueryClient: client,
		DatasetName:    source.DatasetName,
		SceneTable:     source.SceneTable,
	}
}

// GetFQN returns the fully qualified name of the scene table.
func (b *BigQuerySceneCatalog) GetFQN() string {
	return strings.Replace(b.BigqueryClient.Project(), ":", ".", -1) + "." + b.DatasetName + "." + b.SceneTable
}

// Scenes queries the scene table ordered by position.
func (b *BigQuerySceneCatalog) Scenes(ctx context.Context, movieID int) ([]model.SceneHighlight, error) {
	q := b.BigqueryClient.Query(fmt.Sprintf(QrySceneHighlightsByMovie, b.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "movie_id", Value: int64(movieID)},
	}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query scene highlights of movie %d: %w", movieID, err)
	}
	return collectScenes(movieID, itr)
}

// rowIterator is the part of *bigquery.RowIterator the catalog reads.
type rowIterator interface {
	Next(dst interface{}) error
}

// collectScenes drains itr into highlights. No rows means the built-in
// table for movieID, which is the default table for unknown movies.
func collectScenes(movieID int, itr rowIterator) ([]model.SceneHighlight, error) {
	out := make([]model.SceneHighlight, 0)
	for {
		var row sceneRow
		err := itr.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read scene highlights of movie %d: %w", movieID, err)
		}
		out = append(out, row.highlight())
	}
	if len(out) == 0 {
		slog.Debug("no scene rows, using built-in table", "movie_id", movieID)
		return model.GetStaticScenes(movieID), nil
	}
	return out, nil
}

// NewSceneCatalog returns the catalog selected by Highlights.Source.
func NewSceneCatalog(config *cloud.Config, clients *cloud.ServiceClients) (SceneCatalog, error) {
	switch config.Highlights.Source {
	case "", cloud.SceneSourceStatic:
		return StaticSceneCatalog{}, nil
	case cloud.SceneSourceBigQuery:
		if clients == nil || clients.BigQueryClient == nil {
			return nil, errors.New("bigquery scene source requires a bigquery client")
		}
		return NewBigQuerySceneCatalog(clients.BigQueryClient, config.BigQueryDataSource), nil
	default:
		return nil, fmt.Errorf("unknown scene source %q", config.Highlights.Source)
	}
}
