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

// Package services contains the business logic for interacting with data sources.
// This file, `queries.go`, centralizes the BigQuery SQL used by the scene
// catalog. Table names are injected with `fmt.Sprintf`; values are always
// bound as named query parameters.
package services

const (
	// QrySceneHighlightsByMovie selects the hand-authored scene highlights of
	// one movie in display order.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the scene highlights table.
	//
	// Parameters:
	// - `@movie_id`: The TMDB movie id (INT64).
	QrySceneHighlightsByMovie = "SELECT scene_id, title, description, type, `timestamp`, video_id, is_spoiler FROM `%s` WHERE movie_id = @movie_id ORDER BY position ASC"
)
