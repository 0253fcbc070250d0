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
// workflows and the HTTP API. This file holds the scene highlight types used
// by the scene ranking workflow.
package model

// SceneType classifies a scene highlight.
type SceneType string

const (
	SceneTypeAction    SceneType = "action"
	SceneTypeEmotional SceneType = "emotional"
	SceneTypePlot      SceneType = "plot"
	SceneTypeVisuals   SceneType = "visuals"
)

// Valid reports whether t is one of the known scene types.
func (t SceneType) Valid() bool {
	switch t {
	case SceneTypeAction, SceneTypeEmotional, SceneTypePlot, SceneTypeVisuals:
		return true
	}
	return false
}

// SceneHighlight is a short blurb about a notable moment in a movie, optionally
// linked to a YouTube clip.
type SceneHighlight struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        SceneType `json:"type"`
	Timestamp   string    `json:"timestamp,omitempty"`
	VideoID     string    `json:"video_id,omitempty"`
	IsSpoiler   bool      `json:"is_spoiler,omitempty"`
}

// EmbedURL returns the player URL of the linked clip, if any.
func (s SceneHighlight) EmbedURL() string {
	return YouTubeEmbedURL(s.VideoID)
}

// CloneScenes returns a copy of scenes so callers can reorder or edit the
// result without touching shared tables.
func CloneScenes(scenes []SceneHighlight) []SceneHighlight {
	if scenes == nil {
		return nil
	}
	out := make([]SceneHighlight, len(scenes))
	copy(out, scenes)
	return out
}

// SceneRankingRequest is the input of the scene ranking workflow.
type SceneRankingRequest struct {
	MovieID  int              `json:"movie_id"`
	Title    string           `json:"title"`
	Overview string           `json:"overview"`
	Scenes   []SceneHighlight `json:"scenes"`
}

// ScenePrompt is the rendered pair of prompts sent to the completion model.
type ScenePrompt struct {
	System string
	User   string
}

// HighlightTrigger is the Pub/Sub payload that requests a highlight warm-up.
type HighlightTrigger struct {
	MovieID int `json:"movie_id"`
}
