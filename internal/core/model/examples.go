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

// Package model defines the data structures for the application. This file,
// `examples.go`, holds the hand-authored scene highlights served when no
// scene store is configured. Movies without their own table get the generic
// default scenes.
package model

// DefaultSceneTableID is the key of the generic scene table.
const DefaultSceneTableID = 0

var staticScenes = map[int][]SceneHighlight{
	// Interstellar
	157336: {
		{
			ID:          "1",
			Title:       "Docking Scene",
			Description: "Cooper attempts to dock with the spinning Endurance after Mann's failed docking damages the airlock.",
			Type:        SceneTypeAction,
			VideoID:     "a3lcGnMhvsA",
		},
		{
			ID:          "2",
			Title:       "Time Dilation on Miller's Planet",
			Description: "The crew experiences extreme time dilation near the black hole, causing minutes for them to be years on Earth.",
			Type:        SceneTypeVisuals,
			VideoID:     "MoLkabPK3YU",
		},
		{
			ID:          "3",
			Title:       "Cooper watches messages from Earth",
			Description: "After returning from Miller's planet, Cooper watches 23 years worth of messages from his children.",
			Type:        SceneTypeEmotional,
			VideoID:     "MoLkabPK3YU",
		},
		{
			ID:          "4",
			Title:       "Tesseract Revelation",
			Description: "Cooper discovers he can communicate across time through gravity, allowing him to send the quantum data back to Earth.",
			Type:        SceneTypePlot,
			IsSpoiler:   true,
			VideoID:     "MoLkabPK3YU",
		},
	},
	// The Godfather
	238: {
		{
			ID:          "1",
			Title:       "The Offer",
			Description: "Vito Corleone discusses making an offer \"he can't refuse\" - one of cinema's most iconic lines.",
			Type:        SceneTypePlot,
			VideoID:     "fmX2VzsB25s",
		},
		{
			ID:          "2",
			Title:       "Horse Head Scene",
			Description: "Film producer Jack Woltz wakes up to find the severed head of his prized racehorse in his bed.",
			Type:        SceneTypePlot,
			IsSpoiler:   true,
			VideoID:     "VC1_tdnZq1A",
		},
	},
	DefaultSceneTableID: {
		{
			ID:          "1",
			Title:       "Climactic Confrontation",
			Description: "The protagonist faces their ultimate challenge in an emotionally charged scene.",
			Type:        SceneTypeEmotional,
		},
		{
			ID:          "2",
			Title:       "Key Action Sequence",
			Description: "An expertly choreographed action sequence that showcases the film's visual style.",
			Type:        SceneTypeAction,
		},
	},
}

// GetStaticScenes returns a copy of the hand-authored scenes of movieID, or of
// the default table when the movie has none.
//
// Inputs:
//   - movieID: The TMDB movie id.
//
// Outputs:
//   - []SceneHighlight: A fresh slice the caller may modify.
func GetStaticScenes(movieID int) []SceneHighlight {
	if scenes, ok := staticScenes[movieID]; ok {
		return CloneScenes(scenes)
	}
	return CloneScenes(staticScenes[DefaultSceneTableID])
}

// HasStaticScenes reports whether movieID has its own scene table.
func HasStaticScenes(movieID int) bool {
	_, ok := staticScenes[movieID]
	return ok && movieID != DefaultSceneTableID
}
