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

// Package highlights implements the scene highlight heuristic. A completion
// model is asked to rank and describe a movie's scenes in free text; the
// functions in this package scrape that text for better descriptions and for
// a per-scene score, then re-order the scenes.
//
// Scoring rules, first match wins:
//  1. An explicit rating after the scene title on the same line ("8/10").
//  2. An explicit rank before the scene title ("#1: ..."), mapped to 11-rank
//     with a floor of 1.
//  3. The first blank-line separated paragraph mentioning the scene, scored
//     from a base of 5 with weighted keywords and capped at 10.
//  4. Otherwise the default score of 5.
package highlights

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
)

const (
	// DefaultLimit is the number of scenes kept after ranking.
	DefaultLimit = 4
	// DefaultScore is used when the analysis says nothing about a scene.
	DefaultScore = 5.0
	// MaxKeywordScore caps keyword based scores.
	MaxKeywordScore = 10.0
	// minDescriptionLength is the length a scraped description must exceed
	// to replace the original one.
	minDescriptionLength = 30
	// contextPrefixLength is how much of the description is used to locate
	// the paragraph discussing a scene.
	contextPrefixLength = 30
)

// keyword is a positive word and the points it adds to a scene score.
type keyword struct {
	word   string
	weight float64
}

var positiveKeywords = []keyword{
	{"captivating", 1.5}, {"breathtaking", 1.5}, {"spectacular", 1.5}, {"masterful", 1.5},
	{"iconic", 1.5}, {"unforgettable", 1.5}, {"riveting", 1.5},
	{"emotional", 1}, {"powerful", 1}, {"intense", 1}, {"compelling", 1},
	{"striking", 1}, {"stunning", 1}, {"exciting", 1}, {"impressive", 1},
	{"interesting", 0.5}, {"engaging", 0.5}, {"memorable", 0.5}, {"pivotal", 0.5},
	{"crucial", 0.5}, {"important", 0.5}, {"dramatic", 0.5},
}

var (
	labelledRatingPattern = regexp.MustCompile(`(?i)\(?\bRating:?\s*\d+/10\)?`)
	bareRatingPattern     = regexp.MustCompile(`(?i)\(?\b\d+/10\)?`)
)

// ScoredScene is a scene together with the score the analysis gave it.
type ScoredScene struct {
	Scene model.SceneHighlight
	Score float64
}

// BuildSceneList renders the scenes as the bullet list embedded in the
// ranking prompt, one "- title: description (Type: type)" line per scene.
func BuildSceneList(scenes []model.SceneHighlight) string {
	lines := make([]string, len(scenes))
	for i, s := range scenes {
		lines[i] = fmt.Sprintf("- %s: %s (Type: %s)", s.Title, s.Description, s.Type)
	}
	return strings.Join(lines, "\n")
}

// EnhanceDescriptions returns a copy of scenes where each description is
// replaced by the line following the last line of the analysis that mentions
// the scene title, when that line is longer than 30 characters. The first
// labelled rating ("Rating: 9/10") and the first bare rating ("(8/10)") are
// removed from the new text after it is trimmed, so the whitespace around a
// removed rating is kept.
//
// Inputs:
//   - analysis: The free-text completion.
//   - scenes: The scenes sent in the prompt.
//
// Outputs:
//   - []model.SceneHighlight: The scenes, in the same order.
func EnhanceDescriptions(analysis string, scenes []model.SceneHighlight) []model.SceneHighlight {
	out := model.CloneScenes(scenes)
	for i := range out {
		if desc, ok := extractDescription(analysis, out[i].Title); ok {
			out[i].Description = desc
		}
	}
	return out
}

func extractDescription(analysis string, title string) (string, bool) {
	pattern, err := regexp.Compile(`(?is)(?:.*` + regexp.QuoteMeta(title) + `.*?\n)(.*?)(?:\n|$)`)
	if err != nil {
		return "", false
	}
	match := pattern.FindStringSubmatch(analysis)
	if match == nil || utf8.RuneCountInString(match[1]) <= minDescriptionLength {
		return "", false
	}
	desc := strings.TrimSpace(match[1])
	desc = replaceFirst(labelledRatingPattern, desc)
	desc = replaceFirst(bareRatingPattern, desc)
	return desc, true
}

// replaceFirst removes the leftmost match of pattern from s.
func replaceFirst(pattern *regexp.Regexp, s string) string {
	loc := pattern.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

// Score computes how strongly the analysis recommends scene.
func Score(analysis string, scene model.SceneHighlight) float64 {
	title := regexp.QuoteMeta(scene.Title)

	if rating := regexp.MustCompile(`(?i)` + title + `.*?\b(\d+)[\s/]*10\b`).FindStringSubmatch(analysis); rating != nil {
		n, _ := strconv.Atoi(rating[1])
		return float64(n)
	}

	if rank := regexp.MustCompile(`(?i)#(\d+)[:\s].*?` + title).FindStringSubmatch(analysis); rank != nil {
		n, _ := strconv.Atoi(rank[1])
		return max(float64(10-n+1), 1)
	}

	context := SceneContext(analysis, scene)
	if context == "" {
		return DefaultScore
	}

	lower := strings.ToLower(context)
	score := DefaultScore
	for _, k := range positiveKeywords {
		if strings.Contains(lower, k.word) {
			score += k.weight
		}
	}
	return min(score, MaxKeywordScore)
}

// SceneContext returns the first paragraph of the analysis that mentions the
// scene title or the start of its description, case-insensitively.
func SceneContext(analysis string, scene model.SceneHighlight) string {
	title := strings.ToLower(scene.Title)
	prefix := strings.ToLower(runePrefix(scene.Description, contextPrefixLength))
	for _, p := range strings.Split(analysis, "\n\n") {
		lower := strings.ToLower(p)
		if strings.Contains(lower, title) || strings.Contains(lower, prefix) {
			return p
		}
	}
	return ""
}

func runePrefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Rank enhances the scene descriptions from the analysis, scores the
// enhanced scenes and returns them sorted by descending score, truncated to
// limit. Ties keep their original order. A non-positive limit uses
// DefaultLimit. An empty input is returned unchanged.
func Rank(analysis string, scenes []model.SceneHighlight, limit int) []model.SceneHighlight {
	if len(scenes) == 0 {
		return scenes
	}
	scored := ScoreAll(analysis, EnhanceDescriptions(analysis, scenes))
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := make([]model.SceneHighlight, 0, min(limit, len(scored)))
	for _, s := range scored[:min(limit, len(scored))] {
		out = append(out, s.Scene)
	}
	return out
}

// ScoreAll scores every scene and sorts them by descending score, keeping
// the input order among equal scores.
func ScoreAll(analysis string, scenes []model.SceneHighlight) []ScoredScene {
	scored := make([]ScoredScene, len(scenes))
	for i, s := range scenes {
		scored[i] = ScoredScene{Scene: s, Score: Score(analysis, s)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
