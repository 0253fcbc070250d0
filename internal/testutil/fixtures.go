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

package test

// TrendingJSON is a /trending/movie/day response with six movies.
const TrendingJSON = `{
  "page": 1,
  "results": [
    {"id": 157336, "title": "Interstellar", "overview": "The adventures of a group of explorers who make use of a newly discovered wormhole.", "poster_path": "/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg", "backdrop_path": "/xJHokMbljvjADYdit5fK5VQsXEG.jpg", "release_date": "2014-11-05", "vote_average": 8.4, "genre_ids": [12, 18, 878]},
    {"id": 238, "title": "The Godfather", "overview": "Spanning the years 1945 to 1955, a chronicle of the fictional Italian-American Corleone crime family.", "poster_path": "/3bhkrj58Vtu7enYsRolD1fZdja1.jpg", "backdrop_path": "/tmU7GeKVybMWFButWEGl2M4GeiP.jpg", "release_date": "1972-03-14", "vote_average": 8.7, "genre_ids": [18, 80]},
    {"id": 27205, "title": "Inception", "overview": "Cobb, a skilled thief who commits corporate espionage by infiltrating the subconscious of his targets.", "poster_path": "/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg", "release_date": "2010-07-15", "vote_average": 8.4, "genre_ids": [28, 878, 12]},
    {"id": 155, "title": "The Dark Knight", "overview": "Batman raises the stakes in his war on crime.", "poster_path": "/qJ2tW6WMUDux911r6m7haRef0WH.jpg", "release_date": "2008-07-16", "vote_average": 8.5, "genre_ids": [18, 28, 80, 53]},
    {"id": 603, "title": "The Matrix", "overview": "Set in the 22nd century, The Matrix tells the story of a computer hacker.", "poster_path": "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg", "release_date": "1999-03-31", "vote_average": 8.2, "genre_ids": [28, 878]},
    {"id": 680, "title": "Pulp Fiction", "overview": "A burger-loving hit man, his philosophical partner and a washed-up boxer.", "poster_path": "/d5iIlFn5s0ImszYzBPb8JPIfbXD.jpg", "release_date": "1994-09-10", "vote_average": 8.5, "genre_ids": [53, 80]}
  ],
  "total_pages": 1,
  "total_results": 6
}`

// InterstellarDetailsJSON is a /movie/157336 response with every appended
// sub-resource.
const InterstellarDetailsJSON = `{
  "id": 157336,
  "title": "Interstellar",
  "overview": "The adventures of a group of explorers who make use of a newly discovered wormhole.",
  "poster_path": "/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg",
  "backdrop_path": "/xJHokMbljvjADYdit5fK5VQsXEG.jpg",
  "release_date": "2014-11-05",
  "vote_average": 8.4,
  "runtime": 169,
  "genres": [{"id": 12, "name": "Adventure"}, {"id": 18, "name": "Drama"}, {"id": 878, "name": "Science Fiction"}],
  "videos": {"results": [
    {"id": "v0", "key": "abc123", "name": "Behind the scenes", "site": "YouTube", "type": "Featurette", "official": true},
    {"id": "v1", "key": "vimeo1", "name": "Trailer on Vimeo", "site": "Vimeo", "type": "Trailer", "official": true},
    {"id": "v2", "key": "zSWdZVtXT7E", "name": "Official Trailer", "site": "YouTube", "type": "Trailer", "official": true},
    {"id": "v3", "key": "2LqzF5WauAw", "name": "Trailer 2", "site": "YouTube", "type": "Trailer", "official": true}
  ]},
  "credits": {
    "cast": [
      {"id": 10297, "name": "Matthew McConaughey", "character": "Cooper", "profile_path": "/mc.jpg", "order": 0},
      {"id": 1813, "name": "Anne Hathaway", "character": "Brand", "profile_path": "/ah.jpg", "order": 1},
      {"id": 83002, "name": "Jessica Chastain", "character": "Murph", "order": 2},
      {"id": 4, "name": "Cast 4", "character": "C4", "order": 3},
      {"id": 5, "name": "Cast 5", "character": "C5", "order": 4},
      {"id": 6, "name": "Cast 6", "character": "C6", "order": 5},
      {"id": 7, "name": "Cast 7", "character": "C7", "order": 6},
      {"id": 8, "name": "Cast 8", "character": "C8", "order": 7},
      {"id": 9, "name": "Cast 9", "character": "C9", "order": 8},
      {"id": 10, "name": "Cast 10", "character": "C10", "order": 9},
      {"id": 11, "name": "Cast 11", "character": "C11", "order": 10},
      {"id": 12, "name": "Cast 12", "character": "C12", "order": 11},
      {"id": 13, "name": "Cast 13", "character": "C13", "order": 12}
    ],
    "crew": [
      {"id": 525, "name": "Christopher Nolan", "job": "Director", "department": "Directing"},
      {"id": 526, "name": "Hans Zimmer", "job": "Original Music Composer", "department": "Sound"},
      {"id": 527, "name": "Jonathan Nolan", "job": "Writer", "department": "Writing"},
      {"id": 528, "name": "Emma Thomas", "job": "Producer", "department": "Production"},
      {"id": 529, "name": "Lynda Obst", "job": "Producer", "department": "Production"},
      {"id": 530, "name": "Hoyte van Hoytema", "job": "Director of Photography", "department": "Camera"},
      {"id": 531, "name": "Christopher Nolan", "job": "Screenplay", "department": "Writing"},
      {"id": 532, "name": "Jordan Goldberg", "job": "Producer", "department": "Production"},
      {"id": 533, "name": "Jake Myers", "job": "Producer", "department": "Production"}
    ]
  },
  "keywords": {"keywords": [{"id": 83, "name": "saving the world"}, {"id": 3801, "name": "space travel"}]},
  "similar": {"page": 1, "results": [
    {"id": 1, "title": "Only Drama", "genre_ids": [18]},
    {"id": 2, "title": "No Overlap", "genre_ids": [35]},
    {"id": 3, "title": "Full Overlap", "genre_ids": [12, 18, 878]},
    {"id": 4, "title": "Also Drama", "genre_ids": [18, 10749]}
  ]},
  "watch/providers": {"results": {
    "US": {
      "link": "https://www.themoviedb.org/movie/157336-interstellar/watch?locale=US",
      "flatrate": [{"provider_id": 531, "provider_name": "Paramount Plus", "logo_path": "/pp.jpg", "display_priority": 7}],
      "rent": [{"provider_id": 2, "provider_name": "Apple TV", "logo_path": "/atv.jpg", "display_priority": 4}],
      "buy": [{"provider_id": 10, "provider_name": "Amazon Video", "logo_path": "/av.jpg", "display_priority": 12}]
    },
    "GB": {"flatrate": [{"provider_id": 8, "provider_name": "Netflix", "logo_path": "/n.jpg", "display_priority": 1}]}
  }}
}`

// GenreListJSON is a /genre/movie/list response.
const GenreListJSON = `{"genres": [
  {"id": 28, "name": "Action"},
  {"id": 12, "name": "Adventure"},
  {"id": 35, "name": "Comedy"},
  {"id": 80, "name": "Crime"},
  {"id": 18, "name": "Drama"},
  {"id": 27, "name": "Horror"},
  {"id": 10749, "name": "Romance"},
  {"id": 878, "name": "Science Fiction"},
  {"id": 53, "name": "Thriller"}
]}`

// InterstellarAnalysis is a model response ranking the Interstellar scenes
// in the order of InterstellarRankedTitles.
const InterstellarAnalysis = `Here is my ranking of the scenes:

#1: Tesseract Revelation
A mind-bending finale that rewires everything you thought you knew about the story.

#2: Docking Scene
A breathtaking, pulse-pounding spin as Cooper matches the Endurance rotation. Rating: 9/10

#3: Cooper watches messages from Earth
An emotional gut punch as decades of family life pass in minutes.

#4: Time Dilation on Miller's Planet
Massive waves and a ticking clock make every second count.`

// InterstellarRankedTitles is the scene order produced from InterstellarAnalysis.
var InterstellarRankedTitles = []string{
	"Tesseract Revelation",
	"Docking Scene",
	"Cooper watches messages from Earth",
	"Time Dilation on Miller's Planet",
}

// InterstellarDockingDescription is the description scraped for the docking
// scene. Removing the rating leaves the space before it.
const InterstellarDockingDescription = "A breathtaking, pulse-pounding spin as Cooper matches the Endurance rotation. "
