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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the TMDB client, the completion models, the caches, the Google Cloud
// services, Pub/Sub subscriptions and prompt templates.
//
// Structs:
//   - TMDB: Connection and caching settings for The Movie Database API.
//   - CacheSettings: Backend selection and sizing for the response cache.
//   - AgentModel: Configuration for a completion model (OpenRouter or Vertex AI).
//   - PromptTemplates: text/template sources for the prompts.
//   - Highlights: Scene highlight ranking settings.
//   - Discovery: Discovery quiz settings.
//   - Server: HTTP server settings.
//   - Logging: Log file rotation settings.
//   - BigQueryDataSource: Dataset and table holding scene highlights.
//   - TopicSubscription: Configuration for a single Pub/Sub topic subscription.
//   - Config: The top-level struct that aggregates all other configuration structs.
package cloud

import (
	"time"

	"google.golang.org/genai"
)

// Supported values of the configuration enums.
const (
	ProviderOpenRouter = "openrouter"
	ProviderVertex     = "vertex"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	SceneSourceStatic   = "static"
	SceneSourceBigQuery = "bigquery"

	RecommendationSourceStatic = "static"
	RecommendationSourceTMDB   = "tmdb"

	TelemetryExporterNone = "none"
	TelemetryExporterGCP  = "gcp"
)

// DefaultSafetySettings defines the content safety thresholds used with
// Vertex AI models. Scene descriptions routinely mention violence, so the
// thresholds only block high-probability harm.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
	},
}

// TMDB holds the settings of The Movie Database client.
type TMDB struct {
	BaseURL          string `toml:"base_url"`           // API root, e.g. "https://api.themoviedb.org/3".
	ImageBaseURL     string `toml:"image_base_url"`     // Image CDN root, e.g. "https://image.tmdb.org/t/p".
	APIKey           string `toml:"api_key"`            // v3 API key; normally supplied through TMDB_API_KEY.
	Region           string `toml:"region"`             // Watch provider region, e.g. "US".
	Language         string `toml:"language"`           // Optional response language, e.g. "en-US".
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // Per request timeout.
	MaxRetries       int    `toml:"max_retries"`        // Attempts for retryable failures (429, 5xx, network).
	RateLimit        int    `toml:"rate_limit"`         // Requests per second.
	CacheTTLSeconds  int    `toml:"cache_ttl_in_seconds"`
}

// Timeout returns the request timeout, defaulting to 10 seconds.
func (t TMDB) Timeout() time.Duration {
	return secondsOr(t.TimeoutInSeconds, 10)
}

// CacheTTL returns how long TMDB responses are cached, defaulting to 15 minutes.
func (t TMDB) CacheTTL() time.Duration {
	return secondsOr(t.CacheTTLSeconds, 900)
}

// CacheSettings selects and sizes the response cache.
type CacheSettings struct {
	Backend           string `toml:"backend"`                // "memory" or "redis".
	Size              int    `toml:"size"`                   // Maximum entries of the memory cache.
	DefaultTTLSeconds int    `toml:"default_ttl_in_seconds"` // TTL used when a caller passes zero.
	KeyPrefix         string `toml:"key_prefix"`             // Namespace for redis keys.
	RedisAddr         string `toml:"redis_addr"`             // host:port; normally supplied through REDIS_ADDR.
	RedisPassword     string `toml:"redis_password"`         // Normally supplied through REDIS_PASSWORD.
	RedisDB           int    `toml:"redis_db"`
	MaxTTLSeconds     int    `toml:"max_ttl_in_seconds"` // Upper bound of an entry lifetime in the memory cache.
}

// DefaultTTL returns the cache default TTL, defaulting to 15 minutes.
func (c CacheSettings) DefaultTTL() time.Duration {
	return secondsOr(c.DefaultTTLSeconds, 900)
}

// MaxTTL returns the longest lifetime a memory cache entry may have,
// defaulting to 24 hours.
func (c CacheSettings) MaxTTL() time.Duration {
	return secondsOr(c.MaxTTLSeconds, 86400)
}

// AgentModel represents the configuration of a completion model.
type AgentModel struct {
	Provider           string  `toml:"provider"`            // "openrouter" or "vertex".
	Endpoint           string  `toml:"endpoint"`            // OpenAI compatible API root for OpenRouter.
	APIKey             string  `toml:"api_key"`             // Normally supplied through OPENROUTER_API_KEY.
	Model              string  `toml:"model"`               // Model name, e.g. "google/gemma-3-4b-latest".
	SystemInstructions string  `toml:"system_instructions"` // System prompt.
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	MaxTokens          int32   `toml:"max_tokens"`
	RateLimit          int     `toml:"rate_limit"` // Requests per second.
	TimeoutInSeconds   int     `toml:"timeout_in_seconds"`
	MaxRetries         int     `toml:"max_retries"`
	Referer            string  `toml:"referer"` // Optional OpenRouter attribution header.
	Title              string  `toml:"title"`   // Optional OpenRouter attribution header.
}

// Timeout returns the completion timeout, defaulting to 60 seconds.
func (m AgentModel) Timeout() time.Duration {
	return secondsOr(m.TimeoutInSeconds, 60)
}

// PromptTemplates holds the templates for the prompts sent to the models.
type PromptTemplates struct {
	SceneRankingPrompt string `toml:"scene_ranking"` // User prompt; vocabulary TITLE, OVERVIEW, SCENE_LIST.
}

// Highlights configures scene highlight ranking.
type Highlights struct {
	AgentModel       string `toml:"agent_model"`        // Key into Config.AgentModels.
	MaxHighlights    int    `toml:"max_highlights"`     // Scenes kept after ranking.
	EnhanceByDefault bool   `toml:"enhance_by_default"` // Rank with the model when the client does not say.
	Source           string `toml:"source"`             // "static" or "bigquery".
	CacheTTLSeconds  int    `toml:"cache_ttl_in_seconds"`
	WarmupTopic      string `toml:"warmup_topic"` // Key into Config.TopicSubscriptions; empty disables warm-up.
}

// CacheTTL returns how long ranked highlights are cached, defaulting to 24 hours.
func (h Highlights) CacheTTL() time.Duration {
	return secondsOr(h.CacheTTLSeconds, 86400)
}

// Discovery configures the discovery quiz.
type Discovery struct {
	SessionTTLSeconds    int    `toml:"session_ttl_in_seconds"`
	RecommendationSource string `toml:"recommendation_source"` // "static" or "tmdb".
	MaxRecommendations   int    `toml:"max_recommendations"`
}

// SessionTTL returns how long an idle quiz session is kept, defaulting to 1 hour.
func (d Discovery) SessionTTL() time.Duration {
	return secondsOr(d.SessionTTLSeconds, 3600)
}

// Server configures the HTTP listener.
type Server struct {
	Port                int      `toml:"port"`
	SearchRatePerSecond float64  `toml:"search_rate_per_second"` // Per client IP.
	SearchBurst         int      `toml:"search_burst"`
	AllowedOrigins      []string `toml:"allowed_origins"` // Empty allows every origin.
	ReadTimeoutSeconds  int      `toml:"read_timeout_in_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_in_seconds"`
	ShutdownSeconds     int      `toml:"shutdown_timeout_in_seconds"`
}

// Logging configures the rotating log file.
type Logging struct {
	Level      string `toml:"level"`        // debug, info, warn or error.
	File       string `toml:"file"`         // Empty disables the log file.
	MaxSizeMB  int    `toml:"max_size_mb"`  // Rotate after this size.
	MaxBackups int    `toml:"max_backups"`  // Rotated files to keep.
	MaxAgeDays int    `toml:"max_age_days"` // Days to keep rotated files.
	Compress   bool   `toml:"compress"`
}

// BigQueryDataSource represents the configuration for a BigQuery data source.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`     // The name of the BigQuery dataset.
	SceneTable  string `toml:"scene_table"` // Table of scene highlights keyed by movie id.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The processing timeout of a single message.
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	Application struct {
		Name              string `toml:"name"`               // Service name reported to telemetry.
		GoogleProjectId   string `toml:"google_project_id"`  // Google Cloud project, required by BigQuery, Pub/Sub, Vertex and the GCP exporters.
		GoogleLocation    string `toml:"location"`           // Vertex AI location.
		ThreadPoolSize    int    `toml:"thread_pool_size"`   // Maximum concurrent upstream calls of one fan-out.
		TelemetryExporter string `toml:"telemetry_exporter"` // "none" or "gcp".
	} `toml:"application"`
	Logging            Logging                      `toml:"logging"`
	Server             Server                       `toml:"server"`
	TMDB               TMDB                         `toml:"tmdb"`
	Cache              CacheSettings                `toml:"cache"`
	Highlights         Highlights                   `toml:"highlights"`
	Discovery          Discovery                    `toml:"discovery"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name, e.g. "HighlightTopic".
	AgentModels        map[string]AgentModel        `toml:"agent_models"`        // Keyed by a logical name, e.g. "scene-critic".
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance with its maps allocated so the TOML decoder can populate them.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with its map fields initialized.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]AgentModel),
	}
}

// CacheMaxTTL returns the cache lifetime bound needed by every TTL of the
// configuration: the [cache] maximum raised to the longest of the TMDB,
// highlight and session TTLs.
func (c *Config) CacheMaxTTL() time.Duration {
	return max(c.Cache.MaxTTL(), c.TMDB.CacheTTL(), c.Highlights.CacheTTL(), c.Discovery.SessionTTL())
}

func secondsOr(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
