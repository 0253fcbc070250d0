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

// Command discoverctl queries the movie catalog, scene highlights and the
// discovery quiz from the terminal. Every command prints JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/services"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/telemetry"
)

// opener builds the services for one command run and returns a function
// releasing them.
type opener func(ctx context.Context, runtime string) (*services.Registry, func() error, error)

func main() {
	rootCmd, release := newRootCmd(openServices)
	err := rootCmd.Execute()
	if releaseErr := release(); releaseErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", releaseErr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The returned function releases the
// services opened by the command that ran, if any.
func newRootCmd(open opener) (*cobra.Command, func() error) {
	var (
		registry *services.Registry
		release  func() error
	)

	rootCmd := &cobra.Command{
		Use:          "discoverctl",
		Short:        "Browse movies, scene highlights and discovery quizzes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			runtime, _ := cmd.Flags().GetString("runtime")
			var err error
			registry, release, err = open(cmd.Context(), runtime)
			return err
		},
	}
	rootCmd.PersistentFlags().String("runtime", "", "Configuration runtime (local, prod, ...); defaults to $"+cloud.EnvConfigRuntime+" or local")

	list := func(use string, short string, fetch func(*services.CatalogService) listFunc) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				out, err := fetch(registry.Catalog)(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, out)
			},
		}
	}
	trendingCmd := list("trending", "List the movies trending today", func(c *services.CatalogService) listFunc { return c.Trending })
	popularCmd := list("popular", "List popular movies", func(c *services.CatalogService) listFunc { return c.Popular })
	upcomingCmd := list("upcoming", "List upcoming releases", func(c *services.CatalogService) listFunc { return c.Upcoming })

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			out, err := registry.Catalog.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	searchCmd.Flags().Int("limit", services.DefaultSearchLimit, "Maximum number of results")

	movieCmd := &cobra.Command{
		Use:   "movie <id>",
		Short: "Show the details of a movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			out, err := registry.Catalog.Detail(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}

	similarCmd := &cobra.Command{
		Use:   "similar <id>",
		Short: "List movies similar to a movie, by shared genres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			out, err := registry.Catalog.Similar(cmd.Context(), id, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	similarCmd.Flags().Int("limit", services.DefaultSimilarLimit, "Maximum number of results")

	highlightsCmd := &cobra.Command{
		Use:   "highlights <id>",
		Short: "Show the scene highlights of a movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			enhance, _ := cmd.Flags().GetBool("enhance")
			fetch := registry.Highlights.Scenes
			if enhance {
				fetch = registry.Highlights.Enhanced
			}
			out, err := fetch(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	highlightsCmd.Flags().Bool("enhance", false, "Rank the scenes with the configured completion model")

	quizCmd := &cobra.Command{
		Use:       "quiz <put-me-on|pull-me-in>",
		Short:     "Answer the discovery quiz interactively and print the recommendations",
		Long:      "Questions are printed to stderr and answers read from stdin, one per line. An empty line skips the remaining questions.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"put-me-on", "pull-me-in"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuiz(cmd, registry.Discovery, args[0])
		},
	}

	rootCmd.AddCommand(trendingCmd, popularCmd, upcomingCmd, searchCmd, movieCmd, similarCmd, highlightsCmd, quizCmd)
	return rootCmd, func() error {
		if release == nil {
			return nil
		}
		return release()
	}
}

type listFunc = func(ctx context.Context) ([]model.MovieSummary, error)

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", raw)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// openServices loads the configuration from ./configs and builds the
// services. Logs go to stderr so stdout stays valid JSON.
func openServices(ctx context.Context, runtime string) (*services.Registry, func() error, error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return nil, nil, err
		}
	}
	if runtime == "" {
		runtime = os.Getenv(cloud.EnvConfigRuntime)
	}
	if runtime == "" {
		runtime = "local"
	}
	if err := os.Setenv(cloud.EnvConfigRuntime, runtime); err != nil {
		return nil, nil, err
	}

	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config); err != nil {
		return nil, nil, err
	}
	// A single command does not need the warm-up listeners.
	config.TopicSubscriptions = map[string]cloud.TopicSubscription{}
	closeLogs := telemetry.SetupLoggingTo(os.Stderr, config.Logging)

	clients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, nil, errors.Join(err, closeLogs())
	}
	registry, err := services.NewRegistry(config, clients)
	if err != nil {
		return nil, nil, errors.Join(err, clients.Close(), closeLogs())
	}
	return registry, func() error {
		return errors.Join(clients.Close(), closeLogs())
	}, nil
}
