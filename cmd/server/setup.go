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

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/core/services"
)

// StateManager holds the shared components of the server.
type StateManager struct {
	config    *cloud.Config
	cloud     *cloud.ServiceClients
	services  *services.Registry
	startedAt time.Time
}

var state = &StateManager{}

// SetupOS points the configuration loader at the configs directory. An
// explicit runtime in the environment wins over the "local" default.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState creates the cloud clients and the services, then starts the
// Pub/Sub listeners.
func InitState(ctx context.Context) error {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	registry, err := services.NewRegistry(config, cloudClients)
	if err != nil {
		_ = cloudClients.Close()
		return err
	}

	state.cloud = cloudClients
	state.services = registry
	state.startedAt = time.Now()

	SetupListeners(ctx, config, cloudClients, registry.Highlights)
	return nil
}
