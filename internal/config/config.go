/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"teo-client-go/internal/models"
)

// Retry defaults for read/verify calls: 2 retries after the first attempt, 400ms then 800ms.
const (
	DefaultRetryMax  = 2
	DefaultRetryBase = 400 * time.Millisecond
)

func Load() (*models.Config, error) {
	httpTimeout, err := getEnvDuration("TEO_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	retryBase, err := getEnvDuration("TEO_RETRY_BASE", DefaultRetryBase)
	if err != nil {
		return nil, err
	}

	pollingInterval, err := getEnvDuration("TEO_POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvDuration("DEV_TOKEN_TTL", 12*time.Hour)
	if err != nil {
		return nil, err
	}

	challengeTTL, err := getEnvDuration("DEV_CHALLENGE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		API: models.APIConfig{
			BaseURL:      getEnvString("TEO_API_BASE_URL", "http://localhost:8080"),
			Timeout:      httpTimeout,
			Token:        os.Getenv("TEO_TOKEN"),
			TokenFile:    getEnvString("TEO_TOKEN_FILE", DefaultTokenPath()),
			NetworksFile: getEnvString("TEO_NETWORKS_FILE", "networks.yaml"),
			Network:      getEnvString("TEO_NETWORK", "polygon-amoy"),
		},
		Agent: models.AgentConfig{
			RPCURL: os.Getenv("TEO_AGENT_RPC_URL"),
			KeyHex: os.Getenv("TEO_AGENT_KEY"),
		},
		Retry: models.RetryConfig{
			MaxRetries: uint64(getEnvInt("TEO_RETRY_MAX", DefaultRetryMax)),
			Base:       retryBase,
		},
		Listener: models.ListenerConfig{
			PollingInterval: pollingInterval,
		},
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "teo-dev.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Dev: models.DevServerConfig{
			ListenAddr:   getEnvString("DEV_LISTEN_ADDR", ":8080"),
			JWTSecret:    getEnvString("DEV_JWT_SECRET", "teo-dev-secret"),
			TokenTTL:     tokenTTL,
			ChallengeTTL: challengeTTL,
		},
	}, nil
}

// DefaultTokenPath is $XDG_CONFIG_HOME/teo/token.json, falling back to ~/.config
func DefaultTokenPath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "teo", "token.json")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "teo", "token.json")
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}
