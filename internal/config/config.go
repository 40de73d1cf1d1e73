// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// sync client, the reference server and the token tool. It is populated by
// merging command-line flags, environment variables (optionally loaded from a
// .env file) and an optional JSON or YAML file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds token parameters and the application version.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the durable store backends.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds the reference server listen address and timeouts.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the address and credentials the client uses to reach
	// the sync server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds the synchronization engine tuning knobs.
	Workers Workers `envPrefix:"WORKERS_"`

	// Log holds log output settings.
	Log Log `envPrefix:"LOG_"`

	// FilePath is the optional path to a JSON or YAML configuration file.
	// The format is chosen by extension (.yaml/.yml, otherwise JSON).
	// Populated via the CONFIG environment variable or the -c / -config flag.
	FilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// TokenSignKey is the secret key used to sign and verify JWT tokens.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim embedded in every issued JWT token.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration specifies how long an issued token remains valid.
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// Version is the version string reported by /api/ping.
	// Env: APP_VERSION
	Version string `env:"VERSION"`
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// Driver selects the client durable store: "sqlite" (default) or "redis".
	// Env: STORAGE_DRIVER
	Driver string `env:"DRIVER"`

	// DB holds the relational database connection settings. The client
	// treats DSN as a SQLite file path, the server as a PostgreSQL URI.
	DB DB `envPrefix:"DB_"`

	// Redis holds the Redis connection settings.
	Redis Redis `envPrefix:"REDIS_"`
}

// DB holds connection settings for the relational database backend.
type DB struct {
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Redis holds connection settings for the Redis store backend.
type Redis struct {
	// Env: STORAGE_REDIS_ADDRESS
	Address string `env:"ADDRESS"`
	// Env: STORAGE_REDIS_PASSWORD
	Password string `env:"PASSWORD"`
	// Env: STORAGE_REDIS_DB
	DB int `env:"DB"`
	// Prefix namespaces every key written by the store.
	// Env: STORAGE_REDIS_PREFIX
	Prefix string `env:"PREFIX"`
}

// Server holds network and timeout settings for the reference server.
type Server struct {
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Adapter holds the client side of the remote contract.
type Adapter struct {
	// HTTPAddress is the base URL or host:port of the sync server.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single outbound call.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Token is the bearer token attached to every request.
	// Env: ADAPTER_TOKEN
	Token string `env:"TOKEN"`
}

// Workers holds the synchronization engine settings.
type Workers struct {
	// SyncInterval is the period of the background sync timer.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// ProbeInterval is the period of the connectivity probe. A negative
	// value disables probing.
	// Env: WORKERS_PROBE_INTERVAL
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// MaxRetries is the number of failed attempts after which a task is
	// evicted from the queue.
	// Env: WORKERS_MAX_RETRIES
	MaxRetries int `env:"MAX_RETRIES"`

	// ConflictPolicy is one of client-wins, server-wins, merge.
	// Env: WORKERS_CONFLICT_POLICY
	ConflictPolicy string `env:"CONFLICT_POLICY"`

	// DrainOrder is oldest-first or newest-first.
	// Env: WORKERS_DRAIN_ORDER
	DrainOrder string `env:"DRAIN_ORDER"`

	// MaxRequestsPerSecond paces remote calls during a drain; zero means
	// unlimited.
	// Env: WORKERS_MAX_REQUESTS_PER_SECOND
	MaxRequestsPerSecond float64 `env:"MAX_REQUESTS_PER_SECOND"`
}

// Log holds log output settings.
type Log struct {
	// File is the client log file path.
	// Env: LOG_FILE
	File string `env:"FILE"`
}

// GetStructuredConfig loads and merges the configuration from all sources.
// For every field the first source that sets a non-zero value wins:
//  1. Command-line flags
//  2. Environment variables (a .env file in the working directory is loaded
//     first and never overrides variables that are already set)
//  3. JSON or YAML file (path resolved from sources 1 and 2)
func GetStructuredConfig(flags *StructuredConfig) (*StructuredConfig, error) {
	return newConfigBuilder().
		withFlags(flags).
		withDotEnv(".env").
		withEnv().
		withFile().
		build()
}
