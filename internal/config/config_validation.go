// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

func (cfg *ClientConfig) validate() error {
	switch cfg.Storage.Driver {
	case StorageDriverSQLite:
		if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, ":memory:") {
			return fmt.Errorf("%w: sqlite store needs a file path", ErrInvalidStorageConfigs)
		}
	case StorageDriverRedis:
		if cfg.Storage.Redis.Address == "" {
			return fmt.Errorf("%w: redis store needs an address", ErrInvalidStorageConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalidStorageConfigs, cfg.Storage.Driver)
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout < 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.MaxRetries < 1 || cfg.Workers.MaxRequestsPerSecond < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.Storage.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	return cfg.App.validate()
}

func (app ServerApp) validate() error {
	if app.TokenSignKey == "" || app.TokenDuration <= 0 {
		return ErrInvalidAppConfigs
	}

	return nil
}
