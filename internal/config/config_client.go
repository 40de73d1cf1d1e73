package config

import (
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// Client defaults applied when no source sets a value.
const (
	DefaultAdapterTimeout = 10 * time.Second
	DefaultSyncInterval   = 5 * time.Minute
	DefaultProbeInterval  = 30 * time.Second
	DefaultMaxRetries     = 3
	DefaultSQLiteDSN      = "sync-client.db"
	DefaultRedisPrefix    = "offline-sync"

	StorageDriverSQLite = "sqlite"
	StorageDriverRedis  = "redis"
)

type ClientApp struct {
	Version string
}

type ClientAdapter struct {
	HTTPAddress    string
	RequestTimeout time.Duration
	Token          string
}

type ClientDB struct {
	DSN string
}

type ClientRedis struct {
	Address  string
	Password string
	DB       int
	Prefix   string
}

type ClientStorage struct {
	Driver string
	DB     ClientDB
	Redis  ClientRedis
}

type ClientWorkers struct {
	SyncInterval         time.Duration
	ProbeInterval        time.Duration
	MaxRetries           int
	ConflictPolicy       models.ResolutionPolicy
	DrainOrder           models.DrainOrder
	MaxRequestsPerSecond float64
}

type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Storage ClientStorage
	Workers ClientWorkers
	LogFile string
}

// GetClientConfig loads the structured config with flags as the highest
// priority source and projects it into a validated [ClientConfig].
func GetClientConfig(flags *StructuredConfig) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return NewClientConfig(cfg)
}

// NewClientConfig projects cfg into a [ClientConfig], fills defaults and
// validates the result.
func NewClientConfig(cfg *StructuredConfig) (*ClientConfig, error) {
	policy, err := models.ParseResolutionPolicy(cfg.Workers.ConflictPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkerConfigs, err)
	}

	order, err := models.ParseDrainOrder(cfg.Workers.DrainOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkerConfigs, err)
	}

	clientCfg := &ClientConfig{
		App: ClientApp{Version: cfg.App.Version},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: orDuration(cfg.Adapter.RequestTimeout, DefaultAdapterTimeout),
			Token:          cfg.Adapter.Token,
		},
		Storage: ClientStorage{
			Driver: orString(cfg.Storage.Driver, StorageDriverSQLite),
			DB:     ClientDB{DSN: cfg.Storage.DB.DSN},
			Redis: ClientRedis{
				Address:  cfg.Storage.Redis.Address,
				Password: cfg.Storage.Redis.Password,
				DB:       cfg.Storage.Redis.DB,
				Prefix:   orString(cfg.Storage.Redis.Prefix, DefaultRedisPrefix),
			},
		},
		Workers: ClientWorkers{
			SyncInterval:         orDuration(cfg.Workers.SyncInterval, DefaultSyncInterval),
			ProbeInterval:        orDuration(cfg.Workers.ProbeInterval, DefaultProbeInterval),
			MaxRetries:           cfg.Workers.MaxRetries,
			ConflictPolicy:       policy,
			DrainOrder:           order,
			MaxRequestsPerSecond: cfg.Workers.MaxRequestsPerSecond,
		},
		LogFile: cfg.Log.File,
	}

	if clientCfg.Workers.MaxRetries == 0 {
		clientCfg.Workers.MaxRetries = DefaultMaxRetries
	}
	if clientCfg.Storage.Driver == StorageDriverSQLite && clientCfg.Storage.DB.DSN == "" {
		clientCfg.Storage.DB.DSN = DefaultSQLiteDSN
	}

	return clientCfg, clientCfg.validate()
}

func orDuration(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
