package config

import (
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientConfig_Defaults(t *testing.T) {
	cfg, err := NewClientConfig(&StructuredConfig{
		Adapter: Adapter{HTTPAddress: "localhost:8080"},
	})

	require.NoError(t, err)
	assert.Equal(t, StorageDriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, DefaultSQLiteDSN, cfg.Storage.DB.DSN)
	assert.Equal(t, DefaultAdapterTimeout, cfg.Adapter.RequestTimeout)
	assert.Equal(t, DefaultSyncInterval, cfg.Workers.SyncInterval)
	assert.Equal(t, DefaultProbeInterval, cfg.Workers.ProbeInterval)
	assert.Equal(t, DefaultMaxRetries, cfg.Workers.MaxRetries)
	assert.Equal(t, models.PolicyClientWins, cfg.Workers.ConflictPolicy)
	assert.Equal(t, models.OldestFirst, cfg.Workers.DrainOrder)
}

func TestNewClientConfig_NegativeProbeIntervalKept(t *testing.T) {
	cfg, err := NewClientConfig(&StructuredConfig{
		Adapter: Adapter{HTTPAddress: "localhost:8080"},
		Workers: Workers{ProbeInterval: -time.Second},
	})

	require.NoError(t, err)
	assert.Equal(t, -time.Second, cfg.Workers.ProbeInterval)
}

func TestNewClientConfig_UnsupportedPolicyFailsFast(t *testing.T) {
	_, err := NewClientConfig(&StructuredConfig{
		Adapter: Adapter{HTTPAddress: "localhost:8080"},
		Workers: Workers{ConflictPolicy: "coin-flip"},
	})

	require.ErrorIs(t, err, ErrInvalidWorkerConfigs)
	assert.ErrorIs(t, err, models.ErrUnsupportedPolicy)
}

func TestNewClientConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StructuredConfig
		wantErr error
	}{
		{
			name:    "missing adapter address",
			cfg:     StructuredConfig{},
			wantErr: ErrInvalidAdapterConfigs,
		},
		{
			name: "redis without address",
			cfg: StructuredConfig{
				Adapter: Adapter{HTTPAddress: "localhost:8080"},
				Storage: Storage{Driver: "redis"},
			},
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name: "unknown driver",
			cfg: StructuredConfig{
				Adapter: Adapter{HTTPAddress: "localhost:8080"},
				Storage: Storage{Driver: "bolt"},
			},
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name: "in-memory sqlite",
			cfg: StructuredConfig{
				Adapter: Adapter{HTTPAddress: "localhost:8080"},
				Storage: Storage{DB: DB{DSN: ":memory:"}},
			},
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name: "negative retries",
			cfg: StructuredConfig{
				Adapter: Adapter{HTTPAddress: "localhost:8080"},
				Workers: Workers{MaxRetries: -1},
			},
			wantErr: ErrInvalidWorkerConfigs,
		},
		{
			name: "unknown drain order",
			cfg: StructuredConfig{
				Adapter: Adapter{HTTPAddress: "localhost:8080"},
				Workers: Workers{DrainOrder: "shuffle"},
			},
			wantErr: ErrInvalidWorkerConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClientConfig(&tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewServerConfig(t *testing.T) {
	cfg, err := NewServerConfig(&StructuredConfig{
		App:     App{TokenSignKey: "secret"},
		Storage: Storage{DB: DB{DSN: "postgres://localhost/sync"}},
	})

	require.NoError(t, err)
	assert.Equal(t, DefaultServerAddress, cfg.Server.HTTPAddress)
	assert.Equal(t, DefaultServerTimeout, cfg.Server.RequestTimeout)
	assert.Equal(t, DefaultTokenIssuer, cfg.App.TokenIssuer)
	assert.Equal(t, DefaultTokenDuration, cfg.App.TokenDuration)

	_, err = NewServerConfig(&StructuredConfig{App: App{TokenSignKey: "secret"}})
	assert.ErrorIs(t, err, ErrInvalidStorageConfigs)

	_, err = NewServerConfig(&StructuredConfig{Storage: Storage{DB: DB{DSN: "postgres://localhost/sync"}}})
	assert.ErrorIs(t, err, ErrInvalidAppConfigs)
}

func TestGetClientConfig_FlagsOverrideEnv(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ADAPTER_ADDRESS", "http://env")
	t.Setenv("WORKERS_SYNC_INTERVAL", "1m")

	cfg, err := GetClientConfig(&StructuredConfig{Adapter: Adapter{HTTPAddress: "http://flag"}})

	require.NoError(t, err)
	assert.Equal(t, "http://flag", cfg.Adapter.HTTPAddress)
	assert.Equal(t, time.Minute, cfg.Workers.SyncInterval)
}
