package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StructuredFileConfig is the on-disk layout of a JSON or YAML config file.
type StructuredFileConfig struct {
	App struct {
		TokenSignKey  string   `json:"token_sign_key" yaml:"token_sign_key"`
		TokenIssuer   string   `json:"token_issuer" yaml:"token_issuer"`
		TokenDuration Duration `json:"token_duration" yaml:"token_duration"`
		Version       string   `json:"version" yaml:"version"`
	} `json:"app,omitempty" yaml:"app,omitempty"`

	Storage struct {
		Driver string `json:"driver" yaml:"driver"`
		DB     struct {
			DSN string `json:"dsn" yaml:"dsn"`
		} `json:"db,omitempty" yaml:"db,omitempty"`
		Redis struct {
			Address  string `json:"address" yaml:"address"`
			Password string `json:"password" yaml:"password"`
			DB       int    `json:"db" yaml:"db"`
			Prefix   string `json:"prefix" yaml:"prefix"`
		} `json:"redis,omitempty" yaml:"redis,omitempty"`
	} `json:"storage,omitempty" yaml:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"server,omitempty" yaml:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
		Token          string   `json:"token" yaml:"token"`
	} `json:"adapter,omitempty" yaml:"adapter,omitempty"`

	Workers struct {
		SyncInterval         Duration `json:"sync_interval" yaml:"sync_interval"`
		ProbeInterval        Duration `json:"probe_interval" yaml:"probe_interval"`
		MaxRetries           int      `json:"max_retries" yaml:"max_retries"`
		ConflictPolicy       string   `json:"conflict_policy" yaml:"conflict_policy"`
		DrainOrder           string   `json:"drain_order" yaml:"drain_order"`
		MaxRequestsPerSecond float64  `json:"max_requests_per_second" yaml:"max_requests_per_second"`
	} `json:"workers,omitempty" yaml:"workers,omitempty"`

	Log struct {
		File string `json:"file" yaml:"file"`
	} `json:"log,omitempty" yaml:"log,omitempty"`
}

func parseFile(path string) (*StructuredConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading a config file: %w", err)
	}

	var fileCfg StructuredFileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return nil, fmt.Errorf("error decoding yaml configs: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &fileCfg); err != nil {
			return nil, fmt.Errorf("error decoding json configs: %w", err)
		}
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey:  fileCfg.App.TokenSignKey,
			TokenIssuer:   fileCfg.App.TokenIssuer,
			TokenDuration: time.Duration(fileCfg.App.TokenDuration),
			Version:       fileCfg.App.Version,
		},
		Storage: Storage{
			Driver: fileCfg.Storage.Driver,
			DB:     DB{DSN: fileCfg.Storage.DB.DSN},
			Redis: Redis{
				Address:  fileCfg.Storage.Redis.Address,
				Password: fileCfg.Storage.Redis.Password,
				DB:       fileCfg.Storage.Redis.DB,
				Prefix:   fileCfg.Storage.Redis.Prefix,
			},
		},
		Server: Server{
			HTTPAddress:    fileCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(fileCfg.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:    fileCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(fileCfg.Adapter.RequestTimeout),
			Token:          fileCfg.Adapter.Token,
		},
		Workers: Workers{
			SyncInterval:         time.Duration(fileCfg.Workers.SyncInterval),
			ProbeInterval:        time.Duration(fileCfg.Workers.ProbeInterval),
			MaxRetries:           fileCfg.Workers.MaxRetries,
			ConflictPolicy:       fileCfg.Workers.ConflictPolicy,
			DrainOrder:           fileCfg.Workers.DrainOrder,
			MaxRequestsPerSecond: fileCfg.Workers.MaxRequestsPerSecond,
		},
		Log: Log{File: fileCfg.Log.File},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports unmarshaling from
// strings like "1h", "30s" in both JSON and YAML.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}

	tmp, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(tmp)
	return nil
}
