package config

import (
	"fmt"
	"time"
)

const (
	DefaultServerAddress = "localhost:8080"
	DefaultServerTimeout = 30 * time.Second
	DefaultTokenIssuer   = "go-offline-sync"
	DefaultTokenDuration = 24 * time.Hour
	DefaultServerVersion = "dev"
)

type ServerApp struct {
	TokenSignKey  string
	TokenIssuer   string
	TokenDuration time.Duration
	Version       string
}

type ServerHTTP struct {
	HTTPAddress    string
	RequestTimeout time.Duration
}

type ServerDB struct {
	DSN string
}

type ServerConfig struct {
	App     ServerApp
	Server  ServerHTTP
	Storage ServerDB
}

// GetServerConfig loads the structured config using args as command-line
// flags and projects it into a validated [ServerConfig].
func GetServerConfig(args []string) (*ServerConfig, error) {
	flags, err := ParseFlags("server", args)
	if err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return NewServerConfig(cfg)
}

// NewServerConfig projects cfg into a [ServerConfig], fills defaults and
// validates the result.
func NewServerConfig(cfg *StructuredConfig) (*ServerConfig, error) {
	serverCfg := &ServerConfig{
		App: newServerApp(cfg.App),
		Server: ServerHTTP{
			HTTPAddress:    orString(cfg.Server.HTTPAddress, DefaultServerAddress),
			RequestTimeout: orDuration(cfg.Server.RequestTimeout, DefaultServerTimeout),
		},
		Storage: ServerDB{DSN: cfg.Storage.DB.DSN},
	}

	return serverCfg, serverCfg.validate()
}

// TokenConfig is the subset of settings the token tool needs.
type TokenConfig struct {
	App ServerApp
}

// GetTokenConfig loads the token signing settings; args are parsed as flags.
func GetTokenConfig(args []string) (*TokenConfig, error) {
	flags, err := ParseFlags("tokengen", args)
	if err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	cfg, err := GetStructuredConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return NewTokenConfig(cfg)
}

// NewTokenConfig projects cfg into a validated [TokenConfig].
func NewTokenConfig(cfg *StructuredConfig) (*TokenConfig, error) {
	tokenCfg := &TokenConfig{App: newServerApp(cfg.App)}
	return tokenCfg, tokenCfg.App.validate()
}

func newServerApp(app App) ServerApp {
	return ServerApp{
		TokenSignKey:  app.TokenSignKey,
		TokenIssuer:   orString(app.TokenIssuer, DefaultTokenIssuer),
		TokenDuration: orDuration(app.TokenDuration, DefaultTokenDuration),
		Version:       orString(app.Version, DefaultServerVersion),
	}
}
