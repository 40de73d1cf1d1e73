// Command tokengen issues a bearer token accepted by the sync server.
//
//	tokengen -token-sign-key secret -user 42
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("tokengen", flag.ContinueOnError)
	values := config.RegisterFlags(fs)
	userID := fs.Int64("user", 1, "Client ID stored as the token subject")
	if err := fs.Parse(args); err != nil {
		return err
	}

	structured, err := config.GetStructuredConfig(values.Config())
	if err != nil {
		return fmt.Errorf("error get structured config: %w", err)
	}

	cfg, err := config.NewTokenConfig(structured)
	if err != nil {
		return err
	}

	token, err := service.NewAuthService(cfg.App, logger.Nop()).CreateToken(context.Background(), *userID)
	if err != nil {
		return err
	}

	fmt.Println(token.SignedString)
	return nil
}
