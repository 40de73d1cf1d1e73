package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-offline-sync/internal/client"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// cliApp opens the engine lazily so that commands like "version" run
// without a store or a server address.
type cliApp struct {
	flags  *config.FlagValues
	engine *client.Engine
	logger *logger.Logger
}

func (a *cliApp) open(cmd *cobra.Command) (*client.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}

	cfg, err := config.GetClientConfig(a.flags.Config())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	// One-shot commands probe explicitly instead of in the background.
	cfg.Workers.ProbeInterval = -1

	a.logger = logger.NewClientLogger("sync-client", cfg.LogFile)
	ctx := a.logger.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	engine, err := client.NewEngine(ctx, cfg, a.logger)
	if err != nil {
		return nil, err
	}
	if err := engine.Init(ctx); err != nil {
		engine.Destroy()
		return nil, err
	}

	a.engine = engine
	return engine, nil
}

func (a *cliApp) close() error {
	if a.engine == nil {
		return nil
	}
	err := a.engine.Destroy()
	a.engine = nil
	return err
}

// newRootCommand builds the command tree. The caller closes app after
// Execute returns.
func newRootCommand(app *cliApp) *cobra.Command {
	goFlags := flag.NewFlagSet("sync-client", flag.ContinueOnError)
	app.flags = config.RegisterFlags(goFlags)

	cmd := &cobra.Command{
		Use:           "sync-client",
		Short:         "Offline-first sync client",
		Long:          "Queues mutations locally and synchronizes them with the sync server once it is reachable.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().AddGoFlagSet(goFlags)

	cmd.AddCommand(
		newQueueCommand(app),
		newSyncCommand(app),
		newStatusCommand(app),
		newConflictsCommand(app),
		newCacheCommand(app),
		newVersionCommand(),
	)

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
