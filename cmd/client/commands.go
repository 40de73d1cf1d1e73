package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/models"
)

const syncWaitTimeout = time.Minute

func newQueueCommand(app *cliApp) *cobra.Command {
	var (
		entityType string
		data       string
	)

	cmd := &cobra.Command{
		Use:   "queue <create|update|delete> [key]",
		Short: "Queue a mutation for synchronization",
		Long: `Queue a mutation. The data flag takes a JSON document, "-" reads it
from stdin. Without a key the generated task ID is used.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := models.Action{Type: models.TaskType(args[0]), EntityType: entityType}
			if len(args) == 2 {
				action.Key = args[1]
			}

			payload, err := readPayload(cmd.InOrStdin(), data)
			if err != nil {
				return err
			}
			action.Payload = payload

			engine, err := app.open(cmd)
			if err != nil {
				return err
			}

			task, err := engine.QueueAction(cmd.Context(), action)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), task)
		},
	}

	cmd.Flags().StringVar(&entityType, "type", "", "entity type")
	cmd.Flags().StringVar(&data, "data", "", "JSON payload, - for stdin")
	return cmd
}

func readPayload(stdin io.Reader, data string) (json.RawMessage, error) {
	switch data {
	case "":
		return nil, nil
	case "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return json.RawMessage(b), nil
	default:
		return json.RawMessage(data), nil
	}
}

func newSyncCommand(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Probe the server and drain the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.open(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), syncWaitTimeout)
			defer cancel()

			if !engine.Probe(ctx) {
				return service.ErrOffline
			}

			// The probe may already have started a background session.
			for {
				result, err := engine.SyncWhenOnline(ctx)
				if !errors.Is(err, service.ErrSyncInProgress) {
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), result)
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(50 * time.Millisecond):
				}
			}
		},
	}
}

type statusOutput struct {
	Online      bool              `json:"online"`
	QueueLength int               `json:"queue_length"`
	Pending     []models.SyncTask `json:"pending,omitempty"`
}

func newStatusCommand(app *cliApp) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and queued tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.open(cmd)
			if err != nil {
				return err
			}
			if probe {
				engine.Probe(cmd.Context())
			}

			return printJSON(cmd.OutOrStdout(), statusOutput{
				Online:      engine.IsOnlineStatus(),
				QueueLength: engine.GetSyncQueueLength(),
				Pending:     engine.PendingTasks(),
			})
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", true, "ping the server before reporting")
	return cmd
}

func newConflictsCommand(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List recorded conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.open(cmd)
			if err != nil {
				return err
			}

			records, err := engine.Conflicts(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), records)
		},
	}
}

func newCacheCommand(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Read and write cached entities",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the cached data of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.open(cmd)
			if err != nil {
				return err
			}

			data, found, err := engine.GetCachedData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%q is not cached", args[0])
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}

	var entityType string
	set := &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Store a local snapshot of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("%w: data is not valid JSON", service.ErrInvalidAction)
			}

			engine, err := app.open(cmd)
			if err != nil {
				return err
			}
			return engine.SetCachedData(cmd.Context(), args[0], json.RawMessage(args[1]), entityType)
		},
	}
	set.Flags().StringVar(&entityType, "type", "", "entity type")

	list := &cobra.Command{
		Use:   "list",
		Short: "List every cached entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := app.open(cmd)
			if err != nil {
				return err
			}

			entries, err := engine.CacheEntries(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}

	cmd.AddCommand(get, set, list)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildInfo())
			return err
		},
	}
}
