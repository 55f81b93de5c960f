package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tastefull/backend/internal/adapters/database"
	"github.com/tastefull/backend/internal/infrastructure/clients/postgres"
	"github.com/tastefull/backend/pkg/config"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			applied, err := database.Migrate(cmd.Context(), client)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", version)
			}
			return nil
		},
	}
}

func connect(ctx context.Context) (*config.Config, *postgres.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	client, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

// connectMigrated connects and brings the schema up to date
func connectMigrated(ctx context.Context) (*config.Config, *postgres.Client, error) {
	cfg, client, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := database.Migrate(ctx, client); err != nil {
		client.Close()
		return nil, nil, err
	}
	return cfg, client, nil
}
