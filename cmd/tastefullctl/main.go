// Command tastefullctl administers a Tastefull database: schema migrations, demo data and
// ad-hoc filter evaluation.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tastefull/backend/internal/infrastructure/observability"
)

func main() {
	observability.InitLogger("tastefullctl", "development")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tastefullctl",
		Short:         "Administer a Tastefull database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	root.AddCommand(newFilterCommand())
	return root
}
