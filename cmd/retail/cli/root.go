package cli

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-retail/internal/app"
	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
	"github.com/odyssey-erp/odyssey-retail/internal/shared"
)

// RootOptions holds global flags and the configuration loaded before any
// subcommand runs.
type RootOptions struct {
	Tenant string

	config *app.Config
	logger *slog.Logger
}

// NewRootCommand creates the root command for the retail CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "retail",
		Short:         "Offline retail store: local API, migrations and outbox sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			opts.config = cfg
			opts.logger = app.NewLogger(cfg)
			if opts.Tenant == "" {
				opts.Tenant = cfg.DefaultTenant
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Tenant, "tenant", "", "tenant partition key (defaults to DEFAULT_TENANT)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewOutboxCommand(opts))
	cmd.AddCommand(NewJobsCommand(opts))

	return cmd
}

func (o *RootOptions) openStore(ctx context.Context) (*sql.DB, error) {
	return db.OpenSQLite(ctx, o.config.SQLitePath)
}

func (o *RootOptions) tenantContext(ctx context.Context) context.Context {
	return shared.ContextWithTenant(ctx, o.Tenant)
}
