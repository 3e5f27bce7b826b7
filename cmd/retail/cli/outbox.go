package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-retail/internal/app"
	"github.com/odyssey-erp/odyssey-retail/internal/outbox"
)

// NewOutboxCommand groups the sync queue commands.
func NewOutboxCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and push the sync queue",
	}
	cmd.AddCommand(newOutboxPendingCommand(opts))
	cmd.AddCommand(newOutboxStatsCommand(opts))
	cmd.AddCommand(newOutboxPushCommand(opts))
	return cmd
}

func newOutboxPendingCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Print pending sync records as JSON lines, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			records, err := outbox.NewService(conn, nil).ListPendingBatch(opts.tenantContext(cmd.Context()), limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, rec := range records {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to print (0 prints all)")
	return cmd
}

func newOutboxStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print pending and synced counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()

			stats, err := outbox.NewService(conn, nil).Stats(opts.tenantContext(cmd.Context()))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "tenant %s: %d pending, %d synced\n", opts.Tenant, stats.Pending, stats.Synced)
			return err
		},
	}
}

func newOutboxPushCommand(opts *RootOptions) *cobra.Command {
	var (
		all     bool
		noLease bool
	)
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push pending records to the remote mirror now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			job, closeJob, err := app.NewOutboxPushJob(ctx, opts.config, outbox.NewService(conn, nil), opts.logger,
				app.PushOptions{WithLease: !noLease})
			if err != nil {
				return err
			}
			defer closeJob()

			tenant := opts.Tenant
			if all {
				tenant = ""
			}
			results, err := job.Run(ctx, tenant)
			for _, res := range results {
				state := fmt.Sprintf("%d pushed, %d pending", res.Pushed, res.Pending)
				if res.Skipped {
					state = "skipped, another push holds the lease"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tenant %s: %s\n", res.TenantID, state)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "push every tenant with pending records")
	cmd.Flags().BoolVar(&noLease, "no-lease", false, "skip the redis lease (single pusher only)")
	return cmd
}
