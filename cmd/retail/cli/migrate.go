package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db"
)

// NewMigrateCommand creates the migrate command. Opening the store applies
// pending migrations, so the command reports the resulting version.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending local schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer conn.Close()
			version, err := db.SchemaVersion(cmd.Context(), conn)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d of %d at %s\n",
				version, db.CurrentSchemaVersion(), opts.config.SQLitePath)
			return err
		},
	}
}
