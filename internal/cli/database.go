package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wgbh/bawstun/internal/database"
)

var ErrDatabaseDisabled = errors.New("database is not enabled in the configuration")

func registerDatabaseCommands(root *cobra.Command, a *app) {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply any outstanding database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			if !a.config.Database.Enabled {
				return ErrDatabaseDisabled
			}

			db := database.New()
			if err := db.Connect(a.config.Database); err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Database %s is up to date\n", a.config.Database.Name)
			return nil
		},
	})

	root.AddCommand(dbCmd)
}
