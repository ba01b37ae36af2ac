package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qs3c/members_server/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(current.DB); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %d tables\n", len(database.Models()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
