package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the SQLite schema if it does not already exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		_, st, err := openRepo(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		fmt.Println("schema ready at", dbPath)
		return nil
	},
}
