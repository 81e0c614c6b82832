package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redbco/redb-datasync/cmd/datasync/internal/session"
	"github.com/redbco/redb-datasync/pkg/datasource"
	"github.com/spf13/cobra"
)

// setupCommands initializes all commands and their relationships
func setupCommands() {
	// Add record commands
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(removeCmd)

	// Add datasource commands
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(pingCmd)

	// Add resource commands
	rootCmd.AddCommand(fetchCmd)

	// Add config commands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// openDataSource connects to the configured datasource. The caller closes it.
func openDataSource(ctx context.Context) (datasource.DataSource, error) {
	settings := session.SettingsFromConfig(cfg)
	settings.Logger = log
	return session.Open(ctx, settings)
}

// typesCmd lists the registered datasource types
var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List registered datasource types",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, t := range datasource.Types() {
			fmt.Fprintln(cmd.OutOrStdout(), string(t))
		}
		return nil
	},
}

// exitUnhealthy is swapped in tests.
var exitUnhealthy = func() { os.Exit(2) }
