// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "countersuite",
	Short: "CounterSuite is a multi-tenant business management service",
	Long: `CounterSuite is a multi-tenant business management service covering
point of sale, inventory, customers and staff. Every tenant gets its own
subdomain, roles and permission grants.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
