package cli

import (
	"github.com/S1riyS/graphfs/internal/config"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "graphfs",
	Short: "Hierarchical graph store for directories, files and users",
	Long: `graphfs keeps directories, files and users as a typed graph and serves
create, list, ownership and cascading delete operations over HTTP.

Run "graphfs serve" to start the API, or "graphfs migrate" to apply the
database schema and exit.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "path to the YAML config file")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
