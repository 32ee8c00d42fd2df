package cli

import (
	"fmt"
	"os"

	"github.com/S1riyS/graphfs/internal/config"
	"github.com/S1riyS/graphfs/pkg/database/postgresql"
	"github.com/S1riyS/graphfs/pkg/logging"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Storage.Driver != config.StorageDriverPostgres {
			return fmt.Errorf("migrate needs the %q storage driver, config has %q",
				config.StorageDriverPostgres, cfg.Storage.Driver)
		}

		logger := logging.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
		ctx := logging.MakeContextWithLogger(cmd.Context(), logger)

		return postgresql.Migrate(ctx, cfg.Database.DSN())
	},
}
