package main

import (
	"errors"
	"fmt"

	"github.com/itchan-dev/imagestore/shared/config"
	"github.com/itchan-dev/imagestore/shared/logger"
	sharedpg "github.com/itchan-dev/imagestore/shared/storage/pg"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Creates the image table in the configured Postgres database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustLoad(configFolder)
		logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

		if cfg.Public.RecordStore != config.RecordStorePostgres {
			return errors.New("migrate only applies to the postgres record store")
		}

		ctx := cmd.Context()
		db, err := sharedpg.Connect(ctx, cfg.Private.Pg, sharedpg.LightweightConnectionConfig())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := sharedpg.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Log.Info("migrations applied", "dbname", cfg.Private.Pg.Dbname)
		return nil
	},
}
