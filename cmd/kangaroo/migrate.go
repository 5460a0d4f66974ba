package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/store"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el esquema SQL embebido",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			dal, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer dal.Close()
			return runMigrations(cmd.Context(), dal)
		},
	}
}

func runMigrations(ctx context.Context, dal store.DataAccessLayer) error {
	log := logger.L().With(logger.Component("migrate"))
	m, ok := dal.(store.MigratableConnection)
	if !ok {
		log.Info("storage has no schema, nothing to migrate", logger.String("driver", dal.Name()))
		return nil
	}
	res, err := m.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migrations done",
		logger.Any("applied", res.Applied),
		logger.Int("skipped", len(res.Skipped)),
		logger.String("duration", res.Duration.String()),
	)
	return nil
}
