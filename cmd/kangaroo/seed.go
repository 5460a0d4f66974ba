package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/kangaroo/internal/bootstrap"
	"github.com/dropDatabas3/kangaroo/internal/config"
	"github.com/dropDatabas3/kangaroo/internal/observability/logger"
	"github.com/dropDatabas3/kangaroo/internal/security/password"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var path string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Carga applications, clients y usuarios desde un YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if path != "" {
				cfg.Seed.Path = path
			}
			if cfg.Seed.Path == "" {
				return fmt.Errorf("seed: no path (use --file or seed.path)")
			}

			if dryRun {
				seed, err := bootstrap.Load(cfg.Seed.Path)
				if err != nil {
					return err
				}
				if err := seed.Validate(seedOptions(cfg)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seed %s is valid (%d applications)\n", cfg.Seed.Path, len(seed.Applications))
				return nil
			}

			dal, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer dal.Close()
			return applySeed(cmd.Context(), dal, cfg)
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "seed YAML (default seed.path)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "sólo valida el archivo")
	return cmd
}

func seedOptions(cfg *config.Config) bootstrap.Options {
	opts := bootstrap.Options{Authenticators: cfg.OAuth.Authenticators}
	if cfg.IsProd() {
		policy := password.DefaultPolicy
		opts.Policy = &policy
	}
	return opts
}
