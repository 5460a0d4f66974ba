// Command kangaroo es el servidor de autorización OAuth2.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/kangaroo/internal/config"
)

// Se pisan con -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "kangaroo",
		Short:         "Servidor de autorización OAuth2",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env opcional: sólo falla si se pidió uno explícito
			if err := godotenv.Load(opts.envFile); err != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load env file %s: %w", opts.envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", envOr("KANGAROO_CONFIG", config.DefaultPath), "ruta al config YAML (env KANGAROO_CONFIG)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "archivo .env a cargar antes del config")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kangaroo %s (%s)\n", version, commit)
		},
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
