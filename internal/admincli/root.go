// Package admincli implements gardenadmin, the operator tool that applies
// database migrations and provisions admin accounts out of band.
package admincli

import (
	"context"
	"fmt"
	"os"

	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/mygardenbook/gardenbook/internal/server"
	"github.com/mygardenbook/gardenbook/internal/server/config"
	"github.com/spf13/cobra"
)

// openStorage is a test seam for server.OpenStorage.
var openStorage = server.OpenStorage

type rootOptions struct {
	configPath string
	envPath    string
}

func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.LoadFiles(o.configPath, o.envPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewJSONLogger(cmd.ErrOrStderr(), cfg.LogLevel), nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "gardenadmin",
		Short: "Operator tool for the MyGardenBook catalog backend",
		Long: `gardenadmin talks to the catalog database directly.

Configuration is read the same way as the server: defaults, then the JSON
file given by --config, then the environment (seeded from --env-file or ./.env).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "JSON config file")
	cmd.PersistentFlags().StringVar(&opts.envPath, "env-file", "", "dotenv file to load before reading the environment")

	cmd.AddCommand(newMigrateCmd(opts), newCreateAdminCmd(opts))
	return cmd
}

// Execute is the entry point called from main.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
