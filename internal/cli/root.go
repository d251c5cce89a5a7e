// Package cli implements the solawi command line: the API server and the
// bookkeeping tasks run next to it.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	// ConfigDir is the directory containing config/{ENV_NAME}.yaml. Empty means the
	// working directory.
	ConfigDir string

	// Logger overrides the production logger. Used by tests.
	Logger *zap.Logger
}

// NewRootCommand creates the root command of the solawi CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solawi",
		Short: "Membership and payment bookkeeping for a solawi",
		Long: `Membership and payment bookkeeping for a solawi (community-supported agriculture).

Serves the JSON API under /api/v1 and provides maintenance tasks for the database.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", opts.ConfigDir, "directory containing config/ (default: working directory)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newUserCommand(opts))
	cmd.AddCommand(newStationCommand(opts))
	cmd.AddCommand(newImportCommand(opts))

	return cmd
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}
