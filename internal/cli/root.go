package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/watchthis/user-service/internal/config"
	"github.com/watchthis/user-service/internal/entrypoint"
)

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "user-service",
		Short:         "WatchThis user identity service",
		Long:          `Creates accounts and authenticates users with browser sessions or JWT bearer tokens for the WatchThis services.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(version)
		},
	}

	root.AddCommand(newServeCommand(version))
	root.AddCommand(newUserCommand())
	return root
}

func newServeCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(version)
		},
	}
}

func serve(version string) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	return entrypoint.Run(cfg, version)
}

// Execute runs the CLI and exits non-zero on failure.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
