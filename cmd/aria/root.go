package main

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ariaplayer/aria-core/internal/config"
	"github.com/ariaplayer/aria-core/internal/di"
)

// commandContext lazily loads config and builds the DI container, so
// commands that never touch the library (help, completion) stay cheap.
type commandContext struct {
	overrides config.Overrides

	injector *do.RootScope
}

func (c *commandContext) container() (*do.RootScope, error) {
	if c.injector != nil {
		return c.injector, nil
	}
	cfg, err := config.Load(c.overrides)
	if err != nil {
		return nil, err
	}
	c.injector = di.NewContainer(cfg)
	return c.injector, nil
}

func (c *commandContext) shutdown() {
	if c.injector != nil {
		c.injector.Shutdown() //nolint:errcheck // Best effort on exit
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "aria",
		Short:         "Aria library engine",
		Long:          "Discovers, consolidates, and serves a personal music library.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			ctx.shutdown()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&ctx.overrides.Environment, "env", "", "Environment (development, staging, production)")
	pf.StringVar(&ctx.overrides.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&ctx.overrides.DataPath, "data-path", "", "Database directory")
	pf.StringVar(&ctx.overrides.EnvFile, "env-file", "", "Path to .env file")
	pf.StringVar(&ctx.overrides.ConflictKeys, "conflict-keys", "", "Comma-separated album merge conflict keys")

	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newAlbumsCommand(ctx))
	rootCmd.AddCommand(newTracksCommand(ctx))
	rootCmd.AddCommand(newLogCommand(ctx))
	rootCmd.AddCommand(newActivateCommand(ctx))

	return rootCmd
}
