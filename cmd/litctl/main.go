// Command litctl runs maintenance tasks against the literature database.
package main

import (
	"context"
	"fmt"
	"os"

	"literature-manager/internal/app"
	"literature-manager/internal/config"
	"literature-manager/internal/db"
	"literature-manager/internal/logging"
	"literature-manager/redis"

	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	// application is set by PersistentPreRunE for commands that need storage.
	application *app.App

	// openApp connects to the configured database and cache. Tests replace it.
	openApp = defaultOpenApp

	closeApp = func() {}
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(ExitError)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "litctl",
		Short:         "Maintenance commands for the literature manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["storage"] != "true" {
				return nil
			}
			a, closer, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			application, closeApp = a, closer
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeApp()
		},
	}

	rootCmd.AddCommand(newDuplicatesCmd())
	rootCmd.AddCommand(newRekeyCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportDOICmd())
	rootCmd.AddCommand(newHashPasswordCmd())
	return rootCmd
}

// needsStorage marks a command whose run uses application.
func needsStorage(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations["storage"] = "true"
	return cmd
}

func defaultOpenApp(ctx context.Context) (*app.App, func(), error) {
	config.LoadConfig()
	logging.Setup(config.AppConfig.Environment, config.AppConfig.LogLevel)

	if err := db.ConnectDb(); err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(db.AppDb); err != nil {
		db.CloseDb()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	cache := redis.InitRedis(ctx, config.AppConfig.RedisAddress)

	closer := func() {
		cache.Close()
		db.CloseDb()
	}
	return app.New(config.AppConfig, db.AppDb, cache), closer, nil
}
