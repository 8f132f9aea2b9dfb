// Command workcore runs the project lifecycle API and its operator tooling.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"workcore/internal/config"
	"workcore/internal/core"
	"workcore/pkg/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "workcore",
		Short:         "Project, milestone and task lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file layered under the process environment")

	cmd.AddCommand(newServeCmd(flags), newTokenCmd(flags), newAuditCmd(flags))
	return cmd
}

func (f *rootFlags) load() (config.Config, error) {
	return config.Load(f.configPath, f.envFile)
}

// openStore opens the configured store and returns a release func that
// closes SQL-backed stores.
func openStore(ctx context.Context, cfg config.Config) (domain.PersistentStore, func(), error) {
	store, err := core.OpenPersistentStore(ctx, cfg.Storage, core.NewDefaultRulesEngine())
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	release := func() {
		if c, ok := store.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return store, release, nil
}

func ping(ctx context.Context, store domain.PersistentStore) error {
	return store.View(ctx, func(domain.TransactionView) error { return nil })
}

func syncLogger(logger *zap.Logger) {
	_ = logger.Sync()
}
