// Package cmd defines and implements the CLI commands for the creepy executable.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/creepy/internal/app"
	"github.com/JakeFAU/creepy/internal/config"
	"github.com/JakeFAU/creepy/internal/logging"
	"github.com/JakeFAU/creepy/internal/notify"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the services a crawl command uses.
// This allows us to inject a fake app during tests.
type App interface {
	Close(ctx context.Context) error
	GetLogger() *zap.Logger
	GetPublisher() notify.Publisher
	GetRunID() string
}

// newApp is the application factory. It's a variable so tests can replace
// it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dev        bool
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "creepy",
		Short: "A selector-driven web crawler.",
		Long: `creepy crawls outward from a set of seed URLs, level by level, and
reports every page whose HTML matches a CSS selector. Which links are
followed is decided by blacklist, whitelist and super-blacklist patterns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the crawl config file (TOML)")
	cmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "force development logging")

	cmd.AddCommand(newCrawlCmd(opts))
	cmd.AddCommand(newConfigureCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	logger, logErr := logging.New(false)
	if logErr != nil {
		logger = zap.NewExample()
	}
	logger.Error("Command execution failed", zap.Error(err))
	_ = logger.Sync()
	os.Exit(1)
}
