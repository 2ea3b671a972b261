package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/creepy/internal/config"
	"github.com/JakeFAU/creepy/internal/crawler"
	"github.com/JakeFAU/creepy/internal/logging"
	"github.com/JakeFAU/creepy/internal/report"
)

const shutdownTimeout = 10 * time.Second

// crawlRun carries what PreRunE prepared for RunE.
type crawlRun struct {
	cfg     config.Config
	crawler crawler.Config
}

type crawlRunKeyType string

const crawlRunKey crawlRunKeyType = "crawl-run"

// newCrawlCmd creates and configures the 'crawl' subcommand.
// The config file may be given as the only argument or with --config.
func newCrawlCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "crawl [CONFIG]",
		Aliases: []string{"crawly"},
		Short:   "Crawls from the configured seeds and reports matching pages",
		Long: `Loads the config file, validates every pattern and selector, then
crawls outward from the seed domains level by level. Pages matching
match_criteria are written to output.path (hits.txt by default).`,
		Args: cobra.MaximumNArgs(1),

		// Config, selectors and services are validated before any request.
		PreRunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no config file: pass it as an argument or with --config")
			}

			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			crawlCfg, err := cfg.CrawlerConfig()
			if err != nil {
				return fmt.Errorf("compile config: %w", err)
			}

			logger, err := logging.New(cfg.Logging.Development || opts.dev)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize crawl services: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			ctx = context.WithValue(ctx, crawlRunKey, &crawlRun{cfg: cfg, crawler: crawlCfg})
			cmd.SetContext(ctx)
			return nil
		},
		RunE: runCrawlCommand,
	}
	return cmd
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	run, ok := cmd.Context().Value(crawlRunKey).(*crawlRun)
	if !ok {
		return errors.New("crawl configuration not initialized")
	}
	logger := appInstance.GetLogger()
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
		defer cancel()
		if cerr := appInstance.Close(ctx); cerr != nil {
			logger.Warn("Failed to close crawl services", zap.Error(cerr))
		}
	}()

	engine, err := buildCrawlerEngine(run.crawler, appInstance)
	if err != nil {
		return err
	}

	result, runErr := engine.Run(cmd.Context())
	switch {
	case runErr == nil:
		logger.Info("Crawl finished",
			zap.Int("hits", len(result.Hits)),
			zap.Int("misses", len(result.Misses)),
			zap.Int("visited", result.Visited),
			zap.Int("levels", result.Levels),
		)
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		logger.Warn("Crawl interrupted; reporting partial results", zap.Error(runErr), zap.Int("hits", len(result.Hits)))
	default:
		return fmt.Errorf("run crawler: %w", runErr)
	}

	// Reports are written even when the crawl was interrupted.
	writeCtx := context.WithoutCancel(cmd.Context())
	out := cmd.OutOrStdout()
	if err := writeReport(writeCtx, out, "hits", run.cfg.Output.Path, result.Hits, logger); err != nil {
		return err
	}
	if run.cfg.Output.MissesPath != "" {
		if err := writeReport(writeCtx, out, "misses", run.cfg.Output.MissesPath, result.Misses, logger); err != nil {
			return err
		}
	}
	return nil
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func buildCrawlerEngine(cfg crawler.Config, appInstance App) (*crawler.Engine, error) {
	logger := appInstance.GetLogger()
	publisher := appInstance.GetPublisher()
	runID := appInstance.GetRunID()

	fetcher := crawler.NewCollyFetcher(cfg, logger)
	engine, err := crawler.NewEngine(cfg, fetcher, logger, crawler.WithHitHandler(func(ctx context.Context, rawURL string) {
		if err := publisher.PublishHit(ctx, runID, rawURL); err != nil {
			logger.Warn("Failed to publish hit", zap.String("url", rawURL), zap.Error(err))
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("init crawler: %w", err)
	}
	return engine, nil
}

// writeReport stores lines at path. A local file that cannot be written is
// dumped to out instead, which is not an error.
func writeReport(ctx context.Context, out io.Writer, kind, path string, lines []string, logger *zap.Logger) error {
	r, err := report.Open(ctx, path, out, logger)
	if err != nil {
		return fmt.Errorf("open report %s: %w", path, err)
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			logger.Warn("Failed to close report", zap.String("path", path), zap.Error(cerr))
		}
	}()

	err = r.Write(ctx, lines)
	switch {
	case errors.Is(err, report.ErrFellBack):
		return nil
	case err != nil:
		return fmt.Errorf("write report %s: %w", path, err)
	case path == report.Stdout:
		return nil
	}
	if _, err := fmt.Fprintf(out, "Done. Exported %s to %s\n", kind, path); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
