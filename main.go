package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/bassamadnan/maildoc/auth"
	"github.com/bassamadnan/maildoc/calendar"
	"github.com/bassamadnan/maildoc/config"
	"github.com/bassamadnan/maildoc/document"
	"github.com/bassamadnan/maildoc/gmail"
	"github.com/bassamadnan/maildoc/pipeline"
	"github.com/bassamadnan/maildoc/report"
	"github.com/bassamadnan/maildoc/tui"
)

// browseLogFile keeps log output off the terminal while the browser runs.
const browseLogFile = "maildoc.log"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "maildoc",
		Short: "Archive Gmail messages to a Word document and create calendar events from them",
		Long: "maildoc searches Gmail, prints the visible text of every matching message, " +
			"writes the texts to a dated .docx file and creates Google Calendar events from " +
			"labeled fields such as Summary: \"...\" found in the messages.",
		SilenceUsage: true,
		RunE:         runBatch,
	}
	config.RegisterFlags(rootCmd)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Search, print, archive and create events (default)",
			RunE:  runBatch,
		},
		&cobra.Command{
			Use:   "browse",
			Short: "Search and browse the decoded messages in the terminal",
			RunE:  runBrowse,
		},
		newFiltersCmd(),
	)
	return rootCmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	logger, cleanup, err := setupLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		_ = cleanup()
	}()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := queryFrom(cfg)
	logger.Info("starting maildoc", "query", q.Display(), "maxResults", q.Limit(),
		"document", cfg.WritesDocument(), "events", cfg.CreatesEvents(), "dryRun", cfg.DryRun)

	filters, err := loadFilters(cfg)
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Processor:    pipeline.NewProcessor(cfg.Workers, asFilter(filters), logger),
		Printer:      report.NewPrinter(cmd.OutOrStdout()),
		StrictEvents: cfg.StrictEvents,
		Logger:       logger,
	}
	if cfg.WritesDocument() {
		docs := document.NewWriter(cfg.Directory, cfg.DocPrefix, logger)
		// Checked before authorizing so a bad directory fails fast.
		if err := docs.ValidateDir(); err != nil {
			return err
		}
		runner.Documents = docs
	}

	opts, err := authorize(ctx, cfg, logger)
	if err != nil {
		return err
	}
	client, err := newGmailClient(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	runner.Searcher = client

	if cfg.CreatesEvents() {
		sink, err := calendar.NewSink(ctx, cfg.CalendarID, logger, opts...)
		if err != nil {
			return err
		}
		runner.Events = sink
	}

	if _, err := runner.Run(ctx, q); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd)
	if err != nil {
		return err
	}
	if cfg.LogFile == "" {
		cfg.LogFile = browseLogFile
	}
	logger, cleanup, err := setupLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer func() {
		_ = cleanup()
	}()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filters, err := loadFilters(cfg)
	if err != nil {
		return err
	}
	opts, err := authorize(ctx, cfg, logger)
	if err != nil {
		return err
	}
	client, err := newGmailClient(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	processor := pipeline.NewProcessor(cfg.Workers, asFilter(filters), logger)

	q := queryFrom(cfg)
	results := make(chan pipeline.Result)
	app := tui.NewApp(filters, q.Display(), results, logger)

	go func() {
		defer close(results)
		res, err := client.Search(ctx, q)
		if err != nil {
			logger.Error("search failed", "err", err)
			app.Fail(err)
			return
		}
		processed, err := processor.Process(ctx, res.Messages)
		if err != nil {
			app.Fail(err)
			return
		}
		for _, r := range processed {
			select {
			case results <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		app.Stop()
	}()

	logger.Info("browser starting", "query", q.Display())
	if err := app.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	stop()
	logger.Info("browser stopped")
	return nil
}

func queryFrom(cfg config.Config) gmail.Query {
	return gmail.Query{
		From:       cfg.From,
		Label:      cfg.Label,
		Subject:    cfg.Subject,
		Body:       cfg.Body,
		MaxResults: cfg.MaxResults,
	}
}

// loadFilters returns nil when no filter file is configured.
func loadFilters(cfg config.Config) (*config.Manager, error) {
	if cfg.FiltersFile == "" {
		return nil, nil
	}
	m, err := config.NewManager(cfg.FiltersFile)
	if err != nil {
		return nil, fmt.Errorf("loading filters: %w", err)
	}
	return m, nil
}

func asFilter(m *config.Manager) pipeline.Filter {
	if m == nil {
		return nil
	}
	return m
}

// authorize returns client options carrying the authorized HTTP client
// shared by the Gmail and Calendar services.
func authorize(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]option.ClientOption, error) {
	var store auth.TokenStore
	switch cfg.TokenStore {
	case config.TokenStoreKeyring:
		ks, err := auth.OpenKeyring(cfg.KeyringDir)
		if err != nil {
			return nil, err
		}
		store = ks
	default:
		store = auth.FileStore{Path: cfg.TokenFile}
	}

	session, err := auth.NewSession(cfg.Credentials, store, logger)
	if err != nil {
		return nil, err
	}
	httpClient, err := session.HTTPClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorizing: %w", err)
	}
	return []option.ClientOption{option.WithHTTPClient(httpClient)}, nil
}

func newGmailClient(ctx context.Context, cfg config.Config, logger *slog.Logger, opts []option.ClientOption) (*gmail.Client, error) {
	client, err := gmail.NewClient(ctx, logger, opts...)
	if err != nil {
		return nil, err
	}
	client.SetFetchLimit(cfg.Workers)
	return client, nil
}

// setupLogger logs to the configured file, or to fallback when none is set.
func setupLogger(cfg config.Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
		if err != nil {
			return nil, cleanup, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = file.Close
		return slog.New(slog.NewTextHandler(file, opts)), cleanup, nil
	}

	return slog.New(slog.NewTextHandler(fallback, opts)), cleanup, nil
}
