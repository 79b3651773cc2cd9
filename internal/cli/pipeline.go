package cli

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/inovar-agenda/internal/config"
	"github.com/pfrederiksen/inovar-agenda/internal/event"
	"github.com/pfrederiksen/inovar-agenda/internal/logger"
	"github.com/pfrederiksen/inovar-agenda/internal/portal"
	"github.com/pfrederiksen/inovar-agenda/internal/scraper"
	"github.com/pfrederiksen/inovar-agenda/internal/storage"
	"github.com/pfrederiksen/inovar-agenda/internal/table"
)

type fetchOptions struct {
	output string
}

func newFetchCmd(a *app) *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Log in to the portal and save the rendered agenda page",
		Long: `Drives a headless Chrome session through the portal login, opens the agenda
and saves the rendered page in the data directory. On failure a screenshot
of the browser is saved next to it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(config.SectionPortal, config.SectionAgenda)
			if err != nil {
				return err
			}
			store, err := a.openStorage(cfg)
			if err != nil {
				return err
			}

			name := opts.output
			if name == "" {
				name = cfg.Agenda.HTMLFile
			}
			path, err := a.fetchPage(cmd.Context(), cfg, store, name)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "File name for the saved page (default agenda.html_file)")

	return cmd
}

// fetchPage captures the agenda page and stores it as name
func (a *app) fetchPage(ctx context.Context, cfg *config.Config, store *storage.Storage, name string) (string, error) {
	start := time.Now()

	fetcher, err := a.newFetcher(cfg.Portal, store.Path(portal.ScreenshotFile))
	if err != nil {
		return "", err
	}

	page, err := fetcher.FetchAgenda(ctx)
	if err != nil {
		return "", err
	}

	path, err := store.SavePage(name, page)
	if err != nil {
		return "", err
	}

	logger.RecordTiming("portal.fetch", time.Since(start))
	logger.Info("Agenda page saved", logger.Fields{
		"path":  path,
		"bytes": len(page),
	})
	return path, nil
}

type runOptions struct {
	now       string
	dryRun    bool
	force     bool
	skipFetch bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, extract, sort and notify in one go",
		Long: `Runs the whole pipeline: captures the agenda page from the portal, extracts
the configured headers, sorts the events chronologically, saves them as JSON
and mails the reminder when one is due.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPipeline(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.now, "now", "", "Reference time, RFC 3339 or YYYY-MM-DD HH:MM (default current time)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the email instead of sending it")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Send even when no reminder is due")
	cmd.Flags().BoolVar(&opts.skipFetch, "skip-fetch", false, "Use the previously saved page instead of logging in")

	return cmd
}

func (a *app) runPipeline(ctx context.Context, opts *runOptions) error {
	runID := uuid.NewString()
	start := time.Now()

	logger.ResetMetrics()
	previous := logger.Default()
	logger.SetDefault(previous.With(logger.Fields{"run_id": runID}))
	defer logger.SetDefault(previous)

	sections := notifySections(opts.dryRun)
	if !opts.skipFetch {
		sections = append(sections, config.SectionPortal)
	}
	cfg, err := a.loadConfig(sections...)
	if err != nil {
		return err
	}
	store, err := a.openStorage(cfg)
	if err != nil {
		return err
	}

	logger.Info("Pipeline started", logger.Fields{
		"skip_fetch": opts.skipFetch,
		"dry_run":    opts.dryRun,
	})

	if !opts.skipFetch {
		if _, err := a.fetchPage(ctx, cfg, store, cfg.Agenda.HTMLFile); err != nil {
			return err
		}
	}

	doc, err := scraper.New().ReadFile(store.Path(cfg.Agenda.HTMLFile))
	if err != nil {
		return err
	}

	records, err := table.ExtractContent(bytes.NewReader(doc.Body), doc.ContentType, cfg.Agenda.Headers)
	if err != nil {
		return fmt.Errorf("extracting agenda: %w", err)
	}
	records = event.SortIfRequested(records, cfg.Agenda.Headers, cfg.Agenda.DateTimeHeader)

	path, err := store.SaveRecords(cfg.Agenda.JSONFile, records)
	if err != nil {
		return err
	}
	logger.Info("Agenda saved", logger.Fields{
		"path":    path,
		"records": len(records),
	})

	err = a.notify(ctx, cfg, records, &notifyOptions{
		now:    opts.now,
		dryRun: opts.dryRun,
		force:  opts.force,
	})
	if err != nil {
		return err
	}

	logger.RecordTiming("pipeline.run", time.Since(start))
	if logger.Default().Enabled(logger.LevelDebug) {
		logger.Debug("Run metrics", logger.Fields{
			"metrics": logger.GetMetricsSnapshot(),
		})
	}
	return nil
}
