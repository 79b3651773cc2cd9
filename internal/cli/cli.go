package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/inovar-agenda/internal/config"
	"github.com/pfrederiksen/inovar-agenda/internal/logger"
	"github.com/pfrederiksen/inovar-agenda/internal/notifier"
	"github.com/pfrederiksen/inovar-agenda/internal/portal"
	"github.com/pfrederiksen/inovar-agenda/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// AgendaFetcher captures the rendered agenda page.
type AgendaFetcher interface {
	FetchAgenda(ctx context.Context) ([]byte, error)
}

// deps are the collaborators a command run uses. Tests replace them.
type deps struct {
	stdout      io.Writer
	stderr      io.Writer
	now         func() time.Time
	newFetcher  func(cfg config.PortalConfig, screenshotPath string) (AgendaFetcher, error)
	newNotifier func(cfg config.MailConfig) (notifier.Notifier, error)
}

func defaultDeps(stdout, stderr io.Writer) *deps {
	return &deps{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
		newFetcher: func(cfg config.PortalConfig, screenshotPath string) (AgendaFetcher, error) {
			s, err := portal.NewSession(portal.OptionsFromConfig(cfg, screenshotPath))
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		newNotifier: func(cfg config.MailConfig) (notifier.Notifier, error) {
			n, err := notifier.NewSMTPNotifier(cfg)
			if err != nil {
				return nil, err
			}
			return n, nil
		},
	}
}

// app carries the global flags and collaborators into every subcommand
type app struct {
	*deps

	configPath string
	logLevel   string
	verbose    bool
	dataDir    string
}

// exitError carries a specific exit code. When reported is set the command
// has already written its error output.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultDeps(os.Stdout, os.Stderr))
}

func newRootCmd(d *deps) *cobra.Command {
	a := &app{deps: d}

	cmd := &cobra.Command{
		Use:   "inovar-agenda",
		Short: "Extract the Inovar school agenda and mail reminders for upcoming tests",
		Long: `A CLI tool that captures the agenda of the Inovar school portal, extracts
its events table to JSON and mails a reminder on the day of the next event,
or on Saturdays when the next event falls within the coming week.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setupLogging,
	}

	cmd.SetOut(d.stdout)
	cmd.SetErr(d.stderr)

	// Define flags
	cmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "Path to the YAML configuration file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable verbose logging (same as --log-level debug)")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Data directory for pages and records (overrides agenda.data_dir)")

	cmd.AddCommand(
		newExtractCmd(a),
		newFetchCmd(a),
		newNotifyCmd(a),
		newShowCmd(a),
		newRunCmd(a),
	)

	return cmd
}

// setupLogging installs the default logger for this invocation
func (a *app) setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logger.ParseLevel(a.logLevel)
	if err != nil {
		return err
	}
	if a.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, a.stderr))
	return nil
}

// loadConfig reads the configuration, applies flag overrides and validates
// the sections the command needs.
func (a *app) loadConfig(sections ...config.Section) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.dataDir != "" {
		cfg.Agenda.DataDir = a.dataDir
	}
	if err := cfg.Validate(sections...); err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded", logger.Fields{
		"path":     a.configPath,
		"data_dir": cfg.Agenda.DataDir,
		"sections": sections,
	})
	return cfg, nil
}

func (a *app) openStorage(cfg *config.Config) (*storage.Storage, error) {
	store, err := storage.New(cfg.Agenda.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// resolveNow returns the reference time in loc: the --now flag when given,
// otherwise the current time.
func (a *app) resolveNow(flag string, loc *time.Location) (time.Time, error) {
	if flag == "" {
		return a.now().In(loc), nil
	}
	return parseNow(flag, loc)
}

var nowLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"02-01-2006 15:04",
}

// parseNow accepts RFC 3339 or a local date/time without zone.
func parseNow(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range nowLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --now value %q (use RFC 3339 or YYYY-MM-DD HH:MM)", value)
}

// Run executes the CLI with args and returns the process exit code
func Run(args []string, stdout, stderr io.Writer) int {
	return run(defaultDeps(stdout, stderr), args)
}

func run(d *deps, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(d)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if !exitErr.reported {
			fmt.Fprintf(d.stderr, "Error: %v\n", exitErr.err)
		}
		return exitErr.code
	}

	fmt.Fprintf(d.stderr, "Error: %v\n", err)
	return ExitError
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}
