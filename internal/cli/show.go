package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/inovar-agenda/internal/config"
	"github.com/pfrederiksen/inovar-agenda/internal/event"
)

type showOptions struct {
	file   string
	now    string
	format string
	sort   string
	all    bool
}

func newShowCmd(a *app) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the upcoming agenda events",
		Long: `Reads the extracted agenda and lists the events starting at or after the
reference time, as text, JSON, a table or an iCalendar file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow(opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Agenda JSON file (default agenda.json_file in the data directory)")
	cmd.Flags().StringVar(&opts.now, "now", "", "Reference time, RFC 3339 or YYYY-MM-DD HH:MM (default current time)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json, table or ics")
	cmd.Flags().StringVar(&opts.sort, "sort", "date", "Sort order: date, event or professor")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Include past events")

	return cmd
}

func (a *app) runShow(opts *showOptions) error {
	// Validate format
	format := OutputFormat(strings.ToLower(opts.format))
	switch format {
	case FormatText, FormatJSON, FormatTable, FormatICS:
	default:
		return fmt.Errorf("invalid format: %s (must be 'text', 'json', 'table' or 'ics')", opts.format)
	}

	order := SortOrder(strings.ToLower(opts.sort))
	switch order {
	case SortByDate, SortByEvent, SortByProfessor:
	default:
		return fmt.Errorf("invalid sort order: %s (must be 'date', 'event' or 'professor')", opts.sort)
	}

	cfg, err := a.loadConfig(config.SectionAgenda)
	if err != nil {
		return err
	}
	store, err := a.openStorage(cfg)
	if err != nil {
		return err
	}

	file := opts.file
	if file == "" {
		file = cfg.Agenda.JSONFile
	}
	records, err := store.LoadRecords(file)
	if err != nil {
		return fmt.Errorf("loading agenda: %w", err)
	}

	loc, err := cfg.Agenda.Location()
	if err != nil {
		return err
	}
	now, err := a.resolveNow(opts.now, loc)
	if err != nil {
		return err
	}

	cols := cfg.Agenda.Columns()
	sel := event.SelectWithColumns(records, cols, now)

	events := sel.FutureEvents
	if opts.all {
		events = records
	}
	events = append([]event.Record(nil), events...)
	sortRecords(events, order, cols)

	result := &OutputResult{
		CheckedAt:    now,
		Events:       events,
		EventCount:   len(events),
		Next:         sel.Closest,
		ShouldNotify: sel.ShouldNotify,
		Skipped:      sel.Skipped,
		ShowAll:      opts.all,
		columns:      cols,
		location:     loc,
	}
	if sel.Closest != nil {
		days := sel.DaysUntil
		result.DaysUntil = &days
	}

	return WriteOutput(a.stdout, result, format)
}
