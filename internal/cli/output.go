package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"github.com/pfrederiksen/inovar-agenda/internal/calendar"
	"github.com/pfrederiksen/inovar-agenda/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
	FormatICS   OutputFormat = "ics"
)

const calendarName = "Agenda Inovar"

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt    time.Time      `json:"checked_at"`
	Events       []event.Record `json:"events"`
	EventCount   int            `json:"event_count"`
	Next         *event.Record  `json:"next,omitempty"`
	DaysUntil    *int           `json:"days_until,omitempty"`
	ShouldNotify bool           `json:"should_notify"`
	Skipped      int            `json:"skipped,omitempty"`
	ShowAll      bool           `json:"show_all,omitempty"`

	columns  event.Columns
	location *time.Location
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	case FormatTable:
		return writeTable(w, result)
	case FormatICS:
		return writeICS(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult) error {
	label := "upcoming events"
	if result.ShowAll {
		label = "events"
	}

	if result.EventCount == 0 {
		fmt.Fprintf(w, "No %s found.\n", label)
		return nil
	}

	for _, r := range result.Events {
		fmt.Fprintln(w, event.FormatEventLine(r, result.columns))
	}

	if result.Next != nil && result.DaysUntil != nil {
		fmt.Fprintf(w, "\nNext: %s (%s)\n",
			result.Next.GetOr(result.columns.Event, "N/A"), daysLabel(*result.DaysUntil))
		if result.ShouldNotify {
			fmt.Fprintln(w, "A reminder is due today.")
		}
	}
	fmt.Fprintf(w, "\nTotal: %d %s\n", result.EventCount, label)
	return nil
}

// writeTable renders the events with go-pretty
func writeTable(w io.Writer, result *OutputResult) error {
	cols := result.columns

	t := prettytable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(prettytable.StyleLight)
	t.AppendHeader(prettytable.Row{"#", cols.DateTime, cols.Event, cols.Professor})
	for i, r := range result.Events {
		t.AppendRow(prettytable.Row{
			i + 1,
			r.GetOr(cols.DateTime, "N/A"),
			r.GetOr(cols.Event, "N/A"),
			r.GetOr(cols.Professor, "N/A"),
		})
	}
	t.AppendFooter(prettytable.Row{"", "", "Total", result.EventCount})
	t.Render()
	return nil
}

// writeICS exports every event with a parseable time slot as one calendar
func writeICS(w io.Writer, result *OutputResult) error {
	loc := result.location
	if loc == nil {
		loc = time.Local
	}

	invites := make([]calendar.Invite, 0, len(result.Events))
	for _, r := range result.Events {
		value, ok := r.Get(result.columns.DateTime)
		if !ok {
			continue
		}
		slot, err := event.ParseRange(value, loc)
		if err != nil {
			continue
		}
		invites = append(invites, calendar.NewInvite(r, slot, result.columns))
	}

	_, err := io.WriteString(w, calendar.GenerateBulkICS(invites, calendarName))
	return err
}

func daysLabel(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}
