package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/inovar-agenda/internal/event"
	"github.com/pfrederiksen/inovar-agenda/internal/logger"
	"github.com/pfrederiksen/inovar-agenda/internal/scraper"
	"github.com/pfrederiksen/inovar-agenda/internal/storage"
	"github.com/pfrederiksen/inovar-agenda/internal/table"
)

type extractOptions struct {
	output    string
	sortField string
	noSort    bool
}

// errorOutput is printed on stdout when extraction fails
type errorOutput struct {
	Error           string   `json:"error"`
	RequiredHeaders []string `json:"required_headers,omitempty"`
	FoundHeaders    []string `json:"found_headers,omitempty"`
}

func newExtractCmd(a *app) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <html_file|url> <header> [header...]",
		Short: "Extract the first table carrying the given headers as JSON",
		Long: `Parses an HTML page (a saved file or an http(s) URL), finds the first table
whose header row contains every given header (case and whitespace are ignored)
and prints one JSON object per data row, keyed by the headers as given.

When the date/time header is among the headers, rows are sorted by their
start time, oldest first. On failure a JSON error object is printed instead
and the exit code is 1.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd.Context(), opts, args[0], args[1:])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the JSON to this file instead of stdout")
	cmd.Flags().StringVar(&opts.sortField, "sort-field", event.DefaultDateTimeHeader, "Header holding the date/time used for sorting")
	cmd.Flags().BoolVar(&opts.noSort, "no-sort", false, "Keep rows in document order")

	return cmd
}

func (a *app) runExtract(ctx context.Context, opts *extractOptions, source string, headers []string) error {
	records, err := extractRecords(ctx, source, headers)
	if err != nil {
		return a.reportExtractError(err, headers)
	}

	if !opts.noSort {
		records = event.SortIfRequested(records, headers, opts.sortField)
	}

	if opts.output == "" {
		return storage.WriteRecords(a.stdout, records)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := storage.WriteRecords(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}

	logger.Info("Records written", logger.Fields{
		"path":    opts.output,
		"records": len(records),
	})
	return nil
}

// extractRecords loads source and extracts the table carrying headers
func extractRecords(ctx context.Context, source string, headers []string) ([]event.Record, error) {
	doc, err := scraper.New().Load(ctx, source)
	if err != nil {
		return nil, err
	}
	return table.ExtractContent(bytes.NewReader(doc.Body), doc.ContentType, headers)
}

// reportExtractError prints the structured error object on stdout
func (a *app) reportExtractError(err error, headers []string) error {
	out := errorOutput{Error: err.Error()}

	var mismatch *table.HeaderMismatchError
	var noTable *table.NoTableFoundError
	switch {
	case errors.As(err, &mismatch):
		out.RequiredHeaders = mismatch.RequiredHeaders
		out.FoundHeaders = mismatch.FoundHeaders
	case errors.As(err, &noTable):
		out.RequiredHeaders = noTable.RequiredHeaders
	case errors.Is(err, table.ErrNoRequiredHeaders):
	default:
		out.RequiredHeaders = headers
	}

	logger.Error("Extraction failed", logger.Fields{"required_headers": headers}, err)

	enc := json.NewEncoder(a.stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		return &exitError{code: ExitError, err: err}
	}
	return &exitError{code: ExitError, err: err, reported: true}
}
