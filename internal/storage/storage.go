package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pfrederiksen/inovar-agenda/internal/event"
)

// DefaultDataDir is used when no data directory is configured.
const DefaultDataDir = "~/.local/share/inovar-agenda"

// Storage reads and writes files under a data directory
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}

	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// DataDir returns the resolved data directory.
func (s *Storage) DataDir() string {
	return s.dataDir
}

// Path resolves name against the data directory. Absolute paths are returned unchanged.
func (s *Storage) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dataDir, name)
}

// SaveRecords writes records to name as an indented JSON array.
func (s *Storage) SaveRecords(name string, records []event.Record) (string, error) {
	path := s.Path(name)

	var buf bytes.Buffer
	if err := WriteRecords(&buf, records); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing records: %w", err)
	}
	return path, nil
}

// LoadRecords reads a JSON array of records written by SaveRecords.
// A missing file is reported with an error wrapping os.ErrNotExist.
func (s *Storage) LoadRecords(name string) ([]event.Record, error) {
	f, err := os.Open(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("opening records: %w", err)
	}
	defer f.Close()

	return ReadRecords(f)
}

// SavePage sanitizes a captured HTML page and writes it to name.
// Scripts, styles and event handlers are dropped; tables and text are kept.
func (s *Storage) SavePage(name string, page []byte) (string, error) {
	path := s.Path(name)

	if err := os.WriteFile(path, SanitizePage(page), 0644); err != nil {
		return "", fmt.Errorf("writing page: %w", err)
	}
	return path, nil
}

// SanitizePage strips active content from a UTF-8 page. The result declares
// its encoding so later reads do not have to guess it.
func SanitizePage(page []byte) []byte {
	p := bluemonday.UGCPolicy()
	clean := p.SanitizeBytes(page)

	out := make([]byte, 0, len(clean)+32)
	out = append(out, "<meta charset=\"utf-8\">\n"...)
	return append(out, clean...)
}

// WriteRecords encodes records as an indented JSON array without HTML escaping.
// A nil slice is written as an empty array.
func WriteRecords(w io.Writer, records []event.Record) error {
	if records == nil {
		records = []event.Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	return nil
}

// ReadRecords decodes a JSON array of flat objects, keeping each object's key order.
func ReadRecords(r io.Reader) ([]event.Record, error) {
	var records []event.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	if records == nil {
		records = []event.Record{}
	}
	return records, nil
}
