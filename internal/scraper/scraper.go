package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/pfrederiksen/inovar-agenda/internal/logger"
)

const (
	UserAgent   = "inovar-agenda/1.0 (github.com/pfrederiksen/inovar-agenda)"
	Timeout     = 30 * time.Second
	MaxBodySize = 10 * 1024 * 1024

	utf8ContentType = "text/html; charset=utf-8"
)

// ErrDocumentRead is matched by every *DocumentReadError.
var ErrDocumentRead = errors.New("document could not be read")

// DocumentReadError reports a source that could not be opened or fetched.
type DocumentReadError struct {
	Source string
	Err    error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Source, e.Err)
}

func (e *DocumentReadError) Unwrap() error {
	return e.Err
}

func (e *DocumentReadError) Is(target error) bool {
	return target == ErrDocumentRead
}

// Document is a loaded HTML page.
type Document struct {
	Source string
	// ContentType is empty for files, leaving the encoding to the document's
	// BOM or <meta charset>.
	ContentType string
	Body        []byte
	StatusCode  int
	FetchedAt   time.Time
}

// Scraper loads agenda documents from disk or over HTTP.
type Scraper struct {
	userAgent   string
	timeout     time.Duration
	maxBodySize int
}

// New creates a new Scraper instance
func New() *Scraper {
	return &Scraper{
		userAgent:   UserAgent,
		timeout:     Timeout,
		maxBodySize: MaxBodySize,
	}
}

// WithTimeout returns a copy of s using the given request timeout.
func (s *Scraper) WithTimeout(d time.Duration) *Scraper {
	c := *s
	if d > 0 {
		c.timeout = d
	}
	return &c
}

// IsURL reports whether source should be fetched rather than read from disk.
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load reads source, which is either an http(s) URL or a file path.
func (s *Scraper) Load(ctx context.Context, source string) (*Document, error) {
	if IsURL(source) {
		return s.Fetch(ctx, source)
	}
	return s.ReadFile(source)
}

// ReadFile loads a saved HTML page.
func (s *Scraper) ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DocumentReadError{Source: path, Err: err}
	}

	logger.Debug("Read HTML file", logger.Fields{
		"path":  path,
		"bytes": len(data),
	})

	return &Document{
		Source:    path,
		Body:      data,
		FetchedAt: time.Now(),
	}, nil
}

// Fetch downloads the page at url. Non-2xx responses are errors.
func (s *Scraper) Fetch(ctx context.Context, url string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DocumentReadError{Source: url, Err: err}
	}

	start := time.Now()
	c := s.buildCollector()

	var doc *Document
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		doc = &Document{
			Source:      r.Request.URL.String(),
			ContentType: utf8ContentType,
			Body:        r.Body,
			StatusCode:  r.StatusCode,
			FetchedAt:   time.Now(),
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("unexpected status code: %d", r.StatusCode)
			return
		}
		fetchErr = err
	})

	logger.Info("Fetching agenda page", logger.Fields{"url": url})

	visitErr := c.Visit(url)
	switch {
	case fetchErr != nil:
	case ctx.Err() != nil:
		fetchErr = ctx.Err()
	case visitErr != nil:
		fetchErr = visitErr
	case doc == nil:
		fetchErr = errors.New("no response received")
	}

	logger.RecordTiming("scraper.fetch", time.Since(start))
	if fetchErr != nil {
		logger.IncrCounter("scraper.fetch_errors")
		return nil, &DocumentReadError{Source: url, Err: fetchErr}
	}

	logger.Info("Fetched agenda page", logger.Fields{
		"url":         doc.Source,
		"status_code": doc.StatusCode,
		"bytes":       len(doc.Body),
	})
	return doc, nil
}

// buildCollector creates a synchronous collector that decodes responses to UTF-8.
func (s *Scraper) buildCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.MaxBodySize(s.maxBodySize),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
	)
	c.SetRequestTimeout(s.timeout)
	return c
}
