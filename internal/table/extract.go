package table

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/pfrederiksen/inovar-agenda/internal/event"
	"github.com/pfrederiksen/inovar-agenda/internal/logger"
)

// HeaderMatch is the header row chosen for extraction.
type HeaderMatch struct {
	// TableIndex is the zero-based position of the table among all tables of the document.
	TableIndex int
	// RowIndex is the zero-based position of the header row among the table's rows.
	RowIndex int
	// Columns maps each required header to its zero-based cell index in the header row.
	Columns map[string]int

	headers []string
	table   *goquery.Selection
	row     *html.Node
}

// Headers returns the required headers in the caller's order.
func (m *HeaderMatch) Headers() []string {
	return append([]string(nil), m.headers...)
}

// Extract parses an HTML document and returns one record per data row of the
// first table whose header row contains every required header. The encoding
// is taken from a BOM or <meta charset>; undeclared input is read as UTF-8
// when it is valid UTF-8.
func Extract(r io.Reader, required []string) ([]event.Record, error) {
	return ExtractContent(r, "", required)
}

// ExtractContent is Extract for a document whose Content-Type is known, such
// as an HTTP response body.
func ExtractContent(r io.Reader, contentType string, required []string) ([]event.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading HTML: %w", err)
	}

	doc, err := parseDocument(data, contentType)
	if err != nil {
		return nil, err
	}
	return ExtractDocument(doc, required)
}

// ExtractString is Extract over an in-memory document.
func ExtractString(document string, required []string) ([]event.Record, error) {
	return Extract(strings.NewReader(document), required)
}

// ExtractDocument extracts records from an already parsed document.
func ExtractDocument(doc *goquery.Document, required []string) ([]event.Record, error) {
	start := time.Now()

	match, err := Find(doc, required)
	if err != nil {
		return nil, err
	}

	records := match.Rows()

	logger.AddCounter("records.extracted", int64(len(records)))
	logger.RecordTiming("table.extract", time.Since(start))
	logger.Debug("Table extracted", logger.Fields{
		"table_index": match.TableIndex,
		"header_row":  match.RowIndex,
		"records":     len(records),
	})

	return records, nil
}

// Find returns the first table and header row, in document order, whose
// cells cover every required header after normalization. Rows inside a
// table's <thead> are tried before the table's other rows.
func Find(doc *goquery.Document, required []string) (*HeaderMatch, error) {
	headers := uniqueHeaders(required)
	if len(headers) == 0 {
		return nil, ErrNoRequiredHeaders
	}

	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, &NoTableFoundError{RequiredHeaders: append([]string(nil), required...)}
	}

	var found []string
	for ti := range tables.Nodes {
		tbl := tables.Eq(ti)
		rows := ownRows(tbl)

		candidates := headerCandidates(tbl, rows)
		for ci, tr := range candidates {
			texts := cellTexts(tr)
			if ci == 0 {
				found = appendFound(found, texts)
			}

			columns, ok := matchRow(texts, headers)
			if !ok {
				continue
			}

			return &HeaderMatch{
				TableIndex: ti,
				RowIndex:   rowIndex(rows, tr.Get(0)),
				Columns:    columns,
				headers:    headers,
				table:      tbl,
				row:        tr.Get(0),
			}, nil
		}
	}

	return nil, &HeaderMismatchError{RequiredHeaders: append([]string(nil), required...), FoundHeaders: found}
}

// Rows converts every row of the matched table other than the header row into
// a record. Rows without cells are skipped. A header whose column is past the
// end of a row yields a null field.
func (m *HeaderMatch) Rows() []event.Record {
	records := make([]event.Record, 0)

	for _, tr := range ownRows(m.table) {
		if tr.Get(0) == m.row {
			continue
		}

		texts := cellTexts(tr)
		if len(texts) == 0 {
			continue
		}

		fields := make([]event.Field, len(m.headers))
		for i, h := range m.headers {
			fields[i] = event.Field{Name: h}
			if idx := m.Columns[h]; idx < len(texts) {
				fields[i].Value = event.Cell(texts[idx])
			}
		}
		records = append(records, event.NewRecord(fields...))
	}

	return records
}

// parseDocument builds the element tree from the decoded input; if goquery
// cannot build a document, the raw bytes are handed to the html5 parser directly.
func parseDocument(data []byte, contentType string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(decodeReader(data, contentType))
	if err == nil {
		return doc, nil
	}
	logger.Warn("Primary HTML parser failed, falling back to the html5 parser", logger.Fields{
		"error": err.Error(),
	})

	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// decodeReader returns data decoded to UTF-8 according to contentType, a BOM
// or a <meta charset>. The sniffer only inspects the first 1024 bytes and
// guesses windows-1252 when they are plain ASCII, so an uncertain
// windows-1252 guess over valid UTF-8 input is read as UTF-8 instead.
func decodeReader(data []byte, contentType string) io.Reader {
	enc, name, certain := charset.DetermineEncoding(data, contentType)
	if !certain && name == "windows-1252" && utf8.Valid(data) {
		return bytes.NewReader(data)
	}

	logger.Debug("Document encoding", logger.Fields{
		"encoding": name,
		"certain":  certain,
	})
	return enc.NewDecoder().Reader(bytes.NewReader(data))
}

// ownRows returns the <tr> elements of tbl that are not inside a nested table.
func ownRows(tbl *goquery.Selection) []*goquery.Selection {
	self := tbl.Get(0)
	var rows []*goquery.Selection
	tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Closest("table").Get(0) == self {
			rows = append(rows, tr)
		}
	})
	return rows
}

// headerCandidates lists the rows to test as header rows: <thead> rows first,
// then every row of the table, each node at most once.
func headerCandidates(tbl *goquery.Selection, rows []*goquery.Selection) []*goquery.Selection {
	seen := make(map[*html.Node]bool, len(rows))
	candidates := make([]*goquery.Selection, 0, len(rows))

	add := func(tr *goquery.Selection) {
		n := tr.Get(0)
		if seen[n] {
			return
		}
		seen[n] = true
		candidates = append(candidates, tr)
	}

	for _, tr := range rows {
		if tr.ParentsFiltered("thead").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Closest("table").Get(0) == tbl.Get(0)
		}).Length() > 0 {
			add(tr)
		}
	}
	for _, tr := range rows {
		add(tr)
	}

	return candidates
}

// cellTexts returns the trimmed text of the row's <th> and <td> cells in order.
func cellTexts(tr *goquery.Selection) []string {
	cells := tr.ChildrenFiltered("th, td")
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(cell.Text()))
	})
	return texts
}

// matchRow maps every required header to the first cell whose normalized
// text equals the header's normalized form.
func matchRow(texts []string, required []string) (map[string]int, bool) {
	index := make(map[string]int, len(texts))
	for i, text := range texts {
		key := Normalize(text)
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	columns := make(map[string]int, len(required))
	for _, h := range required {
		idx, ok := index[Normalize(h)]
		if !ok {
			return nil, false
		}
		columns[h] = idx
	}
	return columns, true
}

func rowIndex(rows []*goquery.Selection, n *html.Node) int {
	for i, tr := range rows {
		if tr.Get(0) == n {
			return i
		}
	}
	return -1
}

// uniqueHeaders drops exact duplicates, keeping first occurrences.
func uniqueHeaders(required []string) []string {
	seen := make(map[string]bool, len(required))
	out := make([]string, 0, len(required))
	for _, h := range required {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func appendFound(found []string, texts []string) []string {
	for _, t := range texts {
		if t == "" {
			continue
		}
		dup := false
		for _, f := range found {
			if f == t {
				dup = true
				break
			}
		}
		if !dup {
			found = append(found, t)
		}
	}
	return found
}
