package cli

import (
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/inovar-agenda/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate      SortOrder = "date"
	SortByEvent     SortOrder = "event"
	SortByProfessor SortOrder = "professor"
)

// sortRecords orders records in place; ties keep their current order
func sortRecords(records []event.Record, order SortOrder, cols event.Columns) {
	keys := make([]time.Time, len(records))
	for i, r := range records {
		keys[i] = event.SortKey(r, cols.DateTime)
	}

	// Sort an index so the precomputed keys follow their records
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}

	byText := func(name string) func(i, j int) bool {
		return func(i, j int) bool {
			a := strings.ToLower(records[idx[i]].GetOr(name, ""))
			b := strings.ToLower(records[idx[j]].GetOr(name, ""))
			if a != b {
				return a < b
			}
			// If names are equal, sort by date
			return keys[idx[i]].Before(keys[idx[j]])
		}
	}

	switch order {
	case SortByEvent:
		sort.SliceStable(idx, byText(cols.Event))
	case SortByProfessor:
		sort.SliceStable(idx, byText(cols.Professor))
	default:
		sort.SliceStable(idx, func(i, j int) bool {
			return keys[idx[i]].Before(keys[idx[j]])
		})
	}

	sorted := make([]event.Record, len(records))
	for i, k := range idx {
		sorted[i] = records[k]
	}
	copy(records, sorted)
}
