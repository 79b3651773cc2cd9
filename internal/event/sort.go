package event

import (
	"sort"
	"time"

	"github.com/pfrederiksen/inovar-agenda/internal/logger"
)

// DefaultDateTimeHeader is the agenda column holding the combined date/time range.
const DefaultDateTimeHeader = "Data/Hora"

// SortKey derives the chronological sort key of a record: the start of its
// date/time field. Records with a missing, empty or unparseable value get the
// zero time so they sort first; unparseable values are logged as warnings.
func SortKey(r Record, field string) time.Time {
	value, ok := r.Get(field)
	if !ok || value == "" {
		return time.Time{}
	}

	rng, err := ParseStart(value, time.UTC)
	if err != nil {
		logger.IncrCounter("dates.fallback")
		logger.Warn("Could not derive date/time, entry sorted first", logger.Fields{
			"field": field,
			"value": value,
			"error": err.Error(),
		})
		return time.Time{}
	}
	return rng.Start
}

// SortByDateTime returns the records in ascending order of their start
// timestamp. Equal keys keep their input order. The input slice is not modified.
func SortByDateTime(records []Record, field string) []Record {
	keys := make([]time.Time, len(records))
	for i, r := range records {
		keys[i] = SortKey(r, field)
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return keys[order[i]].Before(keys[order[j]])
	})

	sorted := make([]Record, len(records))
	for i, idx := range order {
		sorted[i] = records[idx]
	}
	return sorted
}

// SortIfRequested sorts by field only when field was one of the requested
// headers and there is at least one record. Otherwise records are returned
// in their original order.
func SortIfRequested(records []Record, requested []string, field string) []Record {
	if len(records) == 0 || !containsString(requested, field) {
		return records
	}

	sorted := SortByDateTime(records, field)
	logger.Info("Records sorted by date/time (oldest first)", logger.Fields{
		"field":   field,
		"records": len(sorted),
	})
	return sorted
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
