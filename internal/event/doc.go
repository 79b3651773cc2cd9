// Package event models agenda entries scraped from the school portal.
//
// An entry is a Record: an ordered mapping from the requested column headers
// to the cell text found in the schedule table. The package derives start
// timestamps from the combined "Data/Hora" column (e.g. "14-01-2026 (10:00-10:50)"),
// sorts records chronologically and selects the upcoming events that decide
// whether a reminder should be sent.
package event
