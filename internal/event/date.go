package event

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// KeyLayout is the layout of the normalized "DD-MM-YYYY HH:MM" start key.
const KeyLayout = "02-01-2006 15:04"

var (
	// startPattern finds a DD-MM-YYYY date followed anywhere later by "(HH:MM".
	// Used for sorting, where any trailing end time is ignored.
	startPattern = regexp.MustCompile(`(\d{2}-\d{2}-\d{4}).*\((\d{2}:\d{2})`)

	// rangePattern requires the full "DD-MM-YYYY (HH:MM-HH:MM)" form at the
	// start of the value. Used for upcoming-event selection.
	rangePattern = regexp.MustCompile(`^(\d{2}-\d{2}-\d{4}) \((\d{2}:\d{2})-(\d{2}:\d{2})\)`)
)

var (
	// ErrNoDateTime is returned when a value carries no recognizable date/time.
	ErrNoDateTime = errors.New("no date/time found")
	// ErrInvalidDateTime is returned when the date/time text names an impossible instant.
	ErrInvalidDateTime = errors.New("invalid date/time")
)

// DateParseError describes an agenda value whose date/time could not be derived.
// It is never fatal: callers degrade the record instead of aborting the run.
type DateParseError struct {
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("parsing date/time %q: %v", e.Value, e.Err)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}

// DateTimeRange is the start (and, when known, end) of an agenda slot.
type DateTimeRange struct {
	Start  time.Time
	End    time.Time
	HasEnd bool
}

// Key returns the normalized "DD-MM-YYYY HH:MM" form of the start.
func (r DateTimeRange) Key() string {
	return r.Start.Format(KeyLayout)
}

// Date returns the start's calendar date at midnight in the start's location.
func (r DateTimeRange) Date() time.Time {
	return truncateToDay(r.Start)
}

// ParseStart extracts the start of a combined date/time field using the
// lenient pattern: "14-01-2026 (10:00-10:50)", "Terça 14-01-2026 - (10:00)"
// and similar all yield 14-01-2026 10:00. The end time is ignored.
func ParseStart(value string, loc *time.Location) (DateTimeRange, error) {
	m := startPattern.FindStringSubmatch(value)
	if m == nil {
		return DateTimeRange{}, &DateParseError{Value: value, Err: ErrNoDateTime}
	}

	start, err := parseKey(m[1], m[2], loc)
	if err != nil {
		return DateTimeRange{}, &DateParseError{Value: value, Err: err}
	}
	return DateTimeRange{Start: start}, nil
}

// ParseRange parses the strict "DD-MM-YYYY (HH:MM-HH:MM)" form anchored at
// the start of value. The start must be a valid instant; an end time that
// does not parse leaves HasEnd false.
func ParseRange(value string, loc *time.Location) (DateTimeRange, error) {
	m := rangePattern.FindStringSubmatch(value)
	if m == nil {
		return DateTimeRange{}, &DateParseError{Value: value, Err: ErrNoDateTime}
	}

	start, err := parseKey(m[1], m[2], loc)
	if err != nil {
		return DateTimeRange{}, &DateParseError{Value: value, Err: err}
	}

	rng := DateTimeRange{Start: start}
	if end, err := parseKey(m[1], m[3], loc); err == nil {
		if end.Before(start) {
			// Slot crosses midnight
			end = end.AddDate(0, 0, 1)
		}
		rng.End = end
		rng.HasEnd = true
	}
	return rng, nil
}

func parseKey(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(KeyLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDateTime, err)
	}
	if t.Year() < 1 {
		return time.Time{}, fmt.Errorf("%w: year %04d", ErrInvalidDateTime, t.Year())
	}
	return t, nil
}

// DaysBetween returns the number of calendar days from a's date to b's date,
// ignoring time of day. Both dates are read in a's location.
func DaysBetween(a, b time.Time) int {
	from := truncateToDay(a)
	to := truncateToDay(b.In(a.Location()))
	// Noon-to-noon comparison in UTC keeps DST shifts out of the division.
	fromUTC := time.Date(from.Year(), from.Month(), from.Day(), 12, 0, 0, 0, time.UTC)
	toUTC := time.Date(to.Year(), to.Month(), to.Day(), 12, 0, 0, 0, time.UTC)
	return int(toUTC.Sub(fromUTC).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
