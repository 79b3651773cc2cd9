package event

import (
	"fmt"
	"strings"
	"time"
)

const (
	// NoEventsSubject and NoEventsBody are produced when nothing is upcoming.
	NoEventsSubject = "Agenda: Nenhum evento futuro."
	NoEventsBody    = "Não há testes ou eventos futuros agendados na agenda a partir de agora."

	subjectPrefix = "Próxima Avaliação: "
	missingValue  = "N/A"
)

// Columns names the agenda headers the selector reads.
type Columns struct {
	DateTime  string
	Event     string
	Professor string
}

// DefaultColumns returns the headers used by the Inovar agenda table.
func DefaultColumns() Columns {
	return Columns{
		DateTime:  DefaultDateTimeHeader,
		Event:     "Evento",
		Professor: "Professor",
	}
}

// Selection is the outcome of checking the agenda against a reference time.
type Selection struct {
	Now          time.Time
	FutureEvents []Record
	// Closest is the future record with the earliest start; nil when there is none.
	Closest      *Record
	ClosestRange DateTimeRange
	// Skipped counts records without a parseable date/time range.
	Skipped int

	DaysUntil            int
	IsDayOfEvent         bool
	IsSaturdayWithinWeek bool
	ShouldNotify         bool

	Subject string
	Body    string
}

// Select partitions records into past and future relative to now using the
// default agenda columns with field as the date/time header.
func Select(records []Record, field string, now time.Time) Selection {
	cols := DefaultColumns()
	cols.DateTime = field
	return SelectWithColumns(records, cols, now)
}

// SelectWithColumns finds the upcoming events and decides whether a reminder
// is due. A record is upcoming when its start is at or after now. Reminders
// fire on the day of the closest event, or on a Saturday when the closest
// event falls within the next six days. Dates are compared in now's location.
func SelectWithColumns(records []Record, cols Columns, now time.Time) Selection {
	sel := Selection{Now: now}
	loc := now.Location()

	for _, r := range records {
		value, ok := r.Get(cols.DateTime)
		if !ok || value == "" {
			sel.Skipped++
			continue
		}

		rng, err := ParseRange(value, loc)
		if err != nil {
			sel.Skipped++
			continue
		}

		if rng.Start.Before(now) {
			continue
		}

		sel.FutureEvents = append(sel.FutureEvents, r)
		if sel.Closest == nil || rng.Start.Before(sel.ClosestRange.Start) {
			closest := r
			sel.Closest = &closest
			sel.ClosestRange = rng
		}
	}

	if sel.Closest == nil {
		sel.Subject = NoEventsSubject
		sel.Body = NoEventsBody
		return sel
	}

	sel.DaysUntil = DaysBetween(now, sel.ClosestRange.Start)
	sel.IsDayOfEvent = sel.DaysUntil == 0
	sel.IsSaturdayWithinWeek = now.Weekday() == time.Saturday && sel.DaysUntil >= 1 && sel.DaysUntil <= 6
	sel.ShouldNotify = sel.IsDayOfEvent || sel.IsSaturdayWithinWeek

	sel.Subject = FormatSubject(*sel.Closest, cols)
	sel.Body = FormatBody(*sel.Closest, sel.FutureEvents, cols)
	return sel
}

// FormatSubject builds the reminder subject naming the closest event.
func FormatSubject(closest Record, cols Columns) string {
	return subjectPrefix + headline(closest, cols)
}

// FormatBody builds the reminder body listing every upcoming event.
func FormatBody(closest Record, future []Record, cols Columns) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Prezado(a),\n\nO próximo evento é: %s.\n\n", headline(closest, cols))
	fmt.Fprintf(&b, "Todos os %d eventos futuros agendados são:\n\n", len(future))

	lines := make([]string, len(future))
	for i, r := range future {
		lines[i] = FormatEventLine(r, cols)
	}
	b.WriteString(strings.Join(lines, "\n"))

	b.WriteString("\n\nEsta lista exclui todos os eventos que já ocorreram.")
	return b.String()
}

// FormatEventLine renders one agenda entry as a bullet line.
func FormatEventLine(r Record, cols Columns) string {
	return fmt.Sprintf("- %s: %s (Prof. %s)",
		r.GetOr(cols.DateTime, missingValue),
		r.GetOr(cols.Event, missingValue),
		r.GetOr(cols.Professor, missingValue))
}

func headline(r Record, cols Columns) string {
	return r.GetOr(cols.DateTime, missingValue) + "-" + r.GetOr(cols.Event, missingValue)
}
