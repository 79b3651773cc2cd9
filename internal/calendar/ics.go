package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/inovar-agenda/internal/event"
)

const (
	// ContentType is the MIME type of generated calendars.
	ContentType = "text/calendar; charset=utf-8; method=PUBLISH"
	// FileName is the attachment name used for a single invite.
	FileName = "evento.ics"

	// defaultDuration is used when the agenda slot has no end time.
	defaultDuration = 50 * time.Minute
	uidDomain       = "inovar-agenda"
	maxLineOctets   = 75
)

// Invite is one agenda event in calendar form.
type Invite struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// NewInvite builds the invite for an agenda record and its parsed time slot.
// The UID is derived from the slot and event name, so sending the same event
// twice updates one calendar entry instead of adding another.
func NewInvite(r event.Record, slot event.DateTimeRange, cols event.Columns) Invite {
	name := r.GetOr(cols.Event, "N/A")

	end := slot.Start.Add(defaultDuration)
	if slot.HasEnd {
		end = slot.End
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "%s: %s\n", cols.DateTime, r.GetOr(cols.DateTime, "N/A"))
	fmt.Fprintf(&desc, "%s: %s", cols.Professor, r.GetOr(cols.Professor, "N/A"))

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(slot.Key()+"|"+name))

	return Invite{
		UID:         id.String(),
		Summary:     name,
		Description: desc.String(),
		Start:       slot.Start,
		End:         end,
	}
}

// GenerateICS generates an iCalendar (.ics) file for a single invite
func GenerateICS(inv Invite) string {
	var ics strings.Builder
	writeHeader(&ics, "")
	writeEvent(&ics, inv, time.Now())
	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

// GenerateBulkICS generates one calendar holding every invite.
// An empty list yields an empty string.
func GenerateBulkICS(invites []Invite, calendarName string) string {
	if len(invites) == 0 {
		return ""
	}

	var ics strings.Builder
	writeHeader(&ics, calendarName)
	now := time.Now()
	for _, inv := range invites {
		writeEvent(&ics, inv, now)
	}
	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeHeader(ics *strings.Builder, calendarName string) {
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//Inovar Agenda//inovar-agenda//PT\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if calendarName != "" {
		writeLine(ics, "X-WR-CALNAME:"+escapeICS(calendarName))
	}
}

func writeEvent(ics *strings.Builder, inv Invite, stamp time.Time) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	writeLine(ics, fmt.Sprintf("UID:%s@%s", inv.UID, uidDomain))
	writeLine(ics, "DTSTAMP:"+formatICSTime(stamp))
	writeLine(ics, "DTSTART:"+formatICSTime(inv.Start))
	writeLine(ics, "DTEND:"+formatICSTime(inv.End))
	writeLine(ics, "SUMMARY:"+escapeICS(inv.Summary))
	if inv.Description != "" {
		writeLine(ics, "DESCRIPTION:"+escapeICS(inv.Description))
	}
	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("SEQUENCE:0\r\n")

	// Reminder the evening before
	ics.WriteString("BEGIN:VALARM\r\n")
	ics.WriteString("ACTION:DISPLAY\r\n")
	writeLine(ics, "DESCRIPTION:"+escapeICS(inv.Summary))
	ics.WriteString("TRIGGER:-PT12H\r\n")
	ics.WriteString("END:VALARM\r\n")

	ics.WriteString("END:VEVENT\r\n")
}

// writeLine writes a content line folded at 75 octets without splitting
// UTF-8 sequences. Continuation lines start with a space, which counts
// toward their length.
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
