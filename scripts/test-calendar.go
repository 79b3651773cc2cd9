package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/inovar-agenda/internal/calendar"
	"github.com/pfrederiksen/inovar-agenda/internal/event"
)

func main() {
	cols := event.DefaultColumns()

	// Create a sample agenda entry
	start := time.Now().AddDate(0, 0, 3)
	slot := start.Format("02-01-2006") + " (10:05-10:55)"
	r := event.NewRecord(
		event.Field{Name: cols.DateTime, Value: event.Cell(slot)},
		event.Field{Name: cols.Event, Value: event.Cell("Teste de Matemática")},
		event.Field{Name: cols.Professor, Value: event.Cell("Ana Silva")},
	)

	loc, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		loc = time.Local
	}
	rng, err := event.ParseRange(slot, loc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		os.Exit(1)
	}

	// Generate .ics file
	icsContent := calendar.GenerateICS(calendar.NewInvite(r, rng, cols))

	filename := "test-agenda-event.ics"
	if err := os.WriteFile(filename, []byte(icsContent), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated calendar file: %s\n\n", filename)
	fmt.Println("Test it by opening the .ics file with your calendar app.")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(icsContent)
}
