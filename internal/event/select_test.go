package event

import (
	"strings"
	"testing"
	"time"
)

func fullRecord(dateHora, evento, professor string) Record {
	return NewRecord(
		Field{Name: "Data/Hora", Value: Cell(dateHora)},
		Field{Name: "Evento", Value: Cell(evento)},
		Field{Name: "Professor", Value: Cell(professor)},
	)
}

func TestSelect_InclusiveBoundary(t *testing.T) {
	records := []Record{fullRecord("15-06-2024 (10:00-10:50)", "Teste", "Ana")}
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	sel := Select(records, "Data/Hora", now)

	if len(sel.FutureEvents) != 1 {
		t.Fatalf("FutureEvents = %d, want 1", len(sel.FutureEvents))
	}
	if sel.Closest == nil {
		t.Fatal("Closest = nil")
	}
	if !sel.IsDayOfEvent || !sel.ShouldNotify {
		t.Errorf("IsDayOfEvent = %v, ShouldNotify = %v, want both true", sel.IsDayOfEvent, sel.ShouldNotify)
	}

	sel = Select(records, "Data/Hora", now.Add(time.Minute))
	if len(sel.FutureEvents) != 0 {
		t.Errorf("event one minute in the past counted as future")
	}
}

func TestSelect_Gating(t *testing.T) {
	tests := []struct {
		name           string
		now            time.Time
		dateHora       string
		wantDays       int
		wantDayOf      bool
		wantSaturday   bool
		wantShouldSend bool
	}{
		{
			name:           "saturday with event 4 days ahead",
			now:            time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC),
			dateHora:       "12-06-2024 (09:00-09:50)",
			wantDays:       4,
			wantSaturday:   true,
			wantShouldSend: true,
		},
		{
			name:     "saturday with event 12 days ahead",
			now:      time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC),
			dateHora: "20-06-2024 (09:00-09:50)",
			wantDays: 12,
		},
		{
			name:           "saturday with event 6 days ahead",
			now:            time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC),
			dateHora:       "14-06-2024 (09:00-09:50)",
			wantDays:       6,
			wantSaturday:   true,
			wantShouldSend: true,
		},
		{
			name:     "saturday with event 7 days ahead",
			now:      time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC),
			dateHora: "15-06-2024 (09:00-09:50)",
			wantDays: 7,
		},
		{
			name:           "saturday with event later the same day",
			now:            time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC),
			dateHora:       "08-06-2024 (18:00-18:50)",
			wantDays:       0,
			wantDayOf:      true,
			wantShouldSend: true,
		},
		{
			name:           "wednesday day of event",
			now:            time.Date(2024, 6, 12, 7, 30, 0, 0, time.UTC),
			dateHora:       "12-06-2024 (09:00-09:50)",
			wantDays:       0,
			wantDayOf:      true,
			wantShouldSend: true,
		},
		{
			name:     "wednesday with event tomorrow",
			now:      time.Date(2024, 6, 12, 7, 30, 0, 0, time.UTC),
			dateHora: "13-06-2024 (09:00-09:50)",
			wantDays: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Select([]Record{fullRecord(tt.dateHora, "Teste", "Ana")}, "Data/Hora", tt.now)

			if sel.Closest == nil {
				t.Fatal("Closest = nil")
			}
			if sel.DaysUntil != tt.wantDays {
				t.Errorf("DaysUntil = %d, want %d", sel.DaysUntil, tt.wantDays)
			}
			if sel.IsDayOfEvent != tt.wantDayOf {
				t.Errorf("IsDayOfEvent = %v, want %v", sel.IsDayOfEvent, tt.wantDayOf)
			}
			if sel.IsSaturdayWithinWeek != tt.wantSaturday {
				t.Errorf("IsSaturdayWithinWeek = %v, want %v", sel.IsSaturdayWithinWeek, tt.wantSaturday)
			}
			if sel.ShouldNotify != tt.wantShouldSend {
				t.Errorf("ShouldNotify = %v, want %v", sel.ShouldNotify, tt.wantShouldSend)
			}
		})
	}
}

func TestSelect_ClosestAndFutureEvents(t *testing.T) {
	records := []Record{
		fullRecord("01-06-2024 (09:00-09:50)", "Passado", "Rui"),
		fullRecord("20-06-2024 (09:00-09:50)", "Trabalho", "Ana"),
		fullRecord("sem data", "Sem data", "Rui"),
		fullRecord("12-06-2024 (09:00-09:50)", "Teste A", "Ana"),
		fullRecord("12-06-2024 (09:00-10:40)", "Teste B", "Rui"),
		fullRecord("Quarta 12-06-2024 (08:00-08:50)", "Formato lenient", "Rui"),
	}
	now := time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC)

	sel := Select(records, "Data/Hora", now)

	if got := eventNames(sel.FutureEvents); strings.Join(got, ",") != "Trabalho,Teste A,Teste B" {
		t.Errorf("FutureEvents = %v", got)
	}
	if sel.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", sel.Skipped)
	}
	if got := sel.Closest.GetOr("Evento", ""); got != "Teste A" {
		t.Errorf("Closest = %q, want first of the tied events", got)
	}
	if sel.ClosestRange.Key() != "12-06-2024 09:00" {
		t.Errorf("ClosestRange.Key() = %q", sel.ClosestRange.Key())
	}
}

func TestSelect_NoFutureEvents(t *testing.T) {
	records := []Record{
		fullRecord("01-06-2024 (09:00-09:50)", "Passado", "Rui"),
		NewRecord(Field{Name: "Evento", Value: Cell("Sem coluna")}),
	}
	now := time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC)

	sel := Select(records, "Data/Hora", now)

	if sel.ShouldNotify {
		t.Error("ShouldNotify = true with no future events")
	}
	if sel.Closest != nil {
		t.Error("Closest should be nil")
	}
	if sel.Subject != NoEventsSubject || sel.Body != NoEventsBody {
		t.Errorf("Subject/Body = %q / %q", sel.Subject, sel.Body)
	}
}

func TestSelect_SubjectAndBody(t *testing.T) {
	records := []Record{
		fullRecord("12-06-2024 (09:00-09:50)", "Teste de Matemática", "Ana Silva"),
		NewRecord(
			Field{Name: "Data/Hora", Value: Cell("14-06-2024 (11:05-11:55)")},
			Field{Name: "Evento", Value: Cell("Trabalho de Grupo")},
			Field{Name: "Professor", Value: nil},
		),
	}
	now := time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC)

	sel := Select(records, "Data/Hora", now)

	wantSubject := "Próxima Avaliação: 12-06-2024 (09:00-09:50)-Teste de Matemática"
	if sel.Subject != wantSubject {
		t.Errorf("Subject = %q, want %q", sel.Subject, wantSubject)
	}

	wantBody := "Prezado(a),\n\n" +
		"O próximo evento é: 12-06-2024 (09:00-09:50)-Teste de Matemática.\n\n" +
		"Todos os 2 eventos futuros agendados são:\n\n" +
		"- 12-06-2024 (09:00-09:50): Teste de Matemática (Prof. Ana Silva)\n" +
		"- 14-06-2024 (11:05-11:55): Trabalho de Grupo (Prof. N/A)\n\n" +
		"Esta lista exclui todos os eventos que já ocorreram."
	if sel.Body != wantBody {
		t.Errorf("Body = %q\nwant %q", sel.Body, wantBody)
	}
}

func TestSelectWithColumns_CustomHeaders(t *testing.T) {
	records := []Record{
		NewRecord(
			Field{Name: "Quando", Value: Cell("12-06-2024 (09:00-09:50)")},
			Field{Name: "O quê", Value: Cell("Ficha")},
			Field{Name: "Docente", Value: Cell("Rui")},
		),
	}
	cols := Columns{DateTime: "Quando", Event: "O quê", Professor: "Docente"}
	now := time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC)

	sel := SelectWithColumns(records, cols, now)

	if !sel.ShouldNotify {
		t.Fatal("ShouldNotify = false, want true on the day of the event")
	}
	if !strings.Contains(sel.Body, "- 12-06-2024 (09:00-09:50): Ficha (Prof. Rui)") {
		t.Errorf("Body = %q", sel.Body)
	}
}

func TestSelect_ComparesInNowLocation(t *testing.T) {
	lisbon := time.FixedZone("WEST", 3600)
	records := []Record{fullRecord("12-06-2024 (00:30-01:20)", "Cedo", "Ana")}
	// 23:45 UTC on the 11th is 00:45 on the 12th in Lisbon summer time.
	now := time.Date(2024, 6, 11, 23, 45, 0, 0, time.UTC).In(lisbon)

	sel := Select(records, "Data/Hora", now)

	if len(sel.FutureEvents) != 0 {
		t.Errorf("event at 00:30 local time should be past at 00:45, got %d future", len(sel.FutureEvents))
	}
}
