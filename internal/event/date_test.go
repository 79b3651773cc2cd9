package event

import (
	"errors"
	"testing"
	"time"
)

func TestParseStart(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr error
	}{
		{
			name:  "full range",
			value: "14-01-2026 (10:00-10:50)",
			want:  "14-01-2026 10:00",
		},
		{
			name:  "start only",
			value: "14-01-2026 (08:15)",
			want:  "14-01-2026 08:15",
		},
		{
			name:  "text between date and time",
			value: "Terça, 03-02-2026 - 2.º tempo (11:05-11:55)",
			want:  "03-02-2026 11:05",
		},
		{
			name:    "no parenthesized time",
			value:   "14-01-2026 10:00",
			wantErr: ErrNoDateTime,
		},
		{
			name:    "no date",
			value:   "Amanhã (10:00-10:50)",
			wantErr: ErrNoDateTime,
		},
		{
			name:    "day out of range",
			value:   "32-01-2026 (10:00-10:50)",
			wantErr: ErrInvalidDateTime,
		},
		{
			name:    "hour out of range",
			value:   "14-01-2026 (25:00-25:50)",
			wantErr: ErrInvalidDateTime,
		},		{
			name:    "year zero",
			value:   "01-01-0000 (10:00)",
			wantErr: ErrInvalidDateTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ParseStart(tt.value, time.UTC)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseStart(%q) error = %v, want %v", tt.value, err, tt.wantErr)
				}
				var parseErr *DateParseError
				if !errors.As(err, &parseErr) || parseErr.Value != tt.value {
					t.Errorf("ParseStart(%q) error should be a *DateParseError carrying the value", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStart(%q) unexpected error: %v", tt.value, err)
			}
			if got := rng.Key(); got != tt.want {
				t.Errorf("ParseStart(%q).Key() = %q, want %q", tt.value, got, tt.want)
			}
			if rng.HasEnd {
				t.Errorf("ParseStart(%q) should ignore the end time", tt.value)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{
			name:      "valid range",
			value:     "15-06-2024 (10:00-10:50)",
			wantStart: "15-06-2024 10:00",
			wantEnd:   "15-06-2024 10:50",
		},
		{
			name:      "trailing text allowed",
			value:     "15-06-2024 (10:00-10:50) Sala 4",
			wantStart: "15-06-2024 10:00",
			wantEnd:   "15-06-2024 10:50",
		},
		{
			name:      "crosses midnight",
			value:     "15-06-2024 (23:30-00:20)",
			wantStart: "15-06-2024 23:30",
			wantEnd:   "16-06-2024 00:20",
		},
		{name: "start only is rejected", value: "15-06-2024 (10:00)", wantErr: true},
		{name: "leading text is rejected", value: "Sexta 15-06-2024 (10:00-10:50)", wantErr: true},
		{name: "missing space", value: "15-06-2024(10:00-10:50)", wantErr: true},
		{name: "invalid start", value: "31-06-2024 (10:00-10:50)", wantErr: true},
		{name: "empty", value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := ParseRange(tt.value, time.UTC)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRange(%q) expected error, got %v", tt.value, rng)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange(%q) unexpected error: %v", tt.value, err)
			}
			if got := rng.Key(); got != tt.wantStart {
				t.Errorf("start = %q, want %q", got, tt.wantStart)
			}
			if !rng.HasEnd {
				t.Fatal("HasEnd = false, want true")
			}
			if got := rng.End.Format(KeyLayout); got != tt.wantEnd {
				t.Errorf("end = %q, want %q", got, tt.wantEnd)
			}
		})
	}
}

func TestParseRange_InvalidEndKeepsStart(t *testing.T) {
	rng, err := ParseRange("15-06-2024 (10:00-99:99)", time.UTC)
	if err != nil {
		t.Fatalf("ParseRange() error = %v", err)
	}
	if rng.HasEnd {
		t.Error("HasEnd = true, want false for an invalid end time")
	}
	if rng.Key() != "15-06-2024 10:00" {
		t.Errorf("Key() = %q", rng.Key())
	}
}

func TestParseRange_UsesLocation(t *testing.T) {
	loc := time.FixedZone("WEST", 3600)
	rng, err := ParseRange("15-06-2024 (10:00-10:50)", loc)
	if err != nil {
		t.Fatalf("ParseRange() error = %v", err)
	}
	want := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	if !rng.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", rng.Start, want)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{
			name: "same day different hours",
			a:    time.Date(2024, 6, 12, 23, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "late evening to early next morning",
			a:    time.Date(2024, 6, 8, 23, 59, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 9, 0, 1, 0, 0, time.UTC),
			want: 1,
		},
		{
			name: "across month",
			a:    time.Date(2024, 6, 28, 12, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC),
			want: 4,
		},
		{
			name: "backwards",
			a:    time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			want: -2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDaysBetween_DSTTransition(t *testing.T) {
	lisbon, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks move forward on 2024-03-31 in Lisbon.
	a := time.Date(2024, 3, 30, 10, 0, 0, 0, lisbon)
	b := time.Date(2024, 4, 1, 10, 0, 0, 0, lisbon)
	if got := DaysBetween(a, b); got != 2 {
		t.Errorf("DaysBetween() across DST = %d, want 2", got)
	}
}
