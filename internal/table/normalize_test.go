package table

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Data/Hora", "data/hora"},
		{"  Data/Hora \n", "data/hora"},
		{"Data /\n\t Hora", "data / hora"},
		{"EVENTO ", "evento"},
		{"Avaliação", "avaliação"},
		{"", ""},
		{" \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"  Data/Hora \n", "Professor", "Avaliação", "A  B\tC"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}
