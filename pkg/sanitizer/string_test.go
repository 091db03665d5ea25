package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Marie Curie  ",
			want:  "Marie Curie",
		},
		{
			name:  "multiple spaces between words",
			input: "Marie    Curie",
			want:  "Marie Curie",
		},
		{
			name:  "tabs and newlines",
			input: "Marie\t\nCurie",
			want:  "Marie Curie",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " O'Brien-Müller ",
			want:  "O'Brien-Müller",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTrimAndNormalize_Idempotent(t *testing.T) {
	input := "  Marie   Curie  "
	once := TrimAndNormalize(input)
	twice := TrimAndNormalize(once)
	if once != twice {
		t.Errorf("not idempotent: first %q, second %q", once, twice)
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{" Traveler@Example.COM ", "traveler@example.com"},
		{"lower@example.com", "lower@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeLocationCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"nyc", "NYC"},
		{" lhr ", "LHR"},
		{"CDG", "CDG"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeLocationCode(tt.input); got != tt.want {
			t.Errorf("NormalizeLocationCode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
