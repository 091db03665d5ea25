package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "e164 passes through",
			input: "+12125551234",
			want:  "+12125551234",
		},
		{
			name:  "us national format",
			input: "(212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "international with spaces",
			input: "+44 20 7946 0958",
			want:  "+442079460958",
		},
		{
			name:  "leading and trailing whitespace",
			input: "  +12125551234  ",
			want:  "+12125551234",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
