package facematch

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Honza", "Honza"},
		{"Jiří", "Jiri"},
		{"café", "cafe"},
		{"naïve", "naive"},
		{"hello", "hello"},
		{"Žluťoučký kůň", "Zlutoucky kun"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RemoveDiacritics(tt.input)
			if result != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestASCIILabel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Jan Novák", "Jan Novak"},
		{"山田", "??"},
		{"Zoë\t", "Zoe?"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ASCIILabel(tt.input)
			if result != tt.expected {
				t.Errorf("ASCIILabel(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		expected string
	}{
		{"known without name", Result{Match: Match{ID: 3}, Known: true}, "ID: 3"},
		{"known with name", Result{Match: Match{ID: 0, Label: "Jiří"}, Known: true}, "ID: 0 (Jiri)"},
		{"blank name", Result{Match: Match{ID: 7, Label: "  "}, Known: true}, "ID: 7"},
		{"new face", Result{Match: Match{ID: 9}}, "New Face"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayLabel(tt.result); got != tt.expected {
				t.Errorf("DisplayLabel() = %q, want %q", got, tt.expected)
			}
		})
	}
}
