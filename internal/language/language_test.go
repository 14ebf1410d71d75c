package language

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Detection
		{"", ""},
		{"   ", ""},
		{"auto", ""},
		{"AUTO", ""},
		// 2-letter codes pass through
		{"en", "en"},
		{"FR", "fr"},
		{" es ", "es"},
		// Regional and script variants reduce to base
		{"fr-FR", "fr"},
		{"pt_BR", "pt"},
		{"zh-Hant", "zh"},
		// 3-letter codes
		{"eng", "en"},
		{"fra", "fr"},
		{"fre", "fr"},
		{"ger", "de"},
		// Word forms
		{"French", "fr"},
		{"english", "en"},
		{"GERMAN", "de"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, input := range []string{"not a language", "12", "x!"} {
		if _, err := Normalize(input); err == nil {
			t.Errorf("Normalize(%q) expected error", input)
		}
		if got := ToISO2(input); got != "" {
			t.Errorf("ToISO2(%q) = %q, want empty", input, got)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "Auto-detect"},
		{"auto", "Auto-detect"},
		{"fr", "French"},
		{"de-DE", "German"},
		{"english", "English"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
