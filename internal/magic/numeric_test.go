package magic

import (
	"fmt"
	"testing"
)

func TestParseOffset(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    int64
		wantErr bool
	}{
		"decimal":       {"12", 12, false},
		"zero":          {"0", 0, false},
		"hex lower":     {"0x10", 16, false},
		"hex upper":     {"0X1F", 31, false},
		"negative":      {"-1", 0, true},
		"garbage":       {"abc", 0, true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseOffset(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseOffset(%q): expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOffset(%q): unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("parseOffset(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseNumericContent(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    uint64
		wantErr bool
	}{
		"decimal":        {"100", 100, false},
		"hex":            {"0xFF", 255, false},
		"octal":          {"010", 8, false},
		"single zero":    {"0", 0, false},
		"leading zero one digit is decimal zero": {"0", 0, false},
		"empty":          {"", 0, true},
		"garbage":        {"xyz", 0, true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseNumericContent(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseNumericContent(%q): expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseNumericContent(%q): unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("parseNumericContent(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

// TestNumericContentRoundTrips formats a value in each base
// parseNumericContent understands and checks that re-parsing it in that
// base reproduces the original value.
func TestNumericContentRoundTrips(t *testing.T) {
	tests := map[string]struct {
		value uint64
		fmt   string
	}{
		"decimal": {1234, "%d"},
		"hex":     {0xFF00, "0x%X"},
		"octal":   {0o17, "0%o"},
		"zero":    {0, "%d"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			text := fmt.Sprintf(tt.fmt, tt.value)
			got, err := parseNumericContent(text)
			if err != nil {
				t.Fatalf("parseNumericContent(%q): unexpected error: %v", text, err)
			}
			if got != tt.value {
				t.Fatalf("round-trip %q = %d, want %d", text, got, tt.value)
			}
		})
	}
}
