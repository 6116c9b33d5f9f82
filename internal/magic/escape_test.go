package magic

import "testing"

func TestDecodeEscapes(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"plain text":        {"hello", "hello"},
		"escaped backslash":  {`a\\b`, `a\b`},
		"escaped space":      {`a\ b`, "a b"},
		"tab":                {`a\tb`, "a\tb"},
		"newline":            {`a\nb`, "a\nb"},
		"carriage return":    {`a\rb`, "a\rb"},
		"hex escape":         {`\x41\x42`, "AB"},
		"hex escape lower":   {`\x4a`, "J"},
		"invalid hex kept x": {`\xzz`, "xzz"},
		"octal one digit":    {`\7`, "\a"},
		"octal three digits": {`\101`, "A"},
		"octal stops at 3":   {`\1011`, "A1"},
		"unknown escape":     {`\q`, "q"},
		"trailing backslash": {`a\`, `a\`},
		"raw newline stops":  {"a\nb", "a"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := string(decodeEscapes(tt.in))
			if got != tt.want {
				t.Fatalf("decodeEscapes(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
