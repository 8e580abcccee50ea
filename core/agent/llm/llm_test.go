package llm

import (
	"strings"
	"testing"
)

func TestTruncateBody(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		maxLen int
		want   string
	}{
		{"short body untouched", "hello", 2000, "hello"},
		{"exact length untouched", strings.Repeat("a", 10), 10, strings.Repeat("a", 10)},
		{"long body truncated", strings.Repeat("b", 15), 10, strings.Repeat("b", 10) + "..."},
		{"empty body", "", 2000, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateBody(tt.body, tt.maxLen); got != tt.want {
				t.Errorf("truncateBody = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"intent":"read"}`, `{"intent":"read"}`},
		{"json fence", "```json\n{\"intent\":\"read\"}\n```", `{"intent":"read"}`},
		{"bare fence", "```\n{\"intent\":\"read\"}\n```", `{"intent":"read"}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanJSONResponse(tt.in); got != tt.want {
				t.Errorf("cleanJSONResponse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
