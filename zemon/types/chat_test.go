package types

import (
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "What is 2+2?", "What is 2+2?"},
		{"exactly forty", strings.Repeat("a", 40), strings.Repeat("a", 40)},
		{"truncated", strings.Repeat("b", 41), strings.Repeat("b", 40) + "..."},
		{"multibyte", strings.Repeat("é", 45), strings.Repeat("é", 40) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.in); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
