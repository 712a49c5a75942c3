package glob

import "testing"

func TestMatch(t *testing.T) {
	tests := []struct {
		name          string
		pattern       string
		subject       string
		caseSensitive bool
		want          bool
	}{
		{"exact", "hello", "hello", true, true},
		{"star matches any run", "user * logged in", "user alice logged in", true, true},
		{"star matches slash", "a*b", "a/x/b", true, true},
		{"question mark single char", "a?c", "abc", true, true},
		{"question mark rejects multi", "a?c", "abbc", true, false},
		{"case sensitive mismatch", "Hello", "hello", true, false},
		{"case insensitive match", "Hello", "hello", false, true},
		{"no match", "foo*", "bar", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Match(tt.pattern, tt.subject, tt.caseSensitive)
			if err != nil {
				t.Fatalf("Match() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%q, %q, %v) = %v, want %v", tt.pattern, tt.subject, tt.caseSensitive, got, tt.want)
			}
		})
	}
}
