package store

import (
	"strings"
	"testing"
)

func TestNameDeterministic(t *testing.T) {
	t.Parallel()

	a := Name("/photos/vacation")
	b := Name("/photos/vacation")
	if a != b {
		t.Errorf("Name not deterministic: %q vs %q", a, b)
	}
}

func TestNameTrailingSlash(t *testing.T) {
	t.Parallel()

	// Trailing separators must not change the identity of a directory.
	a := Name("/photos/vacation")
	b := Name("/photos/vacation/")
	if a != b {
		t.Errorf("trailing slash changed name: %q vs %q", a, b)
	}
}

func TestNameDistinctDirectories(t *testing.T) {
	t.Parallel()

	// Same basename under different parents must map to different stores.
	a := Name("/alice/photos")
	b := Name("/bob/photos")
	if a == b {
		t.Errorf("distinct directories collided on %q", a)
	}
	if !strings.HasPrefix(a, "photos-") || !strings.HasPrefix(b, "photos-") {
		t.Errorf("names should start with the basename: %q, %q", a, b)
	}
}

func TestNameFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		directory string
		prefix    string
	}{
		{
			name:      "simple directory",
			directory: "/data/holiday-pics",
			prefix:    "holiday-pics-",
		},
		{
			name:      "root directory",
			directory: "/",
			prefix:    "index-",
		},
		{
			name:      "nested path",
			directory: "/a/b/c/wallpapers",
			prefix:    "wallpapers-",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Name(tt.directory)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("Name(%q) = %q, want prefix %q", tt.directory, got, tt.prefix)
			}
			if !strings.HasSuffix(got, ".db") {
				t.Errorf("Name(%q) = %q, want .db suffix", tt.directory, got)
			}
			// basename, dash, 6 hex digits, ".db"
			hexPart := strings.TrimSuffix(strings.TrimPrefix(got, tt.prefix), ".db")
			if len(hexPart) != 6 {
				t.Errorf("Name(%q) hash part = %q, want 6 hex chars", tt.directory, hexPart)
			}
			for _, r := range hexPart {
				if !strings.ContainsRune("0123456789abcdef", r) {
					t.Errorf("Name(%q) hash part %q contains non-hex rune %q", tt.directory, hexPart, r)
				}
			}
		})
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid store name", "photos-a1b2c3.db", true},
		{"generated name round trip", Name("/photos/vacation"), true},
		{"missing extension", "photos-a1b2c3", false},
		{"empty", "", false},
		{"bare extension", ".db", false},
		{"path traversal", "../other.db", false},
		{"absolute path", "/etc/passwd.db", false},
		{"embedded separator", "a/b.db", false},
		{"windows separator", `a\b.db`, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ValidName(tt.input); got != tt.want {
				t.Errorf("ValidName(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
