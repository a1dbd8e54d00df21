package util

import (
	"path/filepath"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		wantErr  bool
	}{
		{"plain", "photo.jpg", "photo.jpg", false},
		{"traversal", "../../../etc/passwd", "passwd", false},
		{"nested", "dir/sub/file.png", "file.png", false},
		{"empty", "", "", true},
		{"dot", ".", "", true},
		{"dotdot", "..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePathWithinBase(t *testing.T) {
	base := t.TempDir()

	if err := ValidatePathWithinBase(base, filepath.Join(base, "a", "b.jpg")); err != nil {
		t.Errorf("expected path inside base to validate, got %v", err)
	}

	if err := ValidatePathWithinBase(base, filepath.Join(base, "..", "escape.jpg")); err == nil {
		t.Error("expected traversal outside base to be rejected")
	}

	// Sibling directory sharing the base prefix must not pass.
	if err := ValidatePathWithinBase(base, base+"-evil/file.jpg"); err == nil {
		t.Error("expected prefix-sibling directory to be rejected")
	}
}

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	p, err := SafeJoinPath(base, "uploads", "photo.jpg")
	if err != nil {
		t.Fatalf("SafeJoinPath: %v", err)
	}
	if err := ValidatePathWithinBase(base, p); err != nil {
		t.Errorf("joined path escapes base: %v", err)
	}

	if _, err := SafeJoinPath(base, "..", "outside.jpg"); err == nil {
		t.Error("expected traversal join to fail")
	}
}
