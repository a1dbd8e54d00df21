package service

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.jpg", "photo.jpg"},
		{"my photo.jpg", "my-photo.jpg"},
		{"../../etc/passwd", "passwd.bin"},
		{"a<b>&c.png", "abc.png"},
		{"noext", "noext.bin"},
		{"it's.png", "its.png"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := sanitizeFilename(tt.in); got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMimeTypeFromExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.jpg", "image/jpeg"},
		{"a.JPEG", "image/jpeg"},
		{"a.png", "image/png"},
		{"a.gif", "image/gif"},
		{"a.webp", "image/webp"},
		{"a.pdf", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := mimeTypeFromExtension(tt.filename); got != tt.want {
			t.Errorf("mimeTypeFromExtension(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}
