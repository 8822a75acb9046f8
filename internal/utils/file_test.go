package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateOutputFilename(t *testing.T) {
	tests := []struct {
		input, prefix, suffix, format string
		want                          string
	}{
		{"/in/photo.jpeg", "", "_cropped", "png", "out/photo_cropped.png"},
		{"shot.PNG", "crop-", "", "jpeg", "out/crop-shot.jpg"},
		{"a.b.webp", "", ":x", "webp", "out/a.b_x.webp"},
	}
	for _, tt := range tests {
		got := GenerateOutputFilename(tt.input, "out", tt.prefix, tt.suffix, tt.format)
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("GenerateOutputFilename(%q) = %q, expected %q", tt.input, got, tt.want)
		}
	}
}

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.tif", "d.webp"} {
		if !IsImageFile(name) {
			t.Errorf("Expected %s to be an image file", name)
		}
	}
	for _, name := range []string{"a.txt", "jpg", "b.jpg.bak"} {
		if IsImageFile(name) {
			t.Errorf("Expected %s not to be an image file", name)
		}
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "sub"), 0755)
	for _, name := range []string{"a.png", "notes.txt", filepath.Join("sub", "b.jpg")} {
		os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644)
	}

	files, err := ListImageFiles(dir, nil)
	if err != nil {
		t.Fatalf("ListImageFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 image files, got %d: %v", len(files), files)
	}

	pngOnly, _ := ListImageFiles(dir, func(name string) bool { return strings.HasSuffix(name, ".png") })
	if len(pngOnly) != 1 {
		t.Errorf("Expected 1 png file, got %d", len(pngOnly))
	}
}

func TestFileAndDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.png")
	os.WriteFile(file, []byte("x"), 0644)

	if !FileExists(file) || FileExists(dir) || FileExists(filepath.Join(dir, "nope")) {
		t.Error("FileExists returned unexpected results")
	}
	if !DirExists(dir) || DirExists(file) {
		t.Error("DirExists returned unexpected results")
	}

	nested := filepath.Join(dir, "x", "y")
	if err := EnsureDir(nested); err != nil || !DirExists(nested) {
		t.Errorf("EnsureDir failed: %v", err)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KB",
		5 * 1024 * 1024: "5.0 MB",
	}
	for size, want := range tests {
		if got := FormatFileSize(size); got != want {
			t.Errorf("FormatFileSize(%d) = %s, expected %s", size, got, want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename(" a/b:c "); got != "a_b_c" {
		t.Errorf("Expected a_b_c, got %q", got)
	}
}
