package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/blogapi/blog-service/internal/core/domain"
)

func TestUploadService_Upload(t *testing.T) {
	files := newMemFiles()
	svc := NewUploadService(files, nopLogger())

	name, err := svc.Upload(context.Background(), admin, "cat photo.png", strings.NewReader("PNGDATA"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasSuffix(name, "-cat_photo.png") {
		t.Fatalf("unexpected stored name %q", name)
	}
	if string(files.files[name]) != "PNGDATA" {
		t.Fatalf("stored bytes mismatch")
	}
}

func TestUploadService_EmptyFile(t *testing.T) {
	files := newMemFiles()
	svc := NewUploadService(files, nopLogger())

	_, err := svc.Upload(context.Background(), admin, "empty.png", strings.NewReader(""))
	if !errors.Is(err, domain.ErrEmptyUpload) {
		t.Fatalf("expected ErrEmptyUpload, got %v", err)
	}
	if len(files.files) != 0 {
		t.Fatalf("empty upload should not be kept")
	}
}

func TestUploadService_RequiresAdmin(t *testing.T) {
	svc := NewUploadService(newMemFiles(), nopLogger())

	if _, err := svc.Upload(context.Background(), reader, "a.png", strings.NewReader("x")); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), domain.Anonymous, "a.png", strings.NewReader("x")); err != domain.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":           "photo.jpg",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\pic.png`: "pic.png",
		"..":                  "file",
		".hidden":             "hidden",
		"über größe.gif":      "_ber_gr__e.gif",
		"":                    "file",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
	long := strings.Repeat("a", 200) + ".png"
	if got := sanitizeFilename(long); len(got) != maxStoredNameLen || !strings.HasSuffix(got, ".png") {
		t.Fatalf("long name not trimmed: %q", got)
	}
}
