package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root, 1024)
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	ref, err := s.Save(ctx, 12, "../../My CV.PDF", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(ref, "cvs/2024/05/01/12_") || !strings.HasSuffix(ref, ".pdf") {
		t.Fatalf("unexpected ref %q", ref)
	}

	rc, err := s.Open(ctx, ref)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "hello" {
		t.Fatalf("expected hello, got %q", b)
	}

	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Open(ctx, ref); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestLocalStoreSizeLimit(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(context.Background(), 1, "cv.pdf", strings.NewReader("too large")); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
	var files int
	_ = filepath.Walk(root, func(_ string, info os.FileInfo, _ error) error {
		if info != nil && !info.IsDir() {
			files++
		}
		return nil
	})
	if files != 0 {
		t.Fatalf("expected partial file removed, found %d", files)
	}
}

func TestLocalStoreRejectsEscapingRefs(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range []string{"", "../etc/passwd", "cvs/../../x", "/cvs/a", "other/a.pdf"} {
		if _, err := s.Open(context.Background(), ref); !errors.Is(err, ErrInvalidRef) {
			t.Fatalf("%q: expected invalid ref, got %v", ref, err)
		}
	}
}
