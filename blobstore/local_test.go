package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func putString(t *testing.T, s *DirStore, name, content string, overwrite bool) error {
	t.Helper()
	local := filepath.Join(t.TempDir(), "payload")
	if err := os.WriteFile(local, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return s.Put(context.Background(), name, local, overwrite)
}

func TestDirStoreRoundTrip(t *testing.T) {
	s, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := putString(t, s, "docs/a/file.docx", "hello", false); err != nil {
		t.Fatal(err)
	}

	info, err := s.Stat(ctx, "docs/a/file.docx")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size != 5 {
		t.Fatalf("size = %d, want 5", info.Size)
	}

	local := filepath.Join(t.TempDir(), "out")
	if err := s.Get(ctx, "docs/a/file.docx", local); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(local)
	if string(data) != "hello" {
		t.Fatalf("content = %q", data)
	}

	ok, err := s.Exists(ctx, "docs/a/file.docx")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	ok, err = s.Exists(ctx, "docs/missing")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
}

func TestDirStorePutConflict(t *testing.T) {
	s, _ := NewDir(t.TempDir())

	if err := putString(t, s, "x/y.pdf", "v1", false); err != nil {
		t.Fatal(err)
	}
	err := putString(t, s, "x/y.pdf", "v2", false)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if err := putString(t, s, "x/y.pdf", "v2", true); err != nil {
		t.Fatalf("overwrite put failed: %v", err)
	}

	local := filepath.Join(t.TempDir(), "out")
	s.Get(context.Background(), "x/y.pdf", local)
	data, _ := os.ReadFile(local)
	if string(data) != "v2" {
		t.Fatalf("content = %q, want v2 after overwrite", data)
	}
}

func TestDirStoreListPrefix(t *testing.T) {
	s, _ := NewDir(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"src/b.docx", "src/a/nested.msg", "dst/a.pdf"} {
		if err := putString(t, s, name, "x", false); err != nil {
			t.Fatal(err)
		}
	}

	objects, err := s.List(ctx, "src/")
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 2 {
		t.Fatalf("listed %d objects, want 2: %v", len(objects), objects)
	}
	// Listing is sorted by name.
	if objects[0].Name != "src/a/nested.msg" || objects[1].Name != "src/b.docx" {
		t.Fatalf("order = %v", objects)
	}
}

func TestDirStoreGetMissing(t *testing.T) {
	s, _ := NewDir(t.TempDir())
	err := s.Get(context.Background(), "nope", filepath.Join(t.TempDir(), "out"))
	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
	_, err = s.Stat(context.Background(), "nope")
	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("Stat err = %v, want ErrNotExist", err)
	}
}
