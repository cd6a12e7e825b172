package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlaceholder(t *testing.T) {
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "archive.zip")
	if err := os.WriteFile(src, []byte("PK\x03\x04 payload bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := Placeholder(src, dstDir)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dstDir, "archive.pdf"); out != want {
		t.Fatalf("out = %q, want %q", out, want)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Fatalf("output is not a PDF, starts with %q", data[:min(8, len(data))])
	}

	// The original must ride along as an attachment: it is the only
	// surviving copy of the content.
	names, err := ListAttachments(out)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, name := range names {
		if strings.Contains(name, "archive.zip") {
			found = true
		}
	}
	if !found {
		t.Fatalf("attachments = %v, want archive.zip embedded", names)
	}

	// No scratch files left next to the output.
	entries, _ := os.ReadDir(dstDir)
	for _, e := range entries {
		if e.Name() != "archive.pdf" {
			t.Errorf("unexpected leftover %s in output dir", e.Name())
		}
	}
}

func TestPlaceholderMissingSource(t *testing.T) {
	_, err := Placeholder(filepath.Join(t.TempDir(), "gone.bin"), t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}
