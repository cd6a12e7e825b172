package migrate

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/pdfmig/convert"
)

func TestRunLogLineFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	l, err := OpenRunLog(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	l.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	l.OK(convert.CategoryWord, 7, "Documents/a/r.docx", "Converted/a/r.pdf")
	l.Fallback("Documents/b.png", "cannot identify image file b.png")
	l.Error("Documents/c.msg", "connection reset by peer")
	l.Skip(convert.CategoryWord, 8, "Converted/d.pdf")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	want := []string{
		"2025-03-14 09:26:53 INFO OK word 7 Documents/a/r.docx -> Converted/a/r.pdf",
		"2025-03-14 09:26:53 WARNING FALLBACK Documents/b.png : cannot identify image file b.png",
		"2025-03-14 09:26:53 ERROR ERROR Documents/c.msg : connection reset by peer",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d (skips never reach the file):\n%s", len(lines), len(want), data)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRunLogFlattensMultilineMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	l, err := OpenRunLog(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	l.Fallback("Documents/a.docx", "soffice failed:\nWarning: profile locked\r\nError: exit 1")
	l.Error("Documents/b.docx", "first\nsecond")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	// One record per line, however messy the renderer output was.
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], "FALLBACK Documents/a.docx") {
		t.Errorf("line 0 lost its record header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "ERROR Documents/b.docx : first second") {
		t.Errorf("line 1 = %q, want flattened message", lines[1])
	}
}

func TestRunLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	for i := 0; i < 2; i++ {
		l, err := OpenRunLog(path, logger)
		if err != nil {
			t.Fatal(err)
		}
		l.Error("Documents/x.doc", "boom")
		l.Close()
	}

	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "boom"); got != 2 {
		t.Fatalf("entries = %d, want 2: reopening must append, not truncate", got)
	}
}
