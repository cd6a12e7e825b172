package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleLog = `2025-03-14 09:00:01 INFO OK word 1 Documents/a/ok.docx -> Converted/a/ok.pdf
2025-03-14 09:00:02 WARNING FALLBACK Documents/b/locked.docx : Password protected file: locked.docx
2025-03-14 09:00:03 ERROR ERROR Documents/c/net.msg : read tcp 10.0.0.1:443: connection reset by peer
2025-03-14 09:00:04 WARNING FALLBACK Documents/d/pic.png : cannot identify image file pic.png
2025-03-14 09:00:05 ERROR ERROR Documents/e/dup.pdf : BlobAlreadyExists: target object already exists
2025-03-14 09:00:06 WARNING FALLBACK Documents/f/odd.xyz : unsupported file extension ".xyz"
2025-03-14 09:00:07 ERROR ERROR Other/elsewhere.docx : timed out
2025-03-14 09:00:08 WARNING FALLBACK Documents/g/weird.doc : something nobody categorized
2025-03-14 09:00:09 ERROR ERROR Documents/c/net.msg : connection reset by peer
2025-03-14 10:00:00 INFO OK msg 1 Documents/c/net.msg -> Converted/c/net.pdf
`

func TestParse(t *testing.T) {
	res, err := New("Documents/").Parse(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}

	if !res.Successes["Documents/a/ok.docx"] || !res.Successes["Documents/c/net.msg"] {
		t.Fatalf("successes = %v, missing expected names", res.Successes)
	}

	tests := []struct {
		cat  Category
		name string
	}{
		{PasswordProtected, "Documents/b/locked.docx"},
		{NetworkTimeout, "Documents/c/net.msg"},
		{CorruptImage, "Documents/d/pic.png"},
		{UnsupportedFormat, "Documents/f/odd.xyz"},
	}
	for _, tt := range tests {
		if !res.Failures[tt.cat][tt.name] {
			t.Errorf("expected %s in %s bucket, got %v", tt.name, tt.cat, res.Failures[tt.cat])
		}
	}

	// Benign destination conflicts are not failures.
	for cat, set := range res.Failures {
		if set["Documents/e/dup.pdf"] {
			t.Errorf("BlobAlreadyExists entry classified as %s", cat)
		}
		// Lines outside the source prefix are ignored.
		if set["Other/elsewhere.docx"] {
			t.Errorf("foreign prefix entry classified as %s", cat)
		}
		// Unmatched error texts are dropped, not guessed.
		if set["Documents/g/weird.doc"] {
			t.Errorf("uncategorized entry classified as %s", cat)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// "connection reset" hits network_timeout before anything else even
	// though "corrupt" appears later in the text.
	if got := classify("connection reset while reading corrupt stream"); got != NetworkTimeout {
		t.Fatalf("classify = %q, want network_timeout", got)
	}
	if got := classify("completely novel failure"); got != "" {
		t.Fatalf("classify = %q, want empty for unmatched text", got)
	}
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")
	os.WriteFile(logPath, []byte(sampleLog), 0644)

	outDir := filepath.Join(dir, "failures")
	counts, err := New("Documents/").Extract(logPath, outDir)
	if err != nil {
		t.Fatal(err)
	}

	// net.msg failed and later succeeded: its bucket ends up empty and no
	// list file is written for it.
	if counts[NetworkTimeout] != 0 {
		t.Fatalf("network_timeout count = %d, want 0 after success", counts[NetworkTimeout])
	}
	if _, err := os.Stat(filepath.Join(outDir, "failed_network_timeout.txt")); err == nil {
		t.Fatal("empty bucket got a list file")
	}

	data, err := os.ReadFile(filepath.Join(outDir, "failed_password_protected.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "Documents/b/locked.docx" {
		t.Fatalf("password_protected list = %q", got)
	}
	if counts[PasswordProtected] != 1 || counts[CorruptImage] != 1 || counts[UnsupportedFormat] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.log")
	os.WriteFile(logPath, []byte(sampleLog), 0644)

	listPath := filepath.Join(dir, "retry.txt")
	list := "Documents/c/net.msg\nDocuments/b/locked.docx\n\nDocuments/z/still.docx\n"
	os.WriteFile(listPath, []byte(list), 0644)

	remaining, removed, err := New("Documents/").Prune(listPath, logPath)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 || remaining != 2 {
		t.Fatalf("removed = %d remaining = %d, want 1 and 2", removed, remaining)
	}

	data, _ := os.ReadFile(listPath)
	want := "Documents/b/locked.docx\nDocuments/z/still.docx\n"
	if string(data) != want {
		t.Fatalf("pruned list = %q, want %q", data, want)
	}
}

func TestReadList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	os.WriteFile(path, []byte("a\n\n  b  \n"), 0644)
	names, err := ReadList(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v", names)
	}
}
