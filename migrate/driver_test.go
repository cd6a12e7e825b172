package migrate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/pdfmig/blobstore"
	"github.com/hazyhaar/pdfmig/convert"
)

// fakeConverter produces a marker PDF, optionally failing on configured
// base names.
type fakeConverter struct {
	failOn map[string]error
	calls  []string
}

func (f *fakeConverter) Convert(ctx context.Context, src, dstDir string) (string, error) {
	base := filepath.Base(src)
	f.calls = append(f.calls, base)
	if err := f.failOn[base]; err != nil {
		return "", err
	}
	out := filepath.Join(dstDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	if err := os.WriteFile(out, []byte("%PDF-converted"), 0644); err != nil {
		return "", err
	}
	return out, nil
}

func fakePlaceholder(src, dstDir string) (string, error) {
	base := filepath.Base(src)
	out := filepath.Join(dstDir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	return out, os.WriteFile(out, []byte("%PDF-placeholder"), 0644)
}

func testEnv(t *testing.T) (*Config, *blobstore.DirStore) {
	t.Helper()
	store, err := blobstore.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.SourcePrefix = "Documents/"
	cfg.DestPrefix = "Converted/"
	cfg.LogPath = filepath.Join(t.TempDir(), "migration.log")
	return cfg, store
}

func seed(t *testing.T, store *blobstore.DirStore, name, content string) {
	t.Helper()
	local := filepath.Join(t.TempDir(), "seed")
	if err := os.WriteFile(local, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(context.Background(), name, local, true); err != nil {
		t.Fatal(err)
	}
}

func readLog(t *testing.T, cfg *Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.LogPath)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRunConvertsAndIsIdempotent(t *testing.T) {
	cfg, store := testEnv(t)
	seed(t, store, "Documents/a/report.docx", "doc")
	seed(t, store, "Documents/b/sheet.xlsx", "xls")

	driver := NewDriver(cfg, store, WithConverter(&fakeConverter{}), WithPlaceholder(fakePlaceholder))
	sum, err := driver.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 2 || sum.Errors != 0 || sum.Fallbacks != 0 {
		t.Fatalf("summary = %+v, want 2 processed clean", sum)
	}

	for _, name := range []string{"Converted/a/report.pdf", "Converted/b/sheet.pdf"} {
		ok, err := store.Exists(context.Background(), name)
		if err != nil || !ok {
			t.Fatalf("missing destination object %s (err=%v)", name, err)
		}
	}
	okLines := strings.Count(readLog(t, cfg), " OK ")
	if okLines != 2 {
		t.Fatalf("OK lines = %d, want 2", okLines)
	}

	// Second run skips everything and writes no new OK lines.
	sum, err = driver.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 0 || sum.Skipped != 2 {
		t.Fatalf("second run summary = %+v, want all skipped", sum)
	}
	if got := strings.Count(readLog(t, cfg), " OK "); got != 2 {
		t.Fatalf("OK lines after second run = %d, want still 2", got)
	}
}

func TestRunSkipsZeroByteAndExcluded(t *testing.T) {
	cfg, store := testEnv(t)
	seed(t, store, "Documents/empty.docx", "")
	seed(t, store, "Documents/Logs/run.docx", "log")
	seed(t, store, "Documents/Mapping Tables/map.xlsx", "map")
	seed(t, store, "Documents/keep.docx", "doc")

	fake := &fakeConverter{}
	driver := NewDriver(cfg, store, WithConverter(fake), WithPlaceholder(fakePlaceholder))
	sum, err := driver.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 1 {
		t.Fatalf("processed = %d, want 1", sum.Processed)
	}
	if len(fake.calls) != 1 || fake.calls[0] != "keep.docx" {
		t.Fatalf("converter calls = %v, want only keep.docx", fake.calls)
	}
}

func TestRunCategoryCapCountsBeforeExistenceSkip(t *testing.T) {
	cfg, store := testEnv(t)
	seed(t, store, "Documents/one.docx", "1")
	seed(t, store, "Documents/two.docx", "2")
	// one.docx is already converted: its slot still counts against the cap.
	seed(t, store, "Converted/one.pdf", "%PDF-done")

	fake := &fakeConverter{}
	driver := NewDriver(cfg, store, WithConverter(fake), WithPlaceholder(fakePlaceholder))
	sum, err := driver.Run(context.Background(), RunOptions{CategoryCap: 1})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", sum.Skipped)
	}
	if sum.Processed != 0 {
		t.Fatalf("processed = %d, want 0: the existing file consumed the category slot", sum.Processed)
	}
	if len(fake.calls) != 0 {
		t.Fatalf("converter calls = %v, want none", fake.calls)
	}
}

func TestRunFallbackOnConversionFailure(t *testing.T) {
	cfg, store := testEnv(t)
	seed(t, store, "Documents/broken.docx", "doc")

	fake := &fakeConverter{failOn: map[string]error{"broken.docx": errors.New("soffice exited with status 1")}}
	driver := NewDriver(cfg, store, WithConverter(fake), WithPlaceholder(fakePlaceholder))
	sum, err := driver.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Fallbacks != 1 || sum.Errors != 0 {
		t.Fatalf("summary = %+v, want 1 fallback", sum)
	}

	// The placeholder result still reaches the destination.
	ok, _ := store.Exists(context.Background(), "Converted/broken.pdf")
	if !ok {
		t.Fatal("placeholder PDF not uploaded")
	}

	log := readLog(t, cfg)
	if !strings.Contains(log, "FALLBACK Documents/broken.docx") {
		t.Fatalf("no FALLBACK line in log:\n%s", log)
	}
	// A fallback item gets no OK line in the same run.
	if strings.Contains(log, " OK ") {
		t.Fatalf("unexpected OK line for fallback item:\n%s", log)
	}
}

func TestRunErrorIsolation(t *testing.T) {
	cfg, store := testEnv(t)
	seed(t, store, "Documents/bad.docx", "doc")
	seed(t, store, "Documents/good.docx", "doc")

	fake := &fakeConverter{failOn: map[string]error{"bad.docx": errors.New("boom")}}
	failingPlaceholder := func(src, dstDir string) (string, error) {
		if filepath.Base(src) == "bad.docx" {
			return "", errors.New("placeholder failed too")
		}
		return fakePlaceholder(src, dstDir)
	}
	driver := NewDriver(cfg, store, WithConverter(fake), WithPlaceholder(failingPlaceholder))
	sum, err := driver.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Errors != 1 {
		t.Fatalf("errors = %d, want 1", sum.Errors)
	}
	// The failure never aborts the run: the good file still converts.
	ok, _ := store.Exists(context.Background(), "Converted/good.pdf")
	if !ok {
		t.Fatal("good file not converted after sibling error")
	}
	if !strings.Contains(readLog(t, cfg), "ERROR Documents/bad.docx") {
		t.Fatal("no ERROR line for the failed item")
	}
}

func TestRunMaxFilesHaltsEnumeration(t *testing.T) {
	cfg, store := testEnv(t)
	for _, name := range []string{"a.docx", "b.docx", "c.docx", "d.docx"} {
		seed(t, store, "Documents/"+name, "doc")
	}

	driver := NewDriver(cfg, store, WithConverter(&fakeConverter{}), WithPlaceholder(fakePlaceholder))
	sum, err := driver.Run(context.Background(), RunOptions{MaxFiles: 2})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 2 {
		t.Fatalf("processed = %d, want 2", sum.Processed)
	}
}

func TestRunExtensionFilter(t *testing.T) {
	cfg, store := testEnv(t)
	seed(t, store, "Documents/mail.msg", "msg")
	seed(t, store, "Documents/doc.docx", "doc")

	fake := &fakeConverter{}
	driver := NewDriver(cfg, store, WithConverter(fake), WithPlaceholder(fakePlaceholder))
	if _, err := driver.Run(context.Background(), RunOptions{FilterExt: ".MSG"}); err != nil {
		t.Fatal(err)
	}
	if len(fake.calls) != 1 || fake.calls[0] != "mail.msg" {
		t.Fatalf("converter calls = %v, want only mail.msg", fake.calls)
	}
}

func TestRunLocalOutput(t *testing.T) {
	cfg, store := testEnv(t)
	seed(t, store, "Documents/deep/tree/report.docx", "doc")

	outDir := t.TempDir()
	driver := NewDriver(cfg, store, WithConverter(&fakeConverter{}), WithPlaceholder(fakePlaceholder))
	sum, err := driver.Run(context.Background(), RunOptions{LocalOutput: outDir})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 1 {
		t.Fatalf("processed = %d, want 1", sum.Processed)
	}

	// Local output flattens into per-category directories.
	out := filepath.Join(outDir, string(convert.CategoryWord), "report.pdf")
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("local output missing at %s: %v", out, err)
	}
	// Nothing is uploaded in local-output mode.
	ok, _ := store.Exists(context.Background(), "Converted/deep/tree/report.pdf")
	if ok {
		t.Fatal("object uploaded despite local output mode")
	}
}

func TestRunFileList(t *testing.T) {
	cfg, store := testEnv(t)
	seed(t, store, "Documents/a.docx", "doc")
	seed(t, store, "Documents/b.docx", "doc")

	fake := &fakeConverter{}
	driver := NewDriver(cfg, store, WithConverter(fake), WithPlaceholder(fakePlaceholder))
	sum, err := driver.Run(context.Background(), RunOptions{
		FileList: []string{"Documents/b.docx", "Documents/gone.docx"},
		Force:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Missing names are warned about and skipped, not fatal.
	if sum.Processed != 1 {
		t.Fatalf("processed = %d, want 1", sum.Processed)
	}
	if len(fake.calls) != 1 || fake.calls[0] != "b.docx" {
		t.Fatalf("converter calls = %v, want only b.docx", fake.calls)
	}
}

func TestTargetName(t *testing.T) {
	tests := []struct{ rel, want string }{
		{"a/b/report.docx", "Converted/a/b/report.pdf"},
		{"plain.msg", "Converted/plain.pdf"},
		{"noext", "Converted/noext.pdf"},
		{"dir.v2/file.two.dots.xlsx", "Converted/dir.v2/file.two.dots.pdf"},
	}
	for _, tt := range tests {
		if got := targetName("Converted/", tt.rel); got != tt.want {
			t.Errorf("targetName(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}
