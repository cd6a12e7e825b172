// CLAUDE:SUMMARY Failure ledger: classify run-log failures, extract retry lists, prune after success.
// Package ledger mines migration run logs for failed conversions. Failures
// are bucketed into retryable categories by matching the error text against
// an ordered rule set, and each bucket becomes a retry list that feeds back
// into a forced migration run. Files that later converted successfully are
// dropped from the lists.
package ledger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Category is a failure bucket. Categories are ordered: the first rule whose
// pattern matches the error text wins.
type Category string

const (
	NetworkTimeout    Category = "network_timeout"
	AuthExpired       Category = "auth_expired"
	AutomationError   Category = "automation_error"
	PasswordProtected Category = "password_protected"
	CorruptImage      Category = "corrupt_image"
	CorruptOffice     Category = "corrupt_office"
	UnsupportedFormat Category = "unsupported_format"
)

type rule struct {
	category Category
	patterns []string
}

// rules is evaluated top to bottom. Patterns are lowercase substrings.
var rules = []rule{
	{NetworkTimeout, []string{"timed out", "timeout", "deadline exceeded", "connection reset", "connection refused", "broken pipe"}},
	{AuthExpired, []string{"token expired", "authentication", "access denied", "signature does not match", "credentials"}},
	{AutomationError, []string{"soffice", "launch browser", "chrome", "websocket", "print to pdf"}},
	{PasswordProtected, []string{"password protected", "encrypted", "password required"}},
	{CorruptImage, []string{"cannot identify image file", "unknown image format", "unexpected eof"}},
	{CorruptOffice, []string{"corrupt", "malformed", "not a valid compound file", "file format error"}},
	{UnsupportedFormat, []string{"unsupported file extension", "unsupported format", "no text/html or text/plain body"}},
}

// Categories lists all buckets in evaluation order.
func Categories() []Category {
	out := make([]Category, len(rules))
	for i, r := range rules {
		out[i] = r.category
	}
	return out
}

// benign marks error texts that are not conversion failures at all: the
// destination already held a PDF, so there is nothing to retry.
func benign(message string) bool {
	return strings.Contains(message, "BlobAlreadyExists")
}

// classify returns the first matching bucket, or "" when no rule applies.
// Unclassified failures are dropped rather than retried blindly.
func classify(message string) Category {
	lower := strings.ToLower(message)
	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(lower, p) {
				return r.category
			}
		}
	}
	return ""
}

// Ledger parses run logs scoped to one source prefix.
type Ledger struct {
	okRe   *regexp.Regexp
	failRe *regexp.Regexp
}

// New builds a ledger for object names under the given source prefix. The
// prefix anchors the capture so log lines about other prefixes are ignored.
func New(prefix string) *Ledger {
	q := regexp.QuoteMeta(prefix)
	return &Ledger{
		okRe:   regexp.MustCompile(` OK \w+ \d+ (` + q + `.*?) -> `),
		failRe: regexp.MustCompile(`(?:ERROR|FALLBACK)\s+(` + q + `[^:]+?)\s*:\s*(.*)$`),
	}
}

// Result is one pass over a run log.
type Result struct {
	// Failures maps each bucket to the set of failed source names.
	Failures map[Category]map[string]bool

	// Successes is the set of source names with an OK line.
	Successes map[string]bool
}

// Parse scans a run log. A name can appear in both sets when a failed file
// converted on a later attempt; Extract and Prune resolve that in favour of
// the success.
func (l *Ledger) Parse(r io.Reader) (*Result, error) {
	res := &Result{
		Failures:  map[Category]map[string]bool{},
		Successes: map[string]bool{},
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if m := l.okRe.FindStringSubmatch(line); m != nil {
			res.Successes[m[1]] = true
			continue
		}
		m := l.failRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name, message := m[1], m[2]
		if benign(message) {
			continue
		}
		cat := classify(message)
		if cat == "" {
			continue
		}
		if res.Failures[cat] == nil {
			res.Failures[cat] = map[string]bool{}
		}
		res.Failures[cat][name] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan run log: %w", err)
	}
	return res, nil
}

// ParseFile is Parse over a log file on disk.
func (l *Ledger) ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()
	return l.Parse(f)
}

// Extract writes one retry list per non-empty bucket into outDir, named
// failed_<category>.txt, one source name per line, sorted. Names that also
// have a success are left out. Returns per-bucket counts.
func (l *Ledger) Extract(logPath, outDir string) (map[Category]int, error) {
	res, err := l.ParseFile(logPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", outDir, err)
	}

	counts := map[Category]int{}
	for _, cat := range Categories() {
		names := setDiff(res.Failures[cat], res.Successes)
		if len(names) == 0 {
			continue
		}
		path := filepath.Join(outDir, fmt.Sprintf("failed_%s.txt", cat))
		if err := writeList(path, names); err != nil {
			return nil, err
		}
		counts[cat] = len(names)
	}
	return counts, nil
}

// Prune rewrites a retry list, removing every name that has since converted
// successfully according to the run log. Returns how many names remain and
// how many were removed.
func (l *Ledger) Prune(listPath, logPath string) (remaining, removed int, err error) {
	res, err := l.ParseFile(logPath)
	if err != nil {
		return 0, 0, err
	}

	data, err := os.ReadFile(listPath)
	if err != nil {
		return 0, 0, fmt.Errorf("read retry list: %w", err)
	}

	var keep []string
	for _, line := range strings.Split(string(data), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		if res.Successes[name] {
			removed++
			continue
		}
		keep = append(keep, name)
	}
	sort.Strings(keep)
	if err := writeList(listPath, keep); err != nil {
		return 0, 0, err
	}
	return len(keep), removed, nil
}

func setDiff(set, minus map[string]bool) []string {
	var out []string
	for name := range set {
		if !minus[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func writeList(path string, names []string) error {
	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadList loads a retry list file, one name per line, blanks skipped.
func ReadList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read retry list: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
