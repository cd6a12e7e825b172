// CLAUDE:SUMMARY Append-only run log with the line formats the failure ledger parses.
package migrate

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/pdfmig/convert"
)

// RunLog is the append-only migration log. One line per terminal item
// outcome:
//
//	<ts> INFO OK <category> <n> <source> -> <dest>
//	<ts> WARNING FALLBACK <source> : <message>
//	<ts> ERROR ERROR <source> : <message>
//
// SKIP outcomes are debug-logged only and never written to the file, so a
// skipped item leaves no conversion record for the run. The formats are load
// bearing: the failure ledger parses them, so they must not change shape.
type RunLog struct {
	mu     sync.Mutex
	f      *os.File
	logger *slog.Logger
	now    func() time.Time
}

// OpenRunLog opens (appending) or creates the run log at path.
func OpenRunLog(path string, logger *slog.Logger) (*RunLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open run log %s: %w", path, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RunLog{f: f, logger: logger, now: time.Now}, nil
}

func (l *RunLog) write(level, msg string) {
	// Renderer errors can carry multi-line subprocess output. The grammar is
	// one line per record, so embedded newlines must be flattened.
	msg = strings.ReplaceAll(strings.ReplaceAll(msg, "\r", " "), "\n", " ")

	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s %s %s\n", l.now().Format("2006-01-02 15:04:05"), level, msg)
	if _, err := l.f.WriteString(line); err != nil {
		l.logger.Error("run log write failed", "error", err)
	}
}

// OK records a successful conversion with its per-category sequence number.
func (l *RunLog) OK(cat convert.Category, n int, source, dest string) {
	msg := fmt.Sprintf("OK %s %d %s -> %s", cat, n, source, dest)
	l.write("INFO", msg)
	l.logger.Info(msg)
}

// Fallback records a primary conversion failure that was substituted with a
// placeholder.
func (l *RunLog) Fallback(source, message string) {
	msg := fmt.Sprintf("FALLBACK %s : %s", source, message)
	l.write("WARNING", msg)
	l.logger.Warn(msg)
}

// Error records a hard per-item failure.
func (l *RunLog) Error(source, message string) {
	msg := fmt.Sprintf("ERROR %s : %s", source, message)
	l.write("ERROR", msg)
	l.logger.Error(msg)
}

// Skip notes an already-converted item. Debug only: skips leave no record in
// the persistent log.
func (l *RunLog) Skip(cat convert.Category, n int, dest string) {
	l.logger.Debug(fmt.Sprintf("SKIP %s %d %s (already exists)", cat, n, dest))
}

// Close flushes and closes the underlying file.
func (l *RunLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
