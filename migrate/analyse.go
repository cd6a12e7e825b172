package migrate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hazyhaar/pdfmig/convert"
)

// ExtStat is the per-extension census entry.
type ExtStat struct {
	Ext       string
	Count     int
	Bytes     int64
	Supported bool
}

// Analysis is the source-prefix census: what is there, how big, and how much
// of it the converter can handle.
type Analysis struct {
	TotalFiles  int
	TotalBytes  int64
	Supported   int
	Unsupported int
	Extensions  []ExtStat
}

// Analyse scans the source prefix and reports the extension distribution.
// Directory markers, zero-byte entries and excluded paths are ignored, same
// as the migration run itself.
func (d *Driver) Analyse(ctx context.Context) (*Analysis, error) {
	objects, err := d.store.List(ctx, d.cfg.SourcePrefix)
	if err != nil {
		return nil, err
	}

	byExt := map[string]*ExtStat{}
	a := &Analysis{}
	for _, obj := range objects {
		if strings.HasSuffix(obj.Name, "/") || obj.Size == 0 {
			continue
		}
		rel := strings.TrimPrefix(obj.Name, d.cfg.SourcePrefix)
		if d.cfg.Excluded(rel) {
			continue
		}
		ext := strings.ToLower(path.Ext(obj.Name))
		if ext == "" {
			ext = "(none)"
		}
		st, ok := byExt[ext]
		if !ok {
			st = &ExtStat{Ext: ext, Supported: convert.Supported(ext)}
			byExt[ext] = st
		}
		st.Count++
		st.Bytes += obj.Size
		a.TotalFiles++
		a.TotalBytes += obj.Size
		if st.Supported {
			a.Supported++
		} else {
			a.Unsupported++
		}
	}

	for _, st := range byExt {
		a.Extensions = append(a.Extensions, *st)
	}
	sort.Slice(a.Extensions, func(i, j int) bool {
		if a.Extensions[i].Count != a.Extensions[j].Count {
			return a.Extensions[i].Count > a.Extensions[j].Count
		}
		return a.Extensions[i].Ext < a.Extensions[j].Ext
	})
	return a, nil
}

// WriteReport renders the census as a plain text table.
func (a *Analysis) WriteReport(w io.Writer) error {
	fmt.Fprintf(w, "Source files: %d (%.1f MB)\n", a.TotalFiles, float64(a.TotalBytes)/(1<<20))
	fmt.Fprintf(w, "Convertible:  %d   Placeholder only: %d\n\n", a.Supported, a.Unsupported)
	fmt.Fprintf(w, "%-12s %8s %12s  %s\n", "EXTENSION", "COUNT", "BYTES", "CONVERTIBLE")
	for _, st := range a.Extensions {
		mark := "yes"
		if !st.Supported {
			mark = "no (placeholder)"
		}
		if _, err := fmt.Fprintf(w, "%-12s %8d %12d  %s\n", st.Ext, st.Count, st.Bytes, mark); err != nil {
			return err
		}
	}
	return nil
}

// ProgressReport compares the source and destination prefixes.
type ProgressReport struct {
	SourceFiles int
	TargetFiles int
	Remaining   int
	Percent     float64

	// RemainingByExt counts unconverted source files per extension.
	RemainingByExt map[string]int
}

// Progress lists both prefixes and reports how far the migration has come.
// A source file counts as done when its target object name exists.
func (d *Driver) Progress(ctx context.Context) (*ProgressReport, error) {
	src, err := d.store.List(ctx, d.cfg.SourcePrefix)
	if err != nil {
		return nil, err
	}
	dst, err := d.store.List(ctx, d.cfg.DestPrefix)
	if err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(dst))
	for _, obj := range dst {
		done[obj.Name] = true
	}

	r := &ProgressReport{RemainingByExt: map[string]int{}}
	for _, obj := range src {
		if strings.HasSuffix(obj.Name, "/") || obj.Size == 0 {
			continue
		}
		rel := strings.TrimPrefix(obj.Name, d.cfg.SourcePrefix)
		if d.cfg.Excluded(rel) {
			continue
		}
		r.SourceFiles++
		if done[targetName(d.cfg.DestPrefix, rel)] {
			continue
		}
		r.Remaining++
		ext := strings.ToLower(path.Ext(obj.Name))
		if ext == "" {
			ext = "(none)"
		}
		r.RemainingByExt[ext]++
	}
	r.TargetFiles = r.SourceFiles - r.Remaining
	if r.SourceFiles > 0 {
		r.Percent = 100 * float64(r.TargetFiles) / float64(r.SourceFiles)
	}
	return r, nil
}

// WriteReport renders the progress comparison.
func (r *ProgressReport) WriteReport(w io.Writer) error {
	fmt.Fprintf(w, "Converted %d of %d files (%.1f%%), %d remaining\n", r.TargetFiles, r.SourceFiles, r.Percent, r.Remaining)
	if len(r.RemainingByExt) == 0 {
		return nil
	}
	exts := make([]string, 0, len(r.RemainingByExt))
	for ext := range r.RemainingByExt {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if r.RemainingByExt[exts[i]] != r.RemainingByExt[exts[j]] {
			return r.RemainingByExt[exts[i]] > r.RemainingByExt[exts[j]]
		}
		return exts[i] < exts[j]
	})
	fmt.Fprintln(w, "\nRemaining by extension:")
	for _, ext := range exts {
		if _, err := fmt.Fprintf(w, "  %-12s %d\n", ext, r.RemainingByExt[ext]); err != nil {
			return err
		}
	}
	return nil
}

// Download fetches each listed object into localDir, flattened to its base
// name. Used to pull failed originals for manual inspection.
func (d *Driver) Download(ctx context.Context, names []string, localDir string) (int, error) {
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return 0, fmt.Errorf("create %s: %w", localDir, err)
	}
	fetched := 0
	for _, name := range names {
		dst := filepath.Join(localDir, path.Base(name))
		if err := d.store.Get(ctx, name, dst); err != nil {
			d.logger.Warn("download failed", "name", name, "error", err)
			continue
		}
		fetched++
	}
	if fetched == 0 && len(names) > 0 {
		return 0, fmt.Errorf("none of %d objects could be downloaded", len(names))
	}
	return fetched, nil
}
