// CLAUDE:SUMMARY Migration driver: enumerate, filter, download, convert, fallback, upload, tally.
// Package migrate drives the batch conversion of a remote object prefix to
// PDF. Items are processed strictly one at a time: list, filter, download to
// scratch, convert (placeholder on failure), upload, record. A single item's
// failure never aborts the batch, and already-converted items are skipped so
// repeated runs are resumable.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/pdfmig/blobstore"
	"github.com/hazyhaar/pdfmig/convert"
	"github.com/hazyhaar/pdfmig/observability"
)

// FileConverter turns one local file into a PDF inside dstDir.
type FileConverter interface {
	Convert(ctx context.Context, src, dstDir string) (string, error)
}

// PlaceholderFunc produces the fallback PDF for an unconvertible file.
type PlaceholderFunc func(src, dstDir string) (string, error)

// RunOptions are the per-invocation knobs resolved by the CLI.
type RunOptions struct {
	// MaxFiles halts enumeration after this many processed items. 0 = all.
	MaxFiles int

	// FilterExt restricts processing to one extension (e.g. ".msg").
	FilterExt string

	// CategoryCap processes at most N items per category (test sampling).
	CategoryCap int

	// LocalOutput writes PDFs under this directory, grouped by category,
	// instead of uploading.
	LocalOutput string

	// Force skips the existence check and overwrites destinations.
	Force bool

	// FileList processes exactly these object names instead of scanning
	// the source prefix. Typically combined with Force to retry failures.
	FileList []string
}

// Summary tallies one run.
type Summary struct {
	Processed int
	Skipped   int
	Fallbacks int
	Errors    int

	ByCategory map[convert.Category]int
}

// Driver orchestrates the migration.
type Driver struct {
	cfg         *Config
	store       blobstore.ObjectStore
	conv        FileConverter
	placeholder PlaceholderFunc
	events      *observability.EventLogger
	logger      *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithConverter replaces the conversion dispatcher.
func WithConverter(c FileConverter) DriverOption {
	return func(d *Driver) { d.conv = c }
}

// WithPlaceholder replaces the fallback generator.
func WithPlaceholder(p PlaceholderFunc) DriverOption {
	return func(d *Driver) { d.placeholder = p }
}

// WithEvents attaches an event logger. Nil is fine.
func WithEvents(ev *observability.EventLogger) DriverOption {
	return func(d *Driver) { d.events = ev }
}

// NewDriver creates a Driver over the given store.
func NewDriver(cfg *Config, store blobstore.ObjectStore, opts ...DriverOption) *Driver {
	cc := cfg.Convert
	cc.PasswordFor = cfg.PasswordFor
	cc.Logger = cfg.logger()

	d := &Driver{
		cfg:         cfg,
		store:       store,
		conv:        convert.New(cc),
		placeholder: convert.Placeholder,
		logger:      cfg.logger(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// List exposes the underlying store listing, used by inspection commands.
func (d *Driver) List(ctx context.Context, prefix string) ([]blobstore.ObjectInfo, error) {
	return d.store.List(ctx, prefix)
}

// Run processes the source prefix (or an explicit file list) once.
func (d *Driver) Run(ctx context.Context, opt RunOptions) (*Summary, error) {
	runlog, err := OpenRunLog(d.cfg.LogPath, d.logger)
	if err != nil {
		return nil, err
	}
	defer runlog.Close()

	objects, err := d.enumerate(ctx, opt)
	if err != nil {
		return nil, err
	}

	existing, err := d.existingOutputs(ctx, opt)
	if err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp("", "pdfmig-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	sum := &Summary{ByCategory: map[convert.Category]int{}}

	for _, obj := range objects {
		// Directory markers and zero-byte folder placeholders.
		if strings.HasSuffix(obj.Name, "/") || obj.Size == 0 {
			continue
		}
		rel := strings.TrimPrefix(obj.Name, d.cfg.SourcePrefix)
		if d.cfg.Excluded(rel) {
			continue
		}

		if opt.MaxFiles > 0 && sum.Processed >= opt.MaxFiles {
			d.logger.Info("reached max files limit, stopping", "max", opt.MaxFiles)
			break
		}

		ext := strings.ToLower(path.Ext(obj.Name))
		if opt.FilterExt != "" && ext != strings.ToLower(opt.FilterExt) {
			continue
		}

		cat := convert.CategoryForExt(ext)
		if opt.CategoryCap > 0 && sum.ByCategory[cat] >= opt.CategoryCap {
			continue
		}
		// The category slot is consumed before the existence check, so
		// already-converted files count against the sampling quota.
		sum.ByCategory[cat]++
		seq := sum.ByCategory[cat]

		target := targetName(d.cfg.DestPrefix, rel)
		if existing[target] {
			runlog.Skip(cat, seq, target)
			d.events.Log(ctx, observability.ConversionEvent{
				Source:      obj.Name,
				Destination: target,
				Category:    string(cat),
				Outcome:     "skip",
			})
			sum.Skipped++
			continue
		}

		outcome := d.processItem(ctx, runlog, scratch, obj, cat, seq, target, opt)
		sum.Processed++
		switch outcome {
		case outcomeFallback:
			sum.Fallbacks++
		case outcomeError:
			sum.Errors++
		}
	}

	return sum, nil
}

type itemOutcome int

const (
	outcomeOK itemOutcome = iota
	outcomeFallback
	outcomeError
)

func (o itemOutcome) String() string {
	switch o {
	case outcomeFallback:
		return "fallback"
	case outcomeError:
		return "error"
	default:
		return "ok"
	}
}

// processItem runs the full pipeline for one object. Scratch files are
// removed on every exit path before the next item starts.
func (d *Driver) processItem(ctx context.Context, runlog *RunLog, scratch string, obj blobstore.ObjectInfo, cat convert.Category, seq int, target string, opt RunOptions) itemOutcome {
	start := time.Now()
	local := filepath.Join(scratch, path.Base(obj.Name))
	defer os.Remove(local)

	record := func(outcome itemOutcome, dest, message string) {
		d.events.Log(ctx, observability.ConversionEvent{
			Source:      obj.Name,
			Destination: dest,
			Category:    string(cat),
			Outcome:     outcome.String(),
			Message:     message,
			DurationMS:  time.Since(start).Milliseconds(),
		})
	}

	if err := d.store.Get(ctx, obj.Name, local); err != nil {
		runlog.Error(obj.Name, err.Error())
		record(outcomeError, "", err.Error())
		return outcomeError
	}

	fallback := false
	var fallbackMsg string
	pdfPath, err := d.conv.Convert(ctx, local, scratch)
	if err != nil {
		runlog.Fallback(obj.Name, err.Error())
		fallbackMsg = err.Error()
		pdfPath, err = d.placeholder(local, scratch)
		if err != nil {
			runlog.Error(obj.Name, err.Error())
			record(outcomeError, "", err.Error())
			return outcomeError
		}
		fallback = true
	}
	if pdfPath != local {
		defer os.Remove(pdfPath)
	}

	dest, err := d.save(ctx, pdfPath, target, cat, opt)
	if err != nil {
		runlog.Error(obj.Name, err.Error())
		record(outcomeError, "", err.Error())
		return outcomeError
	}

	if fallback {
		record(outcomeFallback, dest, fallbackMsg)
		return outcomeFallback
	}
	runlog.OK(cat, seq, obj.Name, dest)
	record(outcomeOK, dest, "")
	return outcomeOK
}

// save uploads the PDF to the destination object, or copies it under the
// local output directory grouped by category.
func (d *Driver) save(ctx context.Context, pdfPath, target string, cat convert.Category, opt RunOptions) (string, error) {
	if opt.LocalOutput != "" {
		destDir := filepath.Join(opt.LocalOutput, string(cat))
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return "", fmt.Errorf("create %s: %w", destDir, err)
		}
		base := path.Base(target)
		dest := filepath.Join(destDir, strings.TrimSuffix(base, path.Ext(base))+".pdf")
		if err := copyFile(pdfPath, dest); err != nil {
			return "", err
		}
		return dest, nil
	}

	overwrite := opt.Force || d.cfg.Overwrite
	if err := d.store.Put(ctx, target, pdfPath, overwrite); err != nil {
		return "", err
	}
	return target, nil
}

// enumerate lists the work set: either the explicit file list (stat each
// name, warn on missing) or a full source prefix scan.
func (d *Driver) enumerate(ctx context.Context, opt RunOptions) ([]blobstore.ObjectInfo, error) {
	if len(opt.FileList) > 0 {
		d.logger.Info("processing explicit file list", "count", len(opt.FileList))
		if !opt.Force {
			d.logger.Warn("file list without force: already-converted entries will be skipped")
		}
		var objects []blobstore.ObjectInfo
		for _, name := range opt.FileList {
			info, err := d.store.Stat(ctx, name)
			if err != nil {
				d.logger.Warn("could not find object", "name", name, "error", err)
				continue
			}
			objects = append(objects, info)
		}
		return objects, nil
	}
	return d.store.List(ctx, d.cfg.SourcePrefix)
}

// existingOutputs preloads the destination listing for the existence check.
// Force mode, global overwrite, and local output all disable the check.
func (d *Driver) existingOutputs(ctx context.Context, opt RunOptions) (map[string]bool, error) {
	if opt.Force || d.cfg.Overwrite || opt.LocalOutput != "" {
		if opt.Force {
			d.logger.Info("force mode: skipping existence check, will overwrite")
		}
		return map[string]bool{}, nil
	}
	d.logger.Info("loading existing output files", "prefix", d.cfg.DestPrefix)
	objects, err := d.store.List(ctx, d.cfg.DestPrefix)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(objects))
	for _, obj := range objects {
		existing[obj.Name] = true
	}
	d.logger.Info("existing output files loaded", "count", len(existing))
	return existing, nil
}

// targetName maps a source-relative path to its destination object name:
// destination prefix plus the relative path with the extension replaced by
// .pdf. Extension-less names get .pdf appended. Directory structure is
// preserved exactly.
func targetName(destPrefix, rel string) string {
	base := path.Base(rel)
	if i := strings.LastIndex(base, "."); i >= 0 {
		rel = rel[:len(rel)-(len(base)-i)]
	}
	return destPrefix + rel + ".pdf"
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}
