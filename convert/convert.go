// CLAUDE:SUMMARY Conversion dispatcher: routes a source file to the renderer for its category and embeds the original.
// Package convert turns heterogeneous document files into PDF.
//
// Supported categories:
//   - pdf: pass-through (same-path no-op, otherwise byte copy)
//   - word, excel, ppt: LibreOffice headless subprocess
//   - image: pdfcpu image import
//   - html: headless Chrome print-to-PDF (throwaway profile per call)
//   - msg, eml: synthesized HTML representation, delegated to the html renderer
//
// The original file is embedded into the produced PDF as an attachment unless
// disabled. Conversion never falls back internally: a renderer failure is
// surfaced as a *RenderError so the caller can decide on placeholder handling.
//
// Usage:
//
//	conv := convert.New(convert.Config{})
//	out, err := conv.Convert(ctx, "/tmp/report.docx", "/tmp/out")
package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config configures a Converter.
type Config struct {
	// NoAttachOriginal disables embedding the source file into the output.
	NoAttachOriginal bool `yaml:"no_attach_original"`

	// ForceAttachPDF embeds the original even for PDF inputs, where
	// embedding is normally skipped (the content would be self-referential).
	ForceAttachPDF bool `yaml:"force_attach_pdf"`

	// ValidatePassthrough runs a pdfcpu validation over PDF inputs before
	// copying them. Off by default: malformed PDFs are copied as-is.
	ValidatePassthrough bool `yaml:"validate_passthrough"`

	// SofficePath is the LibreOffice binary for office documents.
	// Default: "soffice" resolved from PATH.
	SofficePath string `yaml:"soffice_path"`

	// HTMLTimeout caps a single browser print. Default: 60s.
	HTMLTimeout time.Duration `yaml:"html_timeout"`

	// OfficeTimeout caps a single LibreOffice invocation. Default: 120s.
	OfficeTimeout time.Duration `yaml:"office_timeout"`

	// PasswordFor supplies the password for protected documents.
	// Nil means no password is ever available.
	PasswordFor func(path string) string `yaml:"-"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.SofficePath == "" {
		c.SofficePath = "soffice"
	}
	if c.HTMLTimeout <= 0 {
		c.HTMLTimeout = 60 * time.Second
	}
	if c.OfficeTimeout <= 0 {
		c.OfficeTimeout = 120 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Renderer converts one local source file into a PDF at dst.
// Implementations must not leave a partial file visible at dst on failure,
// must release every process or session they acquire on all paths, and must
// fail distinctly (not crash) on password-protected input.
type Renderer interface {
	Render(ctx context.Context, src, dst, password string) error
}

// Converter dispatches conversions by file extension.
type Converter struct {
	cfg       Config
	logger    *slog.Logger
	renderers map[Category]Renderer
}

// Option configures a Converter beyond its Config.
type Option func(*Converter)

// WithRenderer replaces the renderer for a category.
func WithRenderer(cat Category, r Renderer) Option {
	return func(c *Converter) { c.renderers[cat] = r }
}

// New creates a Converter with the given configuration.
func New(cfg Config, opts ...Option) *Converter {
	cfg.defaults()
	c := &Converter{
		cfg:    cfg,
		logger: cfg.Logger,
	}

	office := &sofficeRenderer{bin: cfg.SofficePath, timeout: cfg.OfficeTimeout, logger: cfg.Logger}
	html := &htmlRenderer{timeout: cfg.HTMLTimeout, logger: cfg.Logger}
	c.renderers = map[Category]Renderer{
		CategoryWord:  office,
		CategoryExcel: office,
		CategoryPPT:   office,
		CategoryImage: &imageRenderer{},
		CategoryHTML:  html,
		CategoryEML:   &emlRenderer{html: html},
		CategoryMSG:   &msgRenderer{html: html},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Convert converts src into dstDir and returns the output path.
//
// The target name is deterministic: the source stem with a .pdf extension.
// Fails with ErrNotFound if src is missing and ErrUnsupportedFormat if the
// extension is outside the supported set. Renderer failures are returned as
// *RenderError; no placeholder fallback happens here.
func (c *Converter) Convert(ctx context.Context, src, dstDir string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, src)
		}
		return "", fmt.Errorf("stat %s: %w", src, err)
	}

	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dstDir, err)
	}

	ext := strings.ToLower(filepath.Ext(src))
	if !Supported(ext) {
		return "", fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions(), ", "))
	}

	cat := CategoryForExt(ext)
	dst := filepath.Join(dstDir, stem(src)+".pdf")

	c.logger.Debug("convert: dispatching", "src", src, "category", cat, "dst", dst)

	if cat == CategoryPDF {
		out, err := c.passthroughPDF(src, dst)
		if err != nil {
			return "", &RenderError{Category: cat, Path: src, Err: err}
		}
		// Embedding a PDF into its own converted copy is redundant,
		// skip unless explicitly forced.
		if c.cfg.ForceAttachPDF && !c.cfg.NoAttachOriginal && out != src {
			if err := AttachOriginal(out, src); err != nil {
				return "", fmt.Errorf("attach original: %w", err)
			}
		}
		return out, nil
	}

	r := c.renderers[cat]
	var password string
	if c.cfg.PasswordFor != nil {
		password = c.cfg.PasswordFor(src)
	}

	if err := r.Render(ctx, src, dst, password); err != nil {
		return "", &RenderError{Category: cat, Path: src, Err: err}
	}

	if !c.cfg.NoAttachOriginal {
		if err := AttachOriginal(dst, src); err != nil {
			return "", fmt.Errorf("attach original: %w", err)
		}
	}

	return dst, nil
}

// stem returns the filename without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
