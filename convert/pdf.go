package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// passthroughPDF handles PDF inputs: same-path conversions are a no-op
// returning the source unchanged, otherwise the source is byte-copied to dst
// with permissions and timestamps preserved.
func (c *Converter) passthroughPDF(src, dst string) (string, error) {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", src, err)
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dst, err)
	}
	if srcAbs == dstAbs {
		return src, nil
	}

	if c.cfg.ValidatePassthrough {
		if err := api.ValidateFile(src, model.NewDefaultConfiguration()); err != nil {
			return "", fmt.Errorf("pdf validation: %w", err)
		}
	}

	if err := copyPreserving(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// copyPreserving copies src to dst keeping mode and mtime. The copy goes
// through a temporary file in the destination directory followed by a rename,
// so a failed copy never leaves a partial file visible at dst.
func copyPreserving(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Chmod(tmpName, info.Mode()); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("chtimes: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return nil
}
