package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// imageRenderer wraps pdfcpu image import: one source image becomes a
// one-page PDF. Codecs pdfcpu cannot decode (corrupt files, exotic formats)
// fail here and leave fallback handling to the caller.
type imageRenderer struct{}

func (r *imageRenderer) Render(ctx context.Context, src, dst, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".img-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImagesFile([]string{src}, tmpName, imp, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("cannot identify image file %s: %w", filepath.Base(src), err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("rename to %s: %w", dst, err)
	}
	return nil
}
