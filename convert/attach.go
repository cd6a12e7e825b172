package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// AttachOriginal embeds originalPath into the PDF at pdfPath as a file
// attachment named after the original's filename.
//
// The updated document is written to a temporary file in the same directory
// and then atomically replaces pdfPath, so concurrent readers never observe a
// half-written file. If either input cannot be read, pdfPath is left
// untouched.
func AttachOriginal(pdfPath, originalPath string) error {
	if _, err := os.Stat(originalPath); err != nil {
		return fmt.Errorf("attachment source: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(pdfPath), ".attach-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	conf := model.NewDefaultConfiguration()
	if err := api.AddAttachmentsFile(pdfPath, tmpName, []string{originalPath}, false, conf); err != nil {
		return fmt.Errorf("add attachment %s: %w", filepath.Base(originalPath), err)
	}

	if err := os.Rename(tmpName, pdfPath); err != nil {
		return fmt.Errorf("replace %s: %w", pdfPath, err)
	}
	return nil
}

// ListAttachments returns the attachment names embedded in a PDF.
func ListAttachments(pdfPath string) ([]string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", pdfPath, err)
	}
	defer f.Close()

	attachments, err := api.Attachments(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("list attachments %s: %w", pdfPath, err)
	}
	names := make([]string, 0, len(attachments))
	for _, a := range attachments {
		names = append(names, a.FileName)
	}
	return names, nil
}
