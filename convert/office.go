// CLAUDE:SUMMARY Office renderer: converts word/excel/ppt documents through a LibreOffice headless subprocess.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// sofficeRenderer converts office documents (word, excel, ppt categories)
// with a LibreOffice headless subprocess. Each invocation runs against a
// throwaway user-installation directory so parallel or repeated runs never
// contend on a shared profile lock.
type sofficeRenderer struct {
	bin     string
	timeout time.Duration
	logger  *slog.Logger
}

// cfbMagic is the OLE compound-file signature. OOXML files are zip archives;
// an OOXML extension over a compound file means the document is wrapped in
// an encryption container.
var cfbMagic = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

func (r *sofficeRenderer) Render(ctx context.Context, src, dst, password string) error {
	// LibreOffice cannot receive a document password on the command line.
	// Detect encrypted input up front and fail distinctly instead of letting
	// the subprocess stall on a password prompt it can never answer.
	if enc, err := isEncryptedOOXML(src); err == nil && enc {
		if password != "" {
			return fmt.Errorf("Password protected file: %s (password available but not applicable to this renderer)", filepath.Base(src))
		}
		return fmt.Errorf("Password protected file: %s", filepath.Base(src))
	}

	profile, err := os.MkdirTemp("", "pdfmig-soffice-")
	if err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	defer os.RemoveAll(profile)

	outDir, err := os.MkdirTemp(filepath.Dir(dst), ".soffice-")
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.bin,
		"--headless",
		"--norestore",
		"--nolockcheck",
		"-env:UserInstallation=file://"+profile,
		"--convert-to", "pdf",
		"--outdir", outDir,
		src,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("soffice %s: %w: %s", filepath.Base(src), err, trimOutput(output))
	}

	produced := filepath.Join(outDir, stem(src)+".pdf")
	if _, err := os.Stat(produced); err != nil {
		// Exit code 0 with no output happens on documents LibreOffice
		// cannot open (corrupt or encrypted legacy formats).
		return fmt.Errorf("soffice produced no output for %s: %s", filepath.Base(src), trimOutput(output))
	}

	if err := os.Rename(produced, dst); err != nil {
		return fmt.Errorf("rename to %s: %w", dst, err)
	}

	r.logger.Debug("convert: office document rendered", "src", src, "dst", dst)
	return nil
}

// isEncryptedOOXML reports whether an OOXML-extension file is actually an
// OLE encryption container rather than a zip archive.
func isEncryptedOOXML(path string) (bool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".xlsx", ".pptx", ".xlsm":
	default:
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, len(cfbMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		// Shorter than the magic means not an OLE container.
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(head, cfbMagic), nil
}

func trimOutput(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 400 {
		s = s[:400] + "..."
	}
	return s
}
