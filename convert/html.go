package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// htmlRenderer prints local HTML files to PDF through headless Chrome.
//
// Every invocation gets a fresh browser with its own temporary user-data
// directory, so no state is shared across files, and the whole print is
// bounded by a hard timeout. Browser process and profile directory are
// released on every exit path.
type htmlRenderer struct {
	timeout time.Duration
	logger  *slog.Logger

	// browserBin overrides the Chrome binary. Empty = launcher default.
	browserBin string
}

func (r *htmlRenderer) Render(ctx context.Context, src, dst, _ string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", src, err)
	}

	profile, err := os.MkdirTemp("", "pdfmig-chrome-")
	if err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	defer os.RemoveAll(profile)

	l := launcher.New().
		Headless(true).
		UserDataDir(profile).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-extensions").
		Set("disable-dev-shm-usage")
	if r.browserBin != "" {
		l = l.Bin(r.browserBin)
	}
	defer l.Kill()

	wsURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(wsURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + srcAbs})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", src, err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return fmt.Errorf("print to pdf: %w", err)
	}
	defer stream.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".html-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, stream); err != nil {
		tmp.Close()
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("rename to %s: %w", dst, err)
	}

	r.logger.Debug("convert: html printed", "src", src, "dst", dst)
	return nil
}
