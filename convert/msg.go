// CLAUDE:SUMMARY MSG renderer: Outlook compound-file property extraction, synthesized HTML via the html renderer.
package convert

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
)

// MAPI property stream tags carried in __substg1.0_<tag> entries.
// The 001F suffix means UTF-16LE, 0102 means raw bytes.
const (
	tagSubject    = "0037001F"
	tagSenderName = "0C1A001F"
	tagDisplayTo  = "0E04001F"
	tagBodyPlain  = "1000001F"
	tagBodyHTML16 = "1013001F"
	tagBodyHTML   = "10130102"
)

// msgRenderer converts Outlook .msg files. The container is an OLE compound
// file; message properties live in dedicated streams, one property each.
// Extraction is indirect like eml: synthesize HTML, print, rename.
type msgRenderer struct {
	html Renderer
}

func (r *msgRenderer) Render(ctx context.Context, src, dst, _ string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()

	doc, err := mscfb.New(f)
	if err != nil {
		return fmt.Errorf("read msg container %s: %w", filepath.Base(src), err)
	}

	props := map[string][]byte{}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		tag, ok := strings.CutPrefix(entry.Name, "__substg1.0_")
		if !ok {
			continue
		}
		switch tag {
		case tagSubject, tagSenderName, tagDisplayTo, tagBodyPlain, tagBodyHTML16, tagBodyHTML:
			buf := make([]byte, int(entry.Size))
			n, readErr := io.ReadFull(entry, buf)
			if readErr != nil && readErr != io.ErrUnexpectedEOF {
				continue
			}
			props[tag] = buf[:n]
		}
	}

	content := emailContent{
		From:    decodeUTF16LE(props[tagSenderName]),
		To:      decodeUTF16LE(props[tagDisplayTo]),
		Subject: decodeUTF16LE(props[tagSubject]),
	}

	switch {
	case len(props[tagBodyHTML]) > 0:
		content.BodyHTML = string(props[tagBodyHTML])
	case len(props[tagBodyHTML16]) > 0:
		content.BodyHTML = decodeUTF16LE(props[tagBodyHTML16])
	case len(props[tagBodyPlain]) > 0:
		content.BodyText = decodeUTF16LE(props[tagBodyPlain])
	default:
		return fmt.Errorf("no text/html or text/plain body found in %s", filepath.Base(src))
	}

	return renderEmailToPDF(ctx, r.html, content, dst)
}

// decodeUTF16LE converts a UTF-16LE property stream to a string, dropping the
// trailing NUL terminator Outlook writes.
func decodeUTF16LE(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	u := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u = append(u, binary.LittleEndian.Uint16(b[i:]))
	}
	return strings.TrimRight(string(utf16.Decode(u)), "\x00")
}
