package convert

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
)

// emlRenderer converts .eml files by parsing the message and delegating a
// synthesized HTML representation to the html renderer.
type emlRenderer struct {
	html Renderer
}

func (r *emlRenderer) Render(ctx context.Context, src, dst, _ string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()

	msg, err := mail.ReadMessage(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(src), err)
	}

	mediaType := "text/plain"
	var params map[string]string
	if ct := msg.Header.Get("Content-Type"); ct != "" {
		mediaType, params, err = mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("content type of %s: %w", filepath.Base(src), err)
		}
	}

	body, isHTML, err := findEmailBody(mediaType, params, msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return fmt.Errorf("read body of %s: %w", filepath.Base(src), err)
	}
	if body == "" {
		return fmt.Errorf("no text/html or text/plain body found in %s", filepath.Base(src))
	}

	content := emailContent{
		From:    decodeHeader(msg.Header.Get("From")),
		To:      decodeHeader(msg.Header.Get("To")),
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Date:    decodeHeader(msg.Header.Get("Date")),
	}
	if isHTML {
		content.BodyHTML = body
	} else {
		content.BodyText = body
	}

	return renderEmailToPDF(ctx, r.html, content, dst)
}

// findEmailBody walks a MIME tree for displayable content. An HTML part wins
// over any plain-text part; among plain-text parts the first one encountered
// is kept as the fallback.
func findEmailBody(mediaType string, params map[string]string, cte string, r io.Reader) (string, bool, error) {
	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return "", false, fmt.Errorf("multipart without boundary")
		}
		mr := multipart.NewReader(r, boundary)

		var plain string
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", false, err
			}

			partType := "text/plain"
			var partParams map[string]string
			if ct := part.Header.Get("Content-Type"); ct != "" {
				if mt, mp, err := mime.ParseMediaType(ct); err == nil {
					partType, partParams = mt, mp
				}
			}

			body, isHTML, err := findEmailBody(partType, partParams, part.Header.Get("Content-Transfer-Encoding"), part)
			if err != nil {
				continue
			}
			if isHTML && body != "" {
				return body, true, nil
			}
			if body != "" && plain == "" {
				plain = body
			}
		}
		return plain, false, nil
	}

	switch mediaType {
	case "text/html":
		data, err := decodeTransfer(r, cte)
		return string(data), true, err
	case "text/plain":
		data, err := decodeTransfer(r, cte)
		return string(data), false, err
	}
	return "", false, nil
}

// decodeHeader undoes RFC 2047 encoded words in a header value, so
// internationalized senders and subjects render as text rather than their
// wire form. Malformed encodings fall back to the raw value.
func decodeHeader(s string) string {
	dec := new(mime.WordDecoder)
	out, err := dec.DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}

// decodeTransfer undoes the Content-Transfer-Encoding of a body part.
func decodeTransfer(r io.Reader, cte string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(cte)) {
	case "base64":
		return io.ReadAll(base64.NewDecoder(base64.StdEncoding, r))
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}
